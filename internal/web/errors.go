package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/imports"
	"github.com/mpstock/catalog/internal/logging"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent, nothing left to do for the client.
		slog.Error("json encode", "error", err)
	}
}

// respondError maps err to an HTTP status, logs it with the request
// context, and writes a JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	} else {
		log.Warn("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// badRequest rejects a request with a plain message before any service
// call happens.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.respondError(w, r, &requestError{msg: msg})
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, imports.ErrUnknownSource),
		errors.Is(err, imports.ErrUnsupportedFile),
		errors.As(err, &reqErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
