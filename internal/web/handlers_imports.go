package web

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/imports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleImport accepts a multipart spreadsheet upload and runs the
// import for the source named in the URL. The response is the persisted
// audit record.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if source == "" {
		s.badRequest(w, r, "missing import source")
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.badRequest(w, r, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, r, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	rec, err := s.imports.Run(r.Context(), source, header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// sourceInfo describes one registered import source.
type sourceInfo struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
}

func (s *Server) handleImportSources(w http.ResponseWriter, r *http.Request) {
	defs := imports.All()
	out := make([]sourceInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, sourceInfo{Tag: def.Tag, Label: def.Label})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)

	logs, err := s.store.ListImportLogs(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleImportLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.badRequest(w, r, "invalid import log id")
		return
	}

	rec, err := s.store.GetImportLog(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleImportReport serves the error report workbook of one import.
func (s *Server) handleImportReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.badRequest(w, r, "invalid import log id")
		return
	}

	rec, err := s.store.GetImportLog(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if rec.ErrorReportFile == "" {
		s.respondError(w, r, fmt.Errorf("import %d has no error report: %w", id, catalog.ErrNotFound))
		return
	}

	// The stored name is a bare file name; Base guards against a
	// tampered record pointing outside the reports directory.
	name := filepath.Base(rec.ErrorReportFile)
	path := filepath.Join(s.cfg.Storage.ReportsDir, name)
	if _, err := os.Stat(path); err != nil {
		s.respondError(w, r, fmt.Errorf("error report %s: %w", name, catalog.ErrNotFound))
		return
	}

	serveAttachment(w, r, path, name)
}

// serveAttachment streams a generated workbook as a download.
func serveAttachment(w http.ResponseWriter, r *http.Request, path, name string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	http.ServeFile(w, r, path)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
