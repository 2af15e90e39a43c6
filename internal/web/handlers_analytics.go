package web

import (
	"net/http"
	"strconv"
)

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.RecalculateAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.CategorySummary(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := parseIntParam(r, "threshold", 10)

	products, err := s.analytics.LowStock(r.Context(), threshold)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleHighMargin(w http.ResponseWriter, r *http.Request) {
	minPercent := 30.0
	if v := r.URL.Query().Get("min_percent"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.badRequest(w, r, "invalid min_percent")
			return
		}
		minPercent = f
	}

	products, err := s.analytics.HighMargin(r.Context(), minPercent)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}
