package web

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/mpstock/catalog/internal/catalog"
)

// handleExportFeed generates the price/stock feed for one marketplace
// and serves the workbook as a download.
func (s *Server) handleExportFeed(w http.ResponseWriter, r *http.Request) {
	mp := catalog.Marketplace(chi.URLParam(r, "marketplace"))
	if !mp.Valid() {
		s.badRequest(w, r, "unknown marketplace: "+string(mp))
		return
	}

	path, err := s.exports.MarketplaceFeed(r.Context(), mp)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	serveAttachment(w, r, path, filepath.Base(path))
}

// handleExportFull generates the full catalog workbook.
func (s *Server) handleExportFull(w http.ResponseWriter, r *http.Request) {
	path, err := s.exports.FullCatalog(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	serveAttachment(w, r, path, filepath.Base(path))
}
