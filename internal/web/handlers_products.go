package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mpstock/catalog/internal/catalog"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	limit := parseIntParam(r, "limit", 50)
	offset := parseIntParam(r, "offset", 0)

	products, err := s.store.ListProducts(r.Context(), search, limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// productDetail is a product with its listings and analytics.
type productDetail struct {
	Product  catalog.Product     `json:"product"`
	Listings []catalog.Listing   `json:"listings"`
	Calc     *catalog.Calculated `json:"calc,omitempty"`
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")

	product, err := s.store.GetProduct(r.Context(), barcode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	listings, err := s.store.GetListings(r.Context(), barcode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	calc, err := s.store.GetCalculated(r.Context(), barcode)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productDetail{
		Product:  *product,
		Listings: listings,
		Calc:     calc,
	})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")

	if err := s.store.DeleteProduct(r.Context(), barcode); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
