// Package web provides the HTTP API of the catalog service: spreadsheet
// imports, export feed downloads, analytics queries, and product CRUD.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mpstock/catalog/internal/analytics"
	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/config"
	mw "github.com/mpstock/catalog/internal/web/middleware"
)

// ImportService runs one spreadsheet import end to end.
type ImportService interface {
	Run(ctx context.Context, source, filename string, data []byte) (catalog.ImportLog, error)
}

// ExportService generates spreadsheet files and returns their paths.
type ExportService interface {
	MarketplaceFeed(ctx context.Context, marketplace catalog.Marketplace) (string, error)
	FullCatalog(ctx context.Context) (string, error)
}

// AnalyticsService computes and queries derived product metrics.
type AnalyticsService interface {
	RecalculateAll(ctx context.Context) (analytics.Summary, error)
	CategorySummary(ctx context.Context) (map[string]int, error)
	LowStock(ctx context.Context, threshold int) ([]analytics.LowStockProduct, error)
	HighMargin(ctx context.Context, minPercent float64) ([]analytics.HighMarginProduct, error)
}

// Server is the HTTP server for the catalog service.
type Server struct {
	cfg       *config.Config
	store     catalog.Store
	imports   ImportService
	exports   ExportService
	analytics AnalyticsService
	router    *chi.Mux
	server    *http.Server
}

// NewServer wires the services into a configured router.
func NewServer(cfg *config.Config, store catalog.Store, imports ImportService, exports ExportService, analytics AnalyticsService) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		imports:   imports,
		exports:   exports,
		analytics: analytics,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Spreadsheet imports
		r.Post("/imports/{source}", s.handleImport)
		r.Get("/imports/sources", s.handleImportSources)
		r.Get("/imports/logs", s.handleImportLogs)
		r.Get("/imports/logs/{id}", s.handleImportLog)
		r.Get("/imports/logs/{id}/report", s.handleImportReport)

		// Export feeds
		r.Get("/exports/full", s.handleExportFull)
		r.Get("/exports/{marketplace}", s.handleExportFeed)

		// Analytics
		r.Post("/calculations/recalculate", s.handleRecalculate)
		r.Get("/calculations/summary", s.handleCategorySummary)
		r.Get("/calculations/low-stock", s.handleLowStock)
		r.Get("/calculations/high-margin", s.handleHighMargin)

		// Products
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{barcode}", s.handleGetProduct)
		r.Delete("/products/{barcode}", s.handleDeleteProduct)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
