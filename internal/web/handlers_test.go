package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mpstock/catalog/internal/analytics"
	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/config"
	"github.com/mpstock/catalog/internal/imports"
)

// fakeStore implements the read side the handlers touch. The embedded
// interface panics on anything a test did not expect to be called.
type fakeStore struct {
	catalog.Store

	products map[string]*catalog.Product
	listings map[string][]catalog.Listing
	calcs    map[string]*catalog.Calculated
	logs     []catalog.ImportLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[string]*catalog.Product),
		listings: make(map[string][]catalog.Listing),
		calcs:    make(map[string]*catalog.Calculated),
	}
}

func (s *fakeStore) GetProduct(_ context.Context, barcode string) (*catalog.Product, error) {
	p, ok := s.products[barcode]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) ListProducts(_ context.Context, search string, limit, offset int) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range s.products {
		if search == "" || strings.Contains(p.Name, search) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteProduct(_ context.Context, barcode string) error {
	if _, ok := s.products[barcode]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.products, barcode)
	return nil
}

func (s *fakeStore) GetListings(_ context.Context, barcode string) ([]catalog.Listing, error) {
	return s.listings[barcode], nil
}

func (s *fakeStore) GetCalculated(_ context.Context, barcode string) (*catalog.Calculated, error) {
	c, ok := s.calcs[barcode]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) ListImportLogs(_ context.Context, limit int) ([]catalog.ImportLog, error) {
	if limit < len(s.logs) {
		return s.logs[:limit], nil
	}
	return s.logs, nil
}

func (s *fakeStore) GetImportLog(_ context.Context, id int64) (*catalog.ImportLog, error) {
	for i := range s.logs {
		if s.logs[i].ID == id {
			return &s.logs[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

type fakeImports struct {
	rec catalog.ImportLog
	err error

	gotSource   string
	gotFilename string
	gotData     []byte
}

func (f *fakeImports) Run(_ context.Context, source, filename string, data []byte) (catalog.ImportLog, error) {
	f.gotSource = source
	f.gotFilename = filename
	f.gotData = data
	if f.err != nil {
		return catalog.ImportLog{}, f.err
	}
	return f.rec, nil
}

type fakeExports struct {
	path string
	err  error

	gotMarketplace catalog.Marketplace
}

func (f *fakeExports) MarketplaceFeed(_ context.Context, mp catalog.Marketplace) (string, error) {
	f.gotMarketplace = mp
	return f.path, f.err
}

func (f *fakeExports) FullCatalog(context.Context) (string, error) {
	return f.path, f.err
}

type fakeAnalytics struct {
	summary    analytics.Summary
	categories map[string]int
	lowStock   []analytics.LowStockProduct
	highMargin []analytics.HighMarginProduct

	gotThreshold  int
	gotMinPercent float64
}

func (f *fakeAnalytics) RecalculateAll(context.Context) (analytics.Summary, error) {
	return f.summary, nil
}

func (f *fakeAnalytics) CategorySummary(context.Context) (map[string]int, error) {
	return f.categories, nil
}

func (f *fakeAnalytics) LowStock(_ context.Context, threshold int) ([]analytics.LowStockProduct, error) {
	f.gotThreshold = threshold
	return f.lowStock, nil
}

func (f *fakeAnalytics) HighMargin(_ context.Context, minPercent float64) ([]analytics.HighMarginProduct, error) {
	f.gotMinPercent = minPercent
	return f.highMargin, nil
}

type testEnv struct {
	server    *Server
	store     *fakeStore
	imports   *fakeImports
	exports   *fakeExports
	analytics *fakeAnalytics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Upload.MaxFileSize = 10 << 20
	cfg.Storage.ReportsDir = t.TempDir()

	env := &testEnv{
		store:     newFakeStore(),
		imports:   &fakeImports{},
		exports:   &fakeExports{},
		analytics: &fakeAnalytics{},
	}
	env.server = NewServer(cfg, env.store, env.imports, env.exports, env.analytics)
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rr, req)
	return rr
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestImportUpload(t *testing.T) {
	env := newTestEnv(t)
	env.imports.rec = catalog.ImportLog{
		ID: 7, Source: "1c", FileName: "stock.xlsx",
		Processed: 3, Added: 2, Updated: 1,
		Status: catalog.StatusSuccess,
	}

	body, contentType := multipartBody(t, "stock.xlsx", []byte("workbook bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/imports/1c", body)
	req.Header.Set("Content-Type", contentType)

	rr := env.do(t, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if env.imports.gotSource != "1c" || env.imports.gotFilename != "stock.xlsx" {
		t.Errorf("service got (%q, %q)", env.imports.gotSource, env.imports.gotFilename)
	}
	if string(env.imports.gotData) != "workbook bytes" {
		t.Errorf("service got data %q", env.imports.gotData)
	}

	var rec catalog.ImportLog
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != 7 || rec.Status != catalog.StatusSuccess {
		t.Errorf("record = %+v", rec)
	}
}

func TestImportUploadWithoutFile(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/imports/1c", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := env.do(t, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestImportUnknownSourceIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	env.imports.err = fmt.Errorf("%w: bogus", imports.ErrUnknownSource)

	body, contentType := multipartBody(t, "x.xlsx", []byte("data"))
	req := httptest.NewRequest(http.MethodPost, "/api/imports/bogus", body)
	req.Header.Set("Content-Type", contentType)

	rr := env.do(t, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestImportSources(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/sources", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var sources []sourceInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &sources); err != nil {
		t.Fatal(err)
	}
	tags := make(map[string]bool)
	for _, s := range sources {
		tags[s.Tag] = true
	}
	for _, want := range []string{"1c", "wb_barcodes", "wb_prices", "wb_min_prices", "ozon_barcodes", "ozon_prices"} {
		if !tags[want] {
			t.Errorf("source %q not listed", want)
		}
	}
}

func TestImportLogNotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/logs/42", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestImportReportDownload(t *testing.T) {
	env := newTestEnv(t)

	name := "errors_1c_20240101_120000.xlsx"
	path := filepath.Join(env.server.cfg.Storage.ReportsDir, name)
	if err := os.WriteFile(path, []byte("report"), 0o644); err != nil {
		t.Fatal(err)
	}
	env.store.logs = []catalog.ImportLog{{ID: 1, Source: "1c", Status: catalog.StatusPartial, ErrorReportFile: name}}

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/logs/1/report", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, name) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rr.Body.String() != "report" {
		t.Errorf("body = %q", rr.Body)
	}
}

func TestImportReportMissingIs404(t *testing.T) {
	env := newTestEnv(t)
	env.store.logs = []catalog.ImportLog{{ID: 1, Source: "1c", Status: catalog.StatusSuccess}}

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/logs/1/report", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestExportFeed(t *testing.T) {
	env := newTestEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "export_wb_20240101_120000.xlsx")
	if err := os.WriteFile(path, []byte("feed"), 0o644); err != nil {
		t.Fatal(err)
	}
	env.exports.path = path

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/exports/wb", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if env.exports.gotMarketplace != catalog.MarketplaceWB {
		t.Errorf("marketplace = %q", env.exports.gotMarketplace)
	}
	if ct := rr.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestExportFeedUnknownMarketplace(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/exports/amazon", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestRecalculate(t *testing.T) {
	env := newTestEnv(t)
	env.analytics.summary = analytics.Summary{
		Margins: analytics.Stats{Total: 10, Success: 8, Failed: 2},
		ABC:     analytics.Stats{Total: 8, Success: 8},
	}

	rr := env.do(t, httptest.NewRequest(http.MethodPost, "/api/calculations/recalculate", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var summary analytics.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Margins.Success != 8 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestLowStockThreshold(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/calculations/low-stock?threshold=3", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if env.analytics.gotThreshold != 3 {
		t.Errorf("threshold = %d, want 3", env.analytics.gotThreshold)
	}
}

func TestHighMarginDefaultPercent(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/calculations/high-margin", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if env.analytics.gotMinPercent != 30.0 {
		t.Errorf("min percent = %v, want 30", env.analytics.gotMinPercent)
	}
}

func TestGetProductWithListings(t *testing.T) {
	env := newTestEnv(t)
	env.store.products["4600001"] = &catalog.Product{Barcode: "4600001", Name: "Носки"}
	env.store.listings["4600001"] = []catalog.Listing{
		{Barcode: "4600001", Marketplace: catalog.MarketplaceWB, CurrentPrice: 500},
	}

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/products/4600001", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}

	var detail productDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Product.Name != "Носки" || len(detail.Listings) != 1 {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Calc != nil {
		t.Errorf("calc should be absent, got %+v", detail.Calc)
	}
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/products/0000000", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	env.store.products["4600001"] = &catalog.Product{Barcode: "4600001"}

	rr := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/products/4600001", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if _, ok := env.store.products["4600001"]; ok {
		t.Error("product still present")
	}
}
