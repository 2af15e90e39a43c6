// Package analytics derives pricing and inventory metrics from the
// catalog: per-product margin against the best marketplace price, ABC
// classification by share of inventory value, and screening queries for
// low-stock and high-margin products.
package analytics

import (
	"context"
	"errors"
	"sort"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/logging"
)

// Store is the slice of the catalog store this package reads and writes.
type Store interface {
	ListCatalog(ctx context.Context) ([]catalog.Entry, error)
	GetCalculated(ctx context.Context, barcode string) (*catalog.Calculated, error)
	UpsertCalculated(ctx context.Context, calc catalog.Calculated) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Stats summarizes one recalculation pass.
type Stats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Summary is the combined result of a full recalculation.
type Summary struct {
	Margins Stats `json:"margins"`
	ABC     Stats `json:"abc_categories"`
}

// Margin computes the markup of a product against its best marketplace
// price: max current price across listings minus purchase price. Reports
// ok=false when the product has no purchase price or no priced listing.
func Margin(p catalog.Product, listings []*catalog.Listing) (margin, percent float64, ok bool) {
	if p.PurchasePrice <= 0 {
		return 0, 0, false
	}

	maxPrice := 0.0
	for _, l := range listings {
		if l != nil && l.CurrentPrice > maxPrice {
			maxPrice = l.CurrentPrice
		}
	}
	if maxPrice == 0 {
		return 0, 0, false
	}

	margin = maxPrice - p.PurchasePrice
	percent = margin / p.PurchasePrice * 100
	return margin, percent, true
}

// Turnover is a stub: real turnover needs sales history, which the
// system does not ingest yet.
//
// TODO: compute sales-per-period / average stock once a sales history
// feed exists.
func Turnover(p catalog.Product) float64 {
	return 0.0
}

// ABCCategories classifies products by cumulative share of inventory
// value (purchase price × total stock), descending: the first 80% of
// value is category A, the next 15% B, the tail C. Products without a
// price or stock are left out of the classification.
func ABCCategories(entries []catalog.Entry) map[string]string {
	type item struct {
		barcode string
		value   float64
	}

	var items []item
	total := 0.0
	for _, e := range entries {
		p := e.Product
		if p.PurchasePrice <= 0 || p.StockTotal <= 0 {
			continue
		}
		v := p.PurchasePrice * float64(p.StockTotal)
		items = append(items, item{barcode: p.Barcode, value: v})
		total += v
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].value != items[j].value {
			return items[i].value > items[j].value
		}
		return items[i].barcode < items[j].barcode
	})

	thresholdA := total * 0.8
	thresholdB := total * 0.95

	out := make(map[string]string, len(items))
	cumulative := 0.0
	for _, it := range items {
		cumulative += it.value
		switch {
		case cumulative <= thresholdA:
			out[it.barcode] = "A"
		case cumulative <= thresholdB:
			out[it.barcode] = "B"
		default:
			out[it.barcode] = "C"
		}
	}
	return out
}

// RecalculateMargins recomputes margin fields for every product.
// Products without enough data count as failed in the stats but keep
// their existing record untouched.
func (s *Service) RecalculateMargins(ctx context.Context) (Stats, error) {
	entries, err := s.store.ListCatalog(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(entries)}
	for _, e := range entries {
		margin, percent, ok := Margin(e.Product, []*catalog.Listing{e.WB, e.Ozon})
		if !ok {
			stats.Failed++
			continue
		}

		calc, err := s.existingCalc(ctx, e.Product.Barcode)
		if err != nil {
			return stats, err
		}
		calc.Margin = margin
		calc.MarginPercent = percent
		calc.TurnoverRate = Turnover(e.Product)
		if err := s.store.UpsertCalculated(ctx, calc); err != nil {
			return stats, err
		}
		stats.Success++
	}
	return stats, nil
}

// RecalculateABC reclassifies every priced, stocked product.
func (s *Service) RecalculateABC(ctx context.Context) (Stats, error) {
	entries, err := s.store.ListCatalog(ctx)
	if err != nil {
		return Stats{}, err
	}

	categories := ABCCategories(entries)
	stats := Stats{Total: len(categories)}
	for barcode, category := range categories {
		calc, err := s.existingCalc(ctx, barcode)
		if err != nil {
			return stats, err
		}
		calc.ABCCategory = category
		if err := s.store.UpsertCalculated(ctx, calc); err != nil {
			return stats, err
		}
		stats.Success++
	}
	return stats, nil
}

// RecalculateAll runs both passes and returns their combined stats.
func (s *Service) RecalculateAll(ctx context.Context) (Summary, error) {
	log := logging.FromContext(ctx)

	margins, err := s.RecalculateMargins(ctx)
	if err != nil {
		return Summary{}, err
	}
	abc, err := s.RecalculateABC(ctx)
	if err != nil {
		return Summary{Margins: margins}, err
	}

	log.Info("analytics recalculated",
		"margin_success", margins.Success,
		"margin_failed", margins.Failed,
		"abc_classified", abc.Success,
	)
	return Summary{Margins: margins, ABC: abc}, nil
}

// CategorySummary counts products per ABC category.
func (s *Service) CategorySummary(ctx context.Context) (map[string]int, error) {
	entries, err := s.store.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for _, e := range entries {
		if e.Calc != nil && e.Calc.ABCCategory != "" {
			out[e.Calc.ABCCategory]++
		}
	}
	return out, nil
}

// LowStockProduct is one row of the low-stock screen.
type LowStockProduct struct {
	Barcode    string `json:"barcode"`
	Name       string `json:"name"`
	Brand      string `json:"brand"`
	StockTotal int    `json:"stock_total"`
}

// LowStock lists products whose remaining stock is positive but at or
// below the threshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error) {
	entries, err := s.store.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	var out []LowStockProduct
	for _, e := range entries {
		p := e.Product
		if p.StockTotal > 0 && p.StockTotal <= threshold {
			out = append(out, LowStockProduct{
				Barcode:    p.Barcode,
				Name:       p.Name,
				Brand:      p.Brand,
				StockTotal: p.StockTotal,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Barcode < out[j].Barcode })
	return out, nil
}

// HighMarginProduct is one row of the high-margin screen.
type HighMarginProduct struct {
	Barcode       string  `json:"barcode"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"margin_percent"`
}

// HighMargin lists products whose computed margin percent meets the
// minimum.
func (s *Service) HighMargin(ctx context.Context, minPercent float64) ([]HighMarginProduct, error) {
	entries, err := s.store.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	var out []HighMarginProduct
	for _, e := range entries {
		if e.Calc == nil || e.Calc.MarginPercent < minPercent {
			continue
		}
		out = append(out, HighMarginProduct{
			Barcode:       e.Product.Barcode,
			Name:          e.Product.Name,
			Brand:         e.Product.Brand,
			Margin:        e.Calc.Margin,
			MarginPercent: e.Calc.MarginPercent,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarginPercent > out[j].MarginPercent })
	return out, nil
}

func (s *Service) existingCalc(ctx context.Context, barcode string) (catalog.Calculated, error) {
	existing, err := s.store.GetCalculated(ctx, barcode)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Calculated{Barcode: barcode}, nil
	}
	if err != nil {
		return catalog.Calculated{}, err
	}
	return *existing, nil
}
