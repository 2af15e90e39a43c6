package imports

import (
	"context"
	"fmt"
	"time"

	"github.com/mpstock/catalog/internal/catalog"
)

// memStore is an in-memory catalog.Store for pipeline tests. Begin hands
// out a transaction working on copies of the maps; Commit swaps them in,
// so a rolled-back import leaves the store untouched.
type memStore struct {
	products map[string]catalog.Product
	listings map[string]catalog.Listing
	calcs    map[string]catalog.Calculated
	logs     []catalog.ImportLog
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]catalog.Product),
		listings: make(map[string]catalog.Listing),
		calcs:    make(map[string]catalog.Calculated),
	}
}

func lkey(barcode string, mp catalog.Marketplace) string {
	return barcode + "|" + string(mp)
}

func (m *memStore) seedProduct(p catalog.Product) {
	m.products[p.Barcode] = p
}

func (m *memStore) seedListing(l catalog.Listing) {
	m.nextID++
	l.ID = m.nextID
	m.listings[lkey(l.Barcode, l.Marketplace)] = l
}

func (m *memStore) Begin(ctx context.Context) (catalog.Tx, error) {
	tx := &memTx{store: m,
		products: make(map[string]catalog.Product, len(m.products)),
		listings: make(map[string]catalog.Listing, len(m.listings)),
	}
	for k, v := range m.products {
		tx.products[k] = v
	}
	for k, v := range m.listings {
		tx.listings[k] = v
	}
	return tx, nil
}

func (m *memStore) GetProduct(ctx context.Context, barcode string) (*catalog.Product, error) {
	p, ok := m.products[barcode]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) ListProducts(ctx context.Context, search string, limit, offset int) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) DeleteProduct(ctx context.Context, barcode string) error {
	if _, ok := m.products[barcode]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.products, barcode)
	for k, l := range m.listings {
		if l.Barcode == barcode {
			delete(m.listings, k)
		}
	}
	delete(m.calcs, barcode)
	return nil
}

func (m *memStore) GetListings(ctx context.Context, barcode string) ([]catalog.Listing, error) {
	var out []catalog.Listing
	for _, l := range m.listings {
		if l.Barcode == barcode {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) GetCalculated(ctx context.Context, barcode string) (*catalog.Calculated, error) {
	c, ok := m.calcs[barcode]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) UpsertCalculated(ctx context.Context, calc catalog.Calculated) error {
	m.calcs[calc.Barcode] = calc
	return nil
}

func (m *memStore) ListFeed(ctx context.Context, mp catalog.Marketplace) ([]catalog.FeedItem, error) {
	var out []catalog.FeedItem
	for _, p := range m.products {
		if p.StockTotal <= 0 {
			continue
		}
		if l, ok := m.listings[lkey(p.Barcode, mp)]; ok {
			out = append(out, catalog.FeedItem{Product: p, Listing: l})
		}
	}
	return out, nil
}

func (m *memStore) ListCatalog(ctx context.Context) ([]catalog.Entry, error) {
	var out []catalog.Entry
	for _, p := range m.products {
		e := catalog.Entry{Product: p}
		if l, ok := m.listings[lkey(p.Barcode, catalog.MarketplaceWB)]; ok {
			e.WB = &l
		}
		if l, ok := m.listings[lkey(p.Barcode, catalog.MarketplaceOzon)]; ok {
			e.Ozon = &l
		}
		if c, ok := m.calcs[p.Barcode]; ok {
			e.Calc = &c
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) InsertImportLog(ctx context.Context, log catalog.ImportLog) (catalog.ImportLog, error) {
	m.nextID++
	log.ID = m.nextID
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, log)
	return log, nil
}

func (m *memStore) ListImportLogs(ctx context.Context, limit int) ([]catalog.ImportLog, error) {
	out := make([]catalog.ImportLog, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *memStore) GetImportLog(ctx context.Context, id int64) (*catalog.ImportLog, error) {
	for _, l := range m.logs {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, catalog.ErrNotFound
}

type memTx struct {
	store    *memStore
	products map[string]catalog.Product
	listings map[string]catalog.Listing
}

func (t *memTx) GetProduct(ctx context.Context, barcode string) (*catalog.Product, error) {
	p, ok := t.products[barcode]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (t *memTx) CreateProduct(ctx context.Context, p catalog.Product) error {
	if _, exists := t.products[p.Barcode]; exists {
		return fmt.Errorf("duplicate barcode %s", p.Barcode)
	}
	t.products[p.Barcode] = p
	return nil
}

func (t *memTx) UpdateProduct(ctx context.Context, p catalog.Product) error {
	if _, ok := t.products[p.Barcode]; !ok {
		return catalog.ErrNotFound
	}
	t.products[p.Barcode] = p
	return nil
}

func (t *memTx) GetListing(ctx context.Context, barcode string, mp catalog.Marketplace) (*catalog.Listing, error) {
	l, ok := t.listings[lkey(barcode, mp)]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &l, nil
}

func (t *memTx) GetListingByExternalID(ctx context.Context, mp catalog.Marketplace, externalID string) (*catalog.Listing, error) {
	for _, l := range t.listings {
		if l.Marketplace == mp && l.ExternalID == externalID {
			out := l
			return &out, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (t *memTx) CreateListing(ctx context.Context, l catalog.Listing) error {
	key := lkey(l.Barcode, l.Marketplace)
	if _, exists := t.listings[key]; exists {
		return fmt.Errorf("duplicate listing %s", key)
	}
	t.store.nextID++
	l.ID = t.store.nextID
	t.listings[key] = l
	return nil
}

func (t *memTx) UpdateListing(ctx context.Context, l catalog.Listing) error {
	key := lkey(l.Barcode, l.Marketplace)
	if _, ok := t.listings[key]; !ok {
		return catalog.ErrNotFound
	}
	t.listings[key] = l
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.store.products = t.products
	t.store.listings = t.listings
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	return nil
}
