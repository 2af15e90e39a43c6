package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups when the requested record does not
// exist. Row-level handling in the import pipeline and 404 mapping in the
// web layer both key off this sentinel.
var ErrNotFound = errors.New("not found")

// Store is the persistent catalog store. Begin opens a transaction that
// scopes one import call; the read-side methods run against the pool
// directly.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	GetProduct(ctx context.Context, barcode string) (*Product, error)
	ListProducts(ctx context.Context, search string, limit, offset int) ([]Product, error)
	DeleteProduct(ctx context.Context, barcode string) error

	GetListings(ctx context.Context, barcode string) ([]Listing, error)
	GetCalculated(ctx context.Context, barcode string) (*Calculated, error)
	UpsertCalculated(ctx context.Context, calc Calculated) error

	ListFeed(ctx context.Context, marketplace Marketplace) ([]FeedItem, error)
	ListCatalog(ctx context.Context) ([]Entry, error)

	InsertImportLog(ctx context.Context, log ImportLog) (ImportLog, error)
	ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error)
	GetImportLog(ctx context.Context, id int64) (*ImportLog, error)
}

// Tx is the mutation scope of a single import call. All row upserts of one
// import run inside one Tx; Commit publishes them atomically, Rollback
// discards them. Lookups inside the Tx observe its own writes.
type Tx interface {
	GetProduct(ctx context.Context, barcode string) (*Product, error)
	CreateProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error

	GetListing(ctx context.Context, barcode string, marketplace Marketplace) (*Listing, error)
	GetListingByExternalID(ctx context.Context, marketplace Marketplace, externalID string) (*Listing, error)
	CreateListing(ctx context.Context, l Listing) error
	UpdateListing(ctx context.Context, l Listing) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
