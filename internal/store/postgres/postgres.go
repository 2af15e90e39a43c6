// Package postgres implements the catalog store on PostgreSQL via pgx.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpstock/catalog/internal/catalog"
)

//go:embed schema.sql
var schema string

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Store implements catalog.Store against a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema applies the embedded schema. All statements are
// idempotent, so this runs on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Begin opens the transaction that scopes one import call.
func (s *Store) Begin(ctx context.Context) (catalog.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx implements catalog.Tx on a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *Tx) GetProduct(ctx context.Context, barcode string) (*catalog.Product, error) {
	return getProduct(ctx, t.tx, barcode)
}

func (t *Tx) CreateProduct(ctx context.Context, p catalog.Product) error {
	return createProduct(ctx, t.tx, p)
}

func (t *Tx) UpdateProduct(ctx context.Context, p catalog.Product) error {
	return updateProduct(ctx, t.tx, p)
}

func (t *Tx) GetListing(ctx context.Context, barcode string, mp catalog.Marketplace) (*catalog.Listing, error) {
	return getListing(ctx, t.tx, barcode, mp)
}

func (t *Tx) GetListingByExternalID(ctx context.Context, mp catalog.Marketplace, externalID string) (*catalog.Listing, error) {
	return getListingByExternalID(ctx, t.tx, mp, externalID)
}

func (t *Tx) CreateListing(ctx context.Context, l catalog.Listing) error {
	return createListing(ctx, t.tx, l)
}

func (t *Tx) UpdateListing(ctx context.Context, l catalog.Listing) error {
	return updateListing(ctx, t.tx, l)
}
