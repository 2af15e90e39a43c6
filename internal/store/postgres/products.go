package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mpstock/catalog/internal/catalog"
)

const productColumns = `barcode, article_1c, name, unit, brand, product_type,
	product_category, collection, season, size, stock_main, stock_soft,
	stock_far, stock_total, purchase_price, metadata, created_at, updated_at`

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	var metadata []byte
	err := row.Scan(
		&p.Barcode, &p.Article1C, &p.Name, &p.Unit, &p.Brand, &p.ProductType,
		&p.ProductCategory, &p.Collection, &p.Season, &p.Size,
		&p.StockMain, &p.StockSoft, &p.StockFar, &p.StockTotal,
		&p.PurchasePrice, &metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("product %s metadata: %w", p.Barcode, err)
		}
	}
	return &p, nil
}

func getProduct(ctx context.Context, db DBTX, barcode string) (*catalog.Product, error) {
	row := db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE barcode = $1`, barcode)
	return scanProduct(row)
}

func createProduct(ctx context.Context, db DBTX, p catalog.Product) error {
	metadata, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
		INSERT INTO products (
			barcode, article_1c, name, unit, brand, product_type,
			product_category, collection, season, size, stock_main,
			stock_soft, stock_far, stock_total, purchase_price, metadata
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.Barcode, p.Article1C, p.Name, p.Unit, p.Brand, p.ProductType,
		p.ProductCategory, p.Collection, p.Season, p.Size, p.StockMain,
		p.StockSoft, p.StockFar, p.StockTotal, p.PurchasePrice, metadata,
	)
	return err
}

func updateProduct(ctx context.Context, db DBTX, p catalog.Product) error {
	metadata, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `
		UPDATE products SET
			article_1c = $2, name = $3, unit = $4, brand = $5,
			product_type = $6, product_category = $7, collection = $8,
			season = $9, size = $10, stock_main = $11, stock_soft = $12,
			stock_far = $13, stock_total = $14, purchase_price = $15,
			metadata = $16, updated_at = now()
		WHERE barcode = $1`,
		p.Barcode, p.Article1C, p.Name, p.Unit, p.Brand, p.ProductType,
		p.ProductCategory, p.Collection, p.Season, p.Size, p.StockMain,
		p.StockSoft, p.StockFar, p.StockTotal, p.PurchasePrice, metadata,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}

func (s *Store) GetProduct(ctx context.Context, barcode string) (*catalog.Product, error) {
	return getProduct(ctx, s.pool, barcode)
}

// ListProducts pages through the catalog, optionally filtering by a
// case-insensitive substring match on name, barcode, or ERP article.
func (s *Store) ListProducts(ctx context.Context, search string, limit, offset int) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR barcode ILIKE $1 OR article_1c ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY barcode LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DeleteProduct removes a product; listings and analytics cascade.
func (s *Store) DeleteProduct(ctx context.Context, barcode string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE barcode = $1`, barcode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
