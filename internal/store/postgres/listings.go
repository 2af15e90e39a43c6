package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mpstock/catalog/internal/catalog"
)

const listingColumns = `id, barcode, marketplace, article, external_id, sku,
	price_before_discount, current_price, discount_percent, min_price, updated_at`

func scanListing(row pgx.Row) (*catalog.Listing, error) {
	var l catalog.Listing
	err := row.Scan(
		&l.ID, &l.Barcode, &l.Marketplace, &l.Article, &l.ExternalID, &l.SKU,
		&l.PriceBeforeDiscount, &l.CurrentPrice, &l.DiscountPercent,
		&l.MinPrice, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func getListing(ctx context.Context, db DBTX, barcode string, mp catalog.Marketplace) (*catalog.Listing, error) {
	row := db.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM marketplace_data
		 WHERE barcode = $1 AND marketplace = $2`, barcode, mp)
	return scanListing(row)
}

// getListingByExternalID picks the oldest match when external ids are
// duplicated across listings.
func getListingByExternalID(ctx context.Context, db DBTX, mp catalog.Marketplace, externalID string) (*catalog.Listing, error) {
	row := db.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM marketplace_data
		 WHERE marketplace = $1 AND external_id = $2
		 ORDER BY id LIMIT 1`, mp, externalID)
	return scanListing(row)
}

func createListing(ctx context.Context, db DBTX, l catalog.Listing) error {
	_, err := db.Exec(ctx, `
		INSERT INTO marketplace_data (
			barcode, marketplace, article, external_id, sku,
			price_before_discount, current_price, discount_percent, min_price
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		l.Barcode, l.Marketplace, l.Article, l.ExternalID, l.SKU,
		l.PriceBeforeDiscount, l.CurrentPrice, l.DiscountPercent, l.MinPrice,
	)
	return err
}

func updateListing(ctx context.Context, db DBTX, l catalog.Listing) error {
	tag, err := db.Exec(ctx, `
		UPDATE marketplace_data SET
			article = $3, external_id = $4, sku = $5,
			price_before_discount = $6, current_price = $7,
			discount_percent = $8, min_price = $9, updated_at = now()
		WHERE barcode = $1 AND marketplace = $2`,
		l.Barcode, l.Marketplace, l.Article, l.ExternalID, l.SKU,
		l.PriceBeforeDiscount, l.CurrentPrice, l.DiscountPercent, l.MinPrice,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// GetListings returns all marketplace listings of one product.
func (s *Store) GetListings(ctx context.Context, barcode string) ([]catalog.Listing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM marketplace_data
		 WHERE barcode = $1 ORDER BY marketplace`, barcode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// ListFeed joins in-stock products with their listing on one marketplace.
func (s *Store) ListFeed(ctx context.Context, mp catalog.Marketplace) ([]catalog.FeedItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			p.barcode, p.article_1c, p.name, p.unit, p.brand, p.product_type,
			p.product_category, p.collection, p.season, p.size, p.stock_main,
			p.stock_soft, p.stock_far, p.stock_total, p.purchase_price,
			m.id, m.article, m.external_id, m.sku, m.price_before_discount,
			m.current_price, m.discount_percent, m.min_price
		FROM products p
		JOIN marketplace_data m ON m.barcode = p.barcode AND m.marketplace = $1
		WHERE p.stock_total > 0
		ORDER BY p.barcode`, mp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.FeedItem
	for rows.Next() {
		var it catalog.FeedItem
		err := rows.Scan(
			&it.Product.Barcode, &it.Product.Article1C, &it.Product.Name,
			&it.Product.Unit, &it.Product.Brand, &it.Product.ProductType,
			&it.Product.ProductCategory, &it.Product.Collection,
			&it.Product.Season, &it.Product.Size, &it.Product.StockMain,
			&it.Product.StockSoft, &it.Product.StockFar,
			&it.Product.StockTotal, &it.Product.PurchasePrice,
			&it.Listing.ID, &it.Listing.Article, &it.Listing.ExternalID,
			&it.Listing.SKU, &it.Listing.PriceBeforeDiscount,
			&it.Listing.CurrentPrice, &it.Listing.DiscountPercent,
			&it.Listing.MinPrice,
		)
		if err != nil {
			return nil, err
		}
		it.Listing.Barcode = it.Product.Barcode
		it.Listing.Marketplace = mp
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListCatalog assembles the full projection: every product with its
// listings and analytics. Fetched as three scans and joined in memory,
// which keeps the queries trivial at catalog sizes of tens of thousands.
func (s *Store) ListCatalog(ctx context.Context) ([]catalog.Entry, error) {
	products, err := s.ListProducts(ctx, "", 1<<30, 0)
	if err != nil {
		return nil, err
	}

	listings, err := s.allListings(ctx)
	if err != nil {
		return nil, err
	}
	calcs, err := s.allCalculated(ctx)
	if err != nil {
		return nil, err
	}

	byBarcode := make(map[string]map[catalog.Marketplace]*catalog.Listing, len(listings))
	for i := range listings {
		l := &listings[i]
		if byBarcode[l.Barcode] == nil {
			byBarcode[l.Barcode] = make(map[catalog.Marketplace]*catalog.Listing, 2)
		}
		byBarcode[l.Barcode][l.Marketplace] = l
	}
	calcByBarcode := make(map[string]*catalog.Calculated, len(calcs))
	for i := range calcs {
		calcByBarcode[calcs[i].Barcode] = &calcs[i]
	}

	out := make([]catalog.Entry, 0, len(products))
	for _, p := range products {
		e := catalog.Entry{Product: p}
		if mps := byBarcode[p.Barcode]; mps != nil {
			e.WB = mps[catalog.MarketplaceWB]
			e.Ozon = mps[catalog.MarketplaceOzon]
		}
		e.Calc = calcByBarcode[p.Barcode]
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) allListings(ctx context.Context) ([]catalog.Listing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM marketplace_data ORDER BY barcode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
