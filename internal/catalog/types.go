// Package catalog defines the domain model for the product catalog:
// products keyed by barcode, their per-marketplace listings, derived
// analytics, and the import audit log. Storage backends implement the
// Store and Tx interfaces declared in store.go.
package catalog

import "time"

// Marketplace identifies one of the two supported marketplaces.
type Marketplace string

const (
	MarketplaceWB   Marketplace = "wb"
	MarketplaceOzon Marketplace = "ozon"
)

// Valid reports whether m is one of the known marketplaces.
func (m Marketplace) Valid() bool {
	return m == MarketplaceWB || m == MarketplaceOzon
}

// ImportStatus is the outcome classification of one import call.
type ImportStatus string

const (
	StatusSuccess ImportStatus = "success"
	StatusPartial ImportStatus = "partial"
	StatusFailed  ImportStatus = "failed"
)

// Product is the unified per-product record built from ERP imports.
// Barcode is the primary key; stock counts come from the three warehouse
// columns of the ERP export and StockTotal is always their sum.
type Product struct {
	Barcode         string         `json:"barcode"`
	Article1C       string         `json:"article_1c"`
	Name            string         `json:"name"`
	Unit            string         `json:"unit"`
	Brand           string         `json:"brand"`
	ProductType     string         `json:"product_type"`
	ProductCategory string         `json:"product_category"`
	Collection      string         `json:"collection"`
	Season          string         `json:"season"`
	Size            string         `json:"size"`
	StockMain       int            `json:"stock_main"`
	StockSoft       int            `json:"stock_soft"`
	StockFar        int            `json:"stock_far"`
	StockTotal      int            `json:"stock_total"`
	PurchasePrice   float64        `json:"purchase_price"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Listing is a product's presence on one marketplace. At most one listing
// exists per (barcode, marketplace) pair; the store enforces uniqueness.
type Listing struct {
	ID                  int64       `json:"id"`
	Barcode             string      `json:"barcode"`
	Marketplace         Marketplace `json:"marketplace"`
	Article             string      `json:"article"`
	ExternalID          string      `json:"external_id"`
	SKU                 string      `json:"sku"`
	PriceBeforeDiscount float64     `json:"price_before_discount"`
	CurrentPrice        float64     `json:"current_price"`
	DiscountPercent     float64     `json:"discount_percent"`
	MinPrice            float64     `json:"min_price"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// Calculated holds derived pricing/inventory analytics for one product.
// TurnoverRate stays zero until sales history becomes available.
type Calculated struct {
	Barcode       string    `json:"barcode"`
	Margin        float64   `json:"margin"`
	MarginPercent float64   `json:"margin_percent"`
	TurnoverRate  float64   `json:"turnover_rate"`
	ABCCategory   string    `json:"abc_category"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ImportLog is the persisted audit record of one import attempt.
// Written once, never updated.
type ImportLog struct {
	ID              int64        `json:"id"`
	Source          string       `json:"source"`
	FileName        string       `json:"file_name"`
	Processed       int          `json:"processed"`
	Added           int          `json:"added"`
	Updated         int          `json:"updated"`
	Failed          int          `json:"failed"`
	Status          ImportStatus `json:"status"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	ErrorReportFile string       `json:"error_report_file,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// FeedItem is one row of a marketplace export feed: a product joined with
// its listing on that marketplace. Only in-stock products are fed.
type FeedItem struct {
	Product Product `json:"product"`
	Listing Listing `json:"listing"`
}

// Entry is one row of the full catalog projection: a product with its
// optional listings and analytics.
type Entry struct {
	Product Product     `json:"product"`
	WB      *Listing    `json:"wb,omitempty"`
	Ozon    *Listing    `json:"ozon,omitempty"`
	Calc    *Calculated `json:"calc,omitempty"`
}
