package imports

import (
	"context"
	"errors"
	"strings"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/xlsxio"
)

func init() {
	Register(SourceDefinition{
		Tag:   "ozon_barcodes",
		Label: "ШК Ozon",
		// The portal template puts a cover sheet first and a grouped
		// two-row header on the data sheet.
		Sheet:      1,
		HeaderRow:  1,
		KeyColumns: []string{"ШК"},
		Process:    processOzonBarcodes,
	})
	Register(SourceDefinition{
		Tag:        "ozon_prices",
		Label:      "Цены Ozon",
		Sheet:      0,
		HeaderRow:  1,
		KeyColumns: []string{"ШК"},
		Process:    processOzonPrices,
	})
}

// Ozon templates insert explanatory filler rows under the header; a row
// whose article cell carries one of these fragments is vendor boilerplate,
// not data. Matched case-insensitively.
var ozonBoilerplateMarkers = []string{
	"не заполняйте",
	"обязательное поле",
	"заполняется автоматически",
}

func isBoilerplate(s string) bool {
	s = strings.ToLower(s)
	for _, marker := range ozonBoilerplateMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// processOzonBarcodes links products to their Ozon listings. This feed is
// the full portal catalog, which routinely references products outside
// the ERP assortment; unknown barcodes are skipped rather than failed.
func processOzonBarcodes(ctx context.Context, tx catalog.Tx, row xlsxio.Row) (Outcome, error) {
	article := row.Get("Артикул")
	if isBoilerplate(article) {
		return OutcomeSkipped, nil
	}

	barcode := row.Get("ШК")
	if barcode == "" {
		return OutcomeSkipped, &ValidationError{Column: "ШК", Reason: "barcode is required"}
	}

	if _, err := tx.GetProduct(ctx, barcode); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, err
	}

	externalID := row.Get("Ozon Product ID")

	listing, err := tx.GetListing(ctx, barcode, catalog.MarketplaceOzon)
	if errors.Is(err, catalog.ErrNotFound) {
		l := catalog.Listing{
			Barcode:     barcode,
			Marketplace: catalog.MarketplaceOzon,
			Article:     article,
			SKU:         article,
			ExternalID:  externalID,
		}
		if err := tx.CreateListing(ctx, l); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeAdded, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	listing.Article = article
	listing.SKU = article
	listing.ExternalID = externalID
	if err := tx.UpdateListing(ctx, *listing); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}

// processOzonPrices updates pricing on an existing Ozon listing. Each
// price field is written independently and only when its cell parsed;
// the row counts as updated only when at least one value changed.
func processOzonPrices(ctx context.Context, tx catalog.Tx, row xlsxio.Row) (Outcome, error) {
	if isBoilerplate(row.Get("Артикул")) || isBoilerplate(row.Get("ШК")) {
		return OutcomeSkipped, nil
	}

	barcode := row.Get("ШК")
	if barcode == "" {
		return OutcomeSkipped, &ValidationError{Column: "ШК", Reason: "barcode is required"}
	}

	listing, err := tx.GetListing(ctx, barcode, catalog.MarketplaceOzon)
	if errors.Is(err, catalog.ErrNotFound) {
		return OutcomeSkipped, &NotFoundError{Entity: "ozon listing", Key: barcode}
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	before, beforeOK := leadingNumber(row.Get("Цена до скидки"))
	current, currentOK := leadingNumber(row.Get("Текущая цена"))
	discount, discountOK := leadingNumber(row.Get("Скидка %"))
	minPrice, minOK := leadingNumber(row.Get("Минимальная цена"))

	// The portal omits the discount column on some report variants;
	// derive it from the two prices when possible.
	if !discountOK && beforeOK && currentOK && before != 0 {
		discount = round2((1 - current/before) * 100)
		discountOK = true
	}

	changed := false
	if beforeOK && listing.PriceBeforeDiscount != before {
		listing.PriceBeforeDiscount = before
		changed = true
	}
	if currentOK && listing.CurrentPrice != current {
		listing.CurrentPrice = current
		changed = true
	}
	if discountOK && listing.DiscountPercent != discount {
		listing.DiscountPercent = discount
		changed = true
	}
	if minOK && listing.MinPrice != minPrice {
		listing.MinPrice = minPrice
		changed = true
	}

	if !changed {
		return OutcomeSkipped, nil
	}
	if err := tx.UpdateListing(ctx, *listing); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}
