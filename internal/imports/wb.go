package imports

import (
	"context"
	"errors"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/xlsxio"
)

func init() {
	Register(SourceDefinition{
		Tag:        "wb_barcodes",
		Label:      "ШК Wildberries",
		Sheet:      0,
		HeaderRow:  0,
		KeyColumns: []string{"ШК"},
		Process:    processWBBarcodes,
	})
	Register(SourceDefinition{
		Tag:        "wb_prices",
		Label:      "Цены Wildberries",
		Sheet:      0,
		HeaderRow:  0,
		KeyColumns: []string{"Арт ВБ", "ШК"},
		Process:    processWBPrices,
	})
	Register(SourceDefinition{
		Tag:        "wb_min_prices",
		Label:      "Минимальные цены Wildberries",
		Sheet:      0,
		HeaderRow:  0,
		KeyColumns: []string{"Арт ВБ"},
		Process:    processWBMinPrices,
	})
}

// processWBBarcodes links an existing product to its WB listing. The
// product must come from an earlier ERP import; this feed never creates
// products.
func processWBBarcodes(ctx context.Context, tx catalog.Tx, row xlsxio.Row) (Outcome, error) {
	barcode := row.Get("ШК")
	if barcode == "" {
		return OutcomeSkipped, &ValidationError{Column: "ШК", Reason: "barcode is required"}
	}

	if _, err := tx.GetProduct(ctx, barcode); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return OutcomeSkipped, &NotFoundError{Entity: "product", Key: barcode}
		}
		return OutcomeSkipped, err
	}

	article := row.Get("Артикул")
	externalID := row.Get("Арт ВБ")

	listing, err := tx.GetListing(ctx, barcode, catalog.MarketplaceWB)
	if errors.Is(err, catalog.ErrNotFound) {
		l := catalog.Listing{
			Barcode:     barcode,
			Marketplace: catalog.MarketplaceWB,
			Article:     article,
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
	listing.ExternalID = externalID
	if err := tx.UpdateListing(ctx, *listing); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}

// processWBPrices updates pricing on an existing WB listing. The portal
// report carries both the live values and, when the seller staged a
// change, "new" columns that take precedence. Lookup tries the WB article
// first because barcode columns in this report are often stale.
func processWBPrices(ctx context.Context, tx catalog.Tx, row xlsxio.Row) (Outcome, error) {
	externalID := row.Get("Арт ВБ")
	barcode := row.Get("ШК")
	if externalID == "" && barcode == "" {
		return OutcomeSkipped, &ValidationError{Column: "Арт ВБ", Reason: "row has neither WB article nor barcode"}
	}

	listing, err := lookupWBListing(ctx, tx, externalID, barcode)
	if err != nil {
		return OutcomeSkipped, err
	}

	base, ok := leadingNumber(row.Get("Новая цена"))
	if !ok {
		base = floatOrZero(row.Get("Текущая цена"))
	}
	discount, ok := leadingNumber(row.Get("Новая скидка"))
	if !ok {
		discount = floatOrZero(row.Get("Текущая скидка"))
	}

	current := base
	if base > 0 && discount >= 0 {
		current = round2(base * (1 - discount/100))
	}

	listing.PriceBeforeDiscount = base
	listing.DiscountPercent = discount
	listing.CurrentPrice = current
	if err := tx.UpdateListing(ctx, *listing); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}

func lookupWBListing(ctx context.Context, tx catalog.Tx, externalID, barcode string) (*catalog.Listing, error) {
	if externalID != "" {
		listing, err := tx.GetListingByExternalID(ctx, catalog.MarketplaceWB, externalID)
		if err == nil {
			return listing, nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
	}
	if barcode != "" {
		listing, err := tx.GetListing(ctx, barcode, catalog.MarketplaceWB)
		if err == nil {
			return listing, nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
	}

	key := externalID
	if key == "" {
		key = barcode
	}
	return nil, &NotFoundError{Entity: "wb listing", Key: key}
}

// processWBMinPrices sets the price floor used by the portal's automatic
// promotions. The cell value carries a trailing annotation after the
// number, so only the leading numeric prefix is taken.
func processWBMinPrices(ctx context.Context, tx catalog.Tx, row xlsxio.Row) (Outcome, error) {
	externalID := row.Get("Арт ВБ")
	if externalID == "" {
		return OutcomeSkipped, &ValidationError{Column: "Арт ВБ", Reason: "WB article is required"}
	}

	listing, err := tx.GetListingByExternalID(ctx, catalog.MarketplaceWB, externalID)
	if errors.Is(err, catalog.ErrNotFound) {
		return OutcomeSkipped, &NotFoundError{Entity: "wb listing", Key: externalID}
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	minPrice, ok := leadingNumber(row.Get("Текущая минимальная цена для применения скидки по автоакции"))
	if !ok {
		minPrice = 0
	}

	listing.MinPrice = minPrice
	if err := tx.UpdateListing(ctx, *listing); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}
