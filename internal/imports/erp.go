package imports

import (
	"context"
	"errors"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/xlsxio"
)

func init() {
	Register(SourceDefinition{
		Tag:        "1c",
		Label:      "Выгрузка 1С",
		Sheet:      0,
		HeaderRow:  0,
		KeyColumns: []string{"ШК"},
		Process:    processERP,
	})
}

// processERP upserts the full product record from one ERP export row.
// The ERP feed owns every product attribute; marketplace listings are
// never touched here.
func processERP(ctx context.Context, tx catalog.Tx, row xlsxio.Row) (Outcome, error) {
	barcode := row.Get("ШК")
	if barcode == "" {
		return OutcomeSkipped, &ValidationError{Column: "ШК", Reason: "barcode is required"}
	}

	p := catalog.Product{
		Barcode:         barcode,
		Article1C:       row.Get("Артикул"),
		Name:            row.Get("Номенклатура"),
		Unit:            row.Get("Ед."),
		Brand:           row.Get("Фирма"),
		ProductType:     row.Get("Вид товара"),
		ProductCategory: row.Get("Тип товара"),
		Collection:      row.Get("Коллекция"),
		Season:          row.Get("Сезон"),
		Size:            row.Get("Размер"),
		StockMain:       intOrZero(row.Get("Склад на Есенина")),
		StockSoft:       intOrZero(row.Get("Склад на Есенина SOFT")),
		StockFar:        intOrZero(row.Get("Склад на Есенина Дальний")),
		PurchasePrice:   floatOrZero(row.Get("Закупочная цена")),
	}
	p.StockTotal = p.StockMain + p.StockSoft + p.StockFar

	existing, err := tx.GetProduct(ctx, barcode)
	if errors.Is(err, catalog.ErrNotFound) {
		if err := tx.CreateProduct(ctx, p); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeAdded, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	p.Metadata = existing.Metadata
	p.CreatedAt = existing.CreatedAt
	if err := tx.UpdateProduct(ctx, p); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}
