// Package export produces the outbound spreadsheets: per-marketplace
// price/stock feeds and the full catalog dump.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/logging"
)

// Store is the slice of the catalog store this package reads.
type Store interface {
	ListFeed(ctx context.Context, marketplace catalog.Marketplace) ([]catalog.FeedItem, error)
	ListCatalog(ctx context.Context) ([]catalog.Entry, error)
}

// Service writes export files into a configured output directory.
type Service struct {
	store Store
	dir   string
}

func NewService(store Store, dir string) *Service {
	return &Service{store: store, dir: dir}
}

// MarketplaceFeed exports the in-stock assortment of one marketplace:
// products with positive total stock joined with their listing. Returns
// the path of the written file.
func (s *Service) MarketplaceFeed(ctx context.Context, mp catalog.Marketplace) (string, error) {
	if !mp.Valid() {
		return "", fmt.Errorf("unknown marketplace %q", mp)
	}

	items, err := s.store.ListFeed(ctx, mp)
	if err != nil {
		return "", err
	}

	var sheet string
	var headers []string
	var rows [][]any
	switch mp {
	case catalog.MarketplaceWB:
		sheet = "Wildberries"
		headers = []string{"Штрихкод", "Артикул", "Арт ВБ", "Название", "Бренд", "Размер", "Остаток", "Цена", "Скидка %"}
		for _, it := range items {
			rows = append(rows, []any{
				it.Product.Barcode,
				it.Listing.Article,
				it.Listing.ExternalID,
				it.Product.Name,
				it.Product.Brand,
				it.Product.Size,
				it.Product.StockTotal,
				it.Listing.CurrentPrice,
				it.Listing.DiscountPercent,
			})
		}
	case catalog.MarketplaceOzon:
		sheet = "Ozon"
		headers = []string{"Штрихкод", "SKU", "Ozon Product ID", "Название", "Бренд", "Размер", "Остаток", "Цена до скидки", "Цена со скидкой", "Скидка %", "Минимальная цена"}
		for _, it := range items {
			rows = append(rows, []any{
				it.Product.Barcode,
				it.Listing.SKU,
				it.Listing.ExternalID,
				it.Product.Name,
				it.Product.Brand,
				it.Product.Size,
				it.Product.StockTotal,
				it.Listing.PriceBeforeDiscount,
				it.Listing.CurrentPrice,
				it.Listing.DiscountPercent,
				it.Listing.MinPrice,
			})
		}
	}

	name := fmt.Sprintf("export_%s_%s.xlsx", mp, time.Now().Format("20060102_150405"))
	path, err := s.writeSheet(sheet, headers, rows, name)
	if err != nil {
		return "", err
	}

	logging.FromContext(ctx).Info("feed exported", "marketplace", mp, "rows", len(rows), "file", name)
	return path, nil
}

var fullCatalogHeaders = []string{
	"Штрихкод", "Артикул 1С", "Название", "Единица", "Бренд",
	"Вид товара", "Тип товара", "Коллекция", "Сезон", "Размер",
	"Остаток Есенина", "Остаток Есенина SOFT", "Остаток Есенина Дальний",
	"Остаток общий", "Закупочная цена",
	"WB Артикул", "WB ID", "WB Цена", "WB Скидка %",
	"Ozon SKU", "Ozon Product ID", "Ozon Цена до скидки", "Ozon Цена",
	"Ozon Скидка %", "Ozon Мин. цена",
	"Наценка", "Наценка %", "Оборачиваемость", "ABC категория",
}

// FullCatalog exports every product with its listings and analytics
// flattened into one row. Cells for absent listings stay empty.
func (s *Service) FullCatalog(ctx context.Context) (string, error) {
	entries, err := s.store.ListCatalog(ctx)
	if err != nil {
		return "", err
	}

	var rows [][]any
	for _, e := range entries {
		p := e.Product
		row := []any{
			p.Barcode, p.Article1C, p.Name, p.Unit, p.Brand,
			p.ProductType, p.ProductCategory, p.Collection, p.Season, p.Size,
			p.StockMain, p.StockSoft, p.StockFar,
			p.StockTotal, p.PurchasePrice,
		}
		if e.WB != nil {
			row = append(row, e.WB.Article, e.WB.ExternalID, e.WB.CurrentPrice, e.WB.DiscountPercent)
		} else {
			row = append(row, "", "", "", "")
		}
		if e.Ozon != nil {
			row = append(row, e.Ozon.SKU, e.Ozon.ExternalID, e.Ozon.PriceBeforeDiscount, e.Ozon.CurrentPrice, e.Ozon.DiscountPercent, e.Ozon.MinPrice)
		} else {
			row = append(row, "", "", "", "", "", "")
		}
		if e.Calc != nil {
			row = append(row, e.Calc.Margin, e.Calc.MarginPercent, e.Calc.TurnoverRate, e.Calc.ABCCategory)
		} else {
			row = append(row, "", "", "", "")
		}
		rows = append(rows, row)
	}

	name := fmt.Sprintf("export_full_%s.xlsx", time.Now().Format("20060102_150405"))
	path, err := s.writeSheet("Все товары", fullCatalogHeaders, rows, name)
	if err != nil {
		return "", err
	}

	logging.FromContext(ctx).Info("full catalog exported", "rows", len(rows), "file", name)
	return path, nil
}

func (s *Service) writeSheet(sheet string, headers []string, rows [][]any, name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("exports dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", err
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", err
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return "", err
			}
		}
	}

	path := filepath.Join(s.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
