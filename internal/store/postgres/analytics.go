package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mpstock/catalog/internal/catalog"
)

func (s *Store) GetCalculated(ctx context.Context, barcode string) (*catalog.Calculated, error) {
	var c catalog.Calculated
	err := s.pool.QueryRow(ctx, `
		SELECT barcode, margin, margin_percent, turnover_rate, abc_category, updated_at
		FROM calculated_data WHERE barcode = $1`, barcode).Scan(
		&c.Barcode, &c.Margin, &c.MarginPercent, &c.TurnoverRate,
		&c.ABCCategory, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpsertCalculated(ctx context.Context, calc catalog.Calculated) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO calculated_data (barcode, margin, margin_percent, turnover_rate, abc_category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (barcode) DO UPDATE SET
			margin = EXCLUDED.margin,
			margin_percent = EXCLUDED.margin_percent,
			turnover_rate = EXCLUDED.turnover_rate,
			abc_category = EXCLUDED.abc_category,
			updated_at = now()`,
		calc.Barcode, calc.Margin, calc.MarginPercent, calc.TurnoverRate, calc.ABCCategory,
	)
	return err
}

func (s *Store) allCalculated(ctx context.Context) ([]catalog.Calculated, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT barcode, margin, margin_percent, turnover_rate, abc_category, updated_at
		FROM calculated_data`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Calculated
	for rows.Next() {
		var c catalog.Calculated
		if err := rows.Scan(&c.Barcode, &c.Margin, &c.MarginPercent,
			&c.TurnoverRate, &c.ABCCategory, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
