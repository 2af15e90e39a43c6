package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mpstock/catalog/internal/catalog"
)

const importLogColumns = `id, source, file_name, records_processed, records_added,
	records_updated, records_failed, status, error_message, error_report_file, created_at`

func scanImportLog(row pgx.Row) (*catalog.ImportLog, error) {
	var l catalog.ImportLog
	err := row.Scan(
		&l.ID, &l.Source, &l.FileName, &l.Processed, &l.Added, &l.Updated,
		&l.Failed, &l.Status, &l.ErrorMessage, &l.ErrorReportFile, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// InsertImportLog appends one audit record and returns it with its
// assigned id and timestamp. Records are never updated afterwards.
func (s *Store) InsertImportLog(ctx context.Context, log catalog.ImportLog) (catalog.ImportLog, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO import_logs (
			source, file_name, records_processed, records_added,
			records_updated, records_failed, status, error_message, error_report_file
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at`,
		log.Source, log.FileName, log.Processed, log.Added, log.Updated,
		log.Failed, log.Status, log.ErrorMessage, log.ErrorReportFile,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return catalog.ImportLog{}, err
	}
	return log, nil
}

func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]catalog.ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+importLogColumns+` FROM import_logs
		 ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.ImportLog
	for rows.Next() {
		l, err := scanImportLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *Store) GetImportLog(ctx context.Context, id int64) (*catalog.ImportLog, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+importLogColumns+` FROM import_logs WHERE id = $1`, id)
	return scanImportLog(row)
}
