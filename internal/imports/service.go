package imports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/logging"
	"github.com/mpstock/catalog/internal/xlsxio"
)

// ErrUnsupportedFile rejects uploads that are not Excel workbooks. The
// check runs before any processing, so no audit record is written.
var ErrUnsupportedFile = errors.New("file must be an Excel workbook (.xlsx or .xls)")

// ErrUnknownSource rejects tags with no registered source definition.
var ErrUnknownSource = errors.New("unknown import source")

// Service drives the import pipeline: one transaction per call, no early
// abort on row failures, an error report for the failures, and an
// immutable audit record either way.
type Service struct {
	store      catalog.Store
	uploadsDir string
	reportsDir string
}

func NewService(store catalog.Store, uploadsDir, reportsDir string) *Service {
	return &Service{
		store:      store,
		uploadsDir: uploadsDir,
		reportsDir: reportsDir,
	}
}

// Run imports one uploaded file for the given source tag and returns the
// persisted audit record. Row-level failures are counted and reported but
// never abort the call; any failure outside row handling rolls back all
// mutations and records a single failed audit entry.
func (s *Service) Run(ctx context.Context, tag, filename string, data []byte) (catalog.ImportLog, error) {
	def, ok := Get(tag)
	if !ok {
		return catalog.ImportLog{}, fmt.Errorf("%w: %s", ErrUnknownSource, tag)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" && ext != ".xls" {
		return catalog.ImportLog{}, ErrUnsupportedFile
	}

	log := logging.FromContext(ctx).With(
		"import_id", uuid.NewString(),
		"source", tag,
		"file", filename,
	)
	log.Info("import started", "size", len(data))

	if err := s.retainUpload(tag, filename, data); err != nil {
		return s.failed(ctx, log, tag, filename, err)
	}

	rows, err := xlsxio.Extract(data, def.Sheet, def.HeaderRow)
	if err != nil {
		return s.failed(ctx, log, tag, filename, err)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return s.failed(ctx, log, tag, filename, err)
	}
	defer tx.Rollback(ctx)

	var added, updated, failed int
	var rowErrs []RowError
	for _, row := range rows {
		if row.Blank() {
			continue
		}
		outcome, err := def.Process(ctx, tx, row)
		if err != nil {
			failed++
			rowErrs = append(rowErrs, RowError{
				Line:   row.Line,
				Key:    rowKey(def, row),
				Reason: err.Error(),
			})
			continue
		}
		switch outcome {
		case OutcomeAdded:
			added++
		case OutcomeUpdated:
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return s.failed(ctx, log, tag, filename, err)
	}

	reportFile := ""
	if len(rowErrs) > 0 {
		reportFile, err = writeReport(s.reportsDir, tag, rowErrs)
		if err != nil {
			// The data is already committed; losing the report must not
			// turn a finished import into a failure.
			log.Warn("error report not written", "error", err)
			reportFile = ""
		}
	}

	status := catalog.StatusSuccess
	if failed > 0 {
		status = catalog.StatusPartial
	}

	rec, err := s.store.InsertImportLog(ctx, catalog.ImportLog{
		Source:          tag,
		FileName:        filename,
		Processed:       added + updated,
		Added:           added,
		Updated:         updated,
		Failed:          failed,
		Status:          status,
		ErrorReportFile: reportFile,
	})
	if err != nil {
		return catalog.ImportLog{}, fmt.Errorf("record import: %w", err)
	}

	log.Info("import finished",
		"status", rec.Status,
		"added", added,
		"updated", updated,
		"failed", failed,
	)
	return rec, nil
}

// retainUpload keeps a copy of the original file in the intake directory
// for operator reference.
func (s *Service) retainUpload(tag, filename string, data []byte) error {
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return fmt.Errorf("intake dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s", tag, time.Now().Format("20060102_150405"), filepath.Base(filename))
	if err := os.WriteFile(filepath.Join(s.uploadsDir, name), data, 0o644); err != nil {
		return fmt.Errorf("retain upload: %w", err)
	}
	return nil
}

// failed records a pipeline-level failure as a single audit entry and
// propagates the original error. Mutations were rolled back by the
// deferred Rollback (or never started).
func (s *Service) failed(ctx context.Context, log *slog.Logger, tag, filename string, cause error) (catalog.ImportLog, error) {
	log.Error("import failed", "error", cause)

	rec, err := s.store.InsertImportLog(ctx, catalog.ImportLog{
		Source:       tag,
		FileName:     filename,
		Status:       catalog.StatusFailed,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		return catalog.ImportLog{}, errors.Join(cause, err)
	}
	return rec, cause
}

// rowKey joins the row's non-empty key column values for the error report.
func rowKey(def SourceDefinition, row xlsxio.Row) string {
	var parts []string
	for _, col := range def.KeyColumns {
		if v := row.Get(col); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}
