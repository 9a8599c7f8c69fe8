package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/ougirez/sisagua/internal/domain/dto"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"github.com/ougirez/sisagua/internal/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Policy string

const (
	// PolicyBestEffort applies every row in its own transaction and collects the failures.
	PolicyBestEffort Policy = "best-effort"
	// PolicyAllOrNothing applies the whole file in one transaction; the first failing row rolls everything back.
	PolicyAllOrNothing Policy = "all-or-nothing"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyBestEffort:
		return PolicyBestEffort, nil
	case PolicyAllOrNothing:
		return PolicyAllOrNothing, nil
	default:
		return "", fmt.Errorf("unknown ingest policy %q", s)
	}
}

type Options struct {
	Delimiter rune
	Policy    Policy
}

type Service struct {
	store   store.Store
	opts    Options
	metrics *metrics
}

func NewIngestService(store store.Store, opts Options, reg prometheus.Registerer) (*Service, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Policy == "" {
		opts.Policy = PolicyBestEffort
	}

	m, err := newMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("newMetrics: %w", err)
	}

	return &Service{store: store, opts: opts, metrics: m}, nil
}

func (s *Service) IngestFile(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	ctx = logger.WithFields(ctx, zap.String("file", path))
	return s.Ingest(ctx, f)
}

// Ingest reads the SISAGUA CSV from r and normalizes it row by row, in file order.
// A header without every source column fails before any row is touched.
func (s *Service) Ingest(ctx context.Context, r io.Reader) (*Report, error) {
	report := newReport(uuid.NewString(), s.opts.Policy)
	ctx = logger.WithFields(ctx, zap.String("run_id", report.RunID))

	rows, err := newRowReader(r, s.opts.Delimiter)
	if err != nil {
		logger.Errorf(ctx, "newRowReader: %s", err.Error())
		return nil, err
	}

	switch s.opts.Policy {
	case PolicyAllOrNothing:
		err = s.ingestAllOrNothing(ctx, rows, report)
	default:
		err = s.ingestBestEffort(ctx, rows, report)
	}
	if err != nil {
		return report, err
	}

	logger.Info(ctx, "ingestion finished",
		zap.Int("rows", report.Rows),
		zap.Int("applied", report.Applied),
		zap.Int("failed", len(report.Errors)),
	)
	for table, st := range report.Entities {
		logger.Debugf(ctx, "%s: inserted %d, skipped %d", table, st.Inserted, st.Skipped)
	}

	return report, nil
}

func (s *Service) ingestBestEffort(ctx context.Context, rows *rowReader, report *Report) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := rows.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		report.Rows++
		if err != nil {
			if !isRowError(err) {
				return fmt.Errorf("read row: %w", err)
			}
			s.fail(ctx, report, rowErrorFrom(err, 0))
			continue
		}

		var outcomes []outcome
		err = s.store.WithTx(ctx, func(tx store.Store) error {
			var applyErr error
			outcomes, applyErr = s.applyRow(ctx, tx, row)
			return applyErr
		})
		if err != nil {
			if !isRowError(err) {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			s.fail(ctx, report, &RowError{Line: row.Line, Err: err})
			continue
		}

		s.commit(report, outcomes)
	}
}

func (s *Service) ingestAllOrNothing(ctx context.Context, rows *rowReader, report *Report) error {
	var pending [][]outcome

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			row, err := rows.next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			report.Rows++
			if err != nil {
				return rowErrorFrom(err, 0)
			}

			outcomes, err := s.applyRow(ctx, tx, row)
			if err != nil {
				return &RowError{Line: row.Line, Err: err}
			}
			pending = append(pending, outcomes)
		}
	})
	if err != nil {
		var rowErr *RowError
		if errors.As(err, &rowErr) && isRowError(rowErr.Err) {
			s.fail(ctx, report, rowErr)
		}
		logger.Errorf(ctx, "batch rolled back: %s", err.Error())
		return fmt.Errorf("batch rolled back: %w", err)
	}

	for _, outcomes := range pending {
		s.commit(report, outcomes)
	}
	return nil
}

// applyRow inserts the seven records of one row, parents first.
func (s *Service) applyRow(ctx context.Context, tx store.Store, row *dto.SourceRow) ([]outcome, error) {
	records, err := row.Decompose()
	if err != nil {
		return nil, err
	}

	outcomes := make([]outcome, 0, len(records))
	for _, rec := range records {
		out, err := tx.Insert(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", rec.Table().Name, err)
		}
		outcomes = append(outcomes, outcome{table: rec.Table().Name, outcome: out})
	}

	return outcomes, nil
}

func (s *Service) commit(report *Report, outcomes []outcome) {
	report.add(outcomes)
	report.Applied++
	for _, o := range outcomes {
		s.metrics.records.WithLabelValues(o.table, o.outcome.String()).Inc()
	}
}

func (s *Service) fail(ctx context.Context, report *Report, rowErr *RowError) {
	report.Errors = append(report.Errors, rowErr)
	s.metrics.rowErrors.WithLabelValues(errorKind(rowErr.Err)).Inc()
	logger.Warnf(ctx, "skip row: %s", rowErr.Error())
}

func rowErrorFrom(err error, line int) *RowError {
	var malformed *MalformedRowError
	if errors.As(err, &malformed) {
		line = malformed.Line
	}
	return &RowError{Line: line, Err: err}
}

// isRowError reports whether err is confined to one source row. Anything else aborts the run.
func isRowError(err error) bool {
	return errorKind(err) != "other"
}

func errorKind(err error) string {
	var (
		missing   *constants.MissingFieldError
		integrity *constants.ReferentialIntegrityError
		malformed *MalformedRowError
	)
	switch {
	case errors.As(err, &missing):
		return "missing_field"
	case errors.As(err, &integrity):
		return "referential_integrity"
	case errors.As(err, &malformed):
		return "malformed"
	default:
		return "other"
	}
}
