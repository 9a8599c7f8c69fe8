package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
)

// Insert writes rec unless a row with the same key already exists. Every parent
// reference must resolve, otherwise a ReferentialIntegrityError is returned.
func (s *store) Insert(ctx context.Context, rec domain.Record) (Outcome, error) {
	table := rec.Table()

	exists, err := s.Exists(ctx, table, rec.Key())
	if err != nil {
		return 0, fmt.Errorf("exists %s: %w", table.Name, err)
	}
	if exists {
		return OutcomeDuplicateIgnored, nil
	}

	for _, ref := range rec.Parents() {
		ok, err := s.Exists(ctx, ref.Table, ref.Key)
		if err != nil {
			return 0, fmt.Errorf("exists %s: %w", ref.Table.Name, err)
		}
		if !ok {
			return 0, &constants.ReferentialIntegrityError{Table: table.Name, Parent: ref.Table.Name, Key: ref.Key}
		}
	}

	values := rec.Values()
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}

	query := s.builder().Insert(table.Name).
		Columns(table.Columns...).
		Values(args...).
		Suffix("ON CONFLICT DO NOTHING")

	affected, err := s.q.Execx(ctx, query)
	if err != nil {
		logger.Errorf(ctx, "insert %s: %s", table.Name, err.Error())
		return 0, wrapErr(table, err)
	}
	if affected == 0 {
		return OutcomeDuplicateIgnored, nil
	}

	return OutcomeInserted, nil
}

func (s *store) Exists(ctx context.Context, table *domain.TableSpec, key []string) (bool, error) {
	if len(key) != len(table.Key) {
		return false, fmt.Errorf("%s: key has %d values, want %d", table.Name, len(key), len(table.Key))
	}

	query := s.builder().Select("1").
		From(table.Name).
		Where(keyEq(table.Key, key)).
		Limit(1)

	rows, err := s.q.Selectx(ctx, query)
	if err != nil {
		return false, wrapErr(table, err)
	}

	return len(rows) > 0, nil
}

func (s *store) Count(ctx context.Context, table *domain.TableSpec) (int64, error) {
	query := s.builder().Select("COUNT(*)").From(table.Name)

	rows, err := s.q.Selectx(ctx, query)
	if err != nil {
		return 0, wrapErr(table, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, constants.ErrDBNotFound
	}

	return strconv.ParseInt(rows[0][0], 10, 64)
}

// Dump returns every row of table with columns in declared order, sorted by key.
func (s *store) Dump(ctx context.Context, table *domain.TableSpec) ([][]string, error) {
	query := s.builder().Select(table.Columns...).
		From(table.Name).
		OrderBy(table.Key...)

	rows, err := s.q.Selectx(ctx, query)
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, wrapErr(table, err)
	}

	return rows, nil
}
