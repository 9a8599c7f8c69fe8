package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

// Outcome of an upsert-if-absent insert.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	// OutcomeDuplicateIgnored means the key already existed; nothing was written.
	OutcomeDuplicateIgnored
)

func (o Outcome) String() string {
	if o == OutcomeDuplicateIgnored {
		return "skipped"
	}
	return "inserted"
}

type Store interface {
	Insert(ctx context.Context, rec domain.Record) (Outcome, error)
	Exists(ctx context.Context, table *domain.TableSpec, key []string) (bool, error)
	Count(ctx context.Context, table *domain.TableSpec) (int64, error)
	Dump(ctx context.Context, table *domain.TableSpec) ([][]string, error)
	// WithTx runs fn against a store bound to one transaction. Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Close()
}

type store struct {
	pool        Pool
	q           xpgx.Querier
	placeholder sq.PlaceholderFormat
}

func NewStore(pool Pool) Store {
	return &store{pool: pool, q: pool, placeholder: pool.Placeholder()}
}

func (s *store) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return s.pool.InTx(ctx, func(q xpgx.Querier) error {
		return fn(&store{q: q, placeholder: s.placeholder})
	})
}

func (s *store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
