package xpgx

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ougirez/sisagua/internal/pkg/utils"
)

// ErrForeignKeyViolation is wrapped by every driver when the database rejects a row for a missing parent.
var ErrForeignKeyViolation = errors.New("foreign key violation")

const pgForeignKeyViolation = "23503"

type Querier interface {
	Execx(ctx context.Context, query sq.Sqlizer) (int64, error)
	// Selectx returns every row as text, NULL as "".
	Selectx(ctx context.Context, query sq.Sqlizer) ([][]string, error)
}

type Pool interface {
	Querier
	InTx(ctx context.Context, fn func(q Querier) error) error
	Placeholder() sq.PlaceholderFormat
	Close()
}

type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type querier struct {
	conn conn
}

type pool struct {
	querier
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	// ingestion is sequential, one connection is enough
	cfg.MaxConns = 1

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err = p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &pool{querier: querier{conn: p}, pool: p}, nil
}

func (p *pool) Placeholder() sq.PlaceholderFormat {
	return sq.Dollar
}

func (p *pool) Close() {
	p.pool.Close()
}

func (p *pool) InTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&querier{conn: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (q *querier) Execx(ctx context.Context, query sq.Sqlizer) (int64, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ToSql: %w", err)
	}

	tag, err := q.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, wrapErr(err)
	}

	return tag.RowsAffected(), nil
}

func (q *querier) Selectx(ctx context.Context, query sq.Sqlizer) ([][]string, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ToSql: %w", err)
	}

	rows, err := q.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var res [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = utils.FormatValue(v)
		}
		res = append(res, row)
	}

	return res, wrapErr(rows.Err())
}

func wrapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, pgErr.Message)
	}
	return err
}
