package xsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/sisagua/internal/pkg/store/xpgx"
	"github.com/ougirez/sisagua/internal/pkg/utils"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type querier struct {
	conn conn
}

type DB struct {
	querier
	db *sql.DB
}

var _ xpgx.Pool = (*DB)(nil)

// OpenSQLite открывает базу SQLite (modernc, без cgo) с одним соединением и включёнными внешними ключами.
// ":memory:" даёт приватную базу в памяти.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// in-memory databases live per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{querier: querier{conn: db}, db: db}, nil
}

func (d *DB) Placeholder() sq.PlaceholderFormat {
	return sq.Question
}

func (d *DB) Close() {
	_ = d.db.Close()
}

func (d *DB) InTx(ctx context.Context, fn func(q xpgx.Querier) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&querier{conn: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (q *querier) Execx(ctx context.Context, query sq.Sqlizer) (int64, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ToSql: %w", err)
	}

	res, err := q.conn.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, wrapErr(err)
	}

	return res.RowsAffected()
}

func (q *querier) Selectx(ctx context.Context, query sq.Sqlizer) ([][]string, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ToSql: %w", err)
	}

	rows, err := q.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer func() { _ = rows.Close() }()

	return ScanAll(rows)
}

// ScanAll reads every remaining row as text, NULL as "".
func ScanAll(rows *sql.Rows) ([][]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var res [][]string
	for rows.Next() {
		row, err := ScanRow(rows, len(cols))
		if err != nil {
			return nil, err
		}
		res = append(res, row)
	}

	return res, wrapErr(rows.Err())
}

// ScanRow scans the current row of n columns as text.
func ScanRow(rows *sql.Rows, n int) ([]string, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := make([]string, n)
	for i, v := range values {
		row[i] = utils.FormatValue(v)
	}
	return row, nil
}

func wrapErr(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(sqliteErr.Error(), "FOREIGN KEY constraint failed")) {
		return fmt.Errorf("%w: %s", xpgx.ErrForeignKeyViolation, sqliteErr.Error())
	}
	return err
}

// QueryRows runs a raw query and returns at most limit rows with the result
// column names. truncated reports that more rows were available.
func (d *DB) QueryRows(ctx context.Context, query string, args []any, limit int) (cols []string, res [][]string, truncated bool, err error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, false, err
	}
	defer func() {
		_ = rows.Close()
	}()

	cols, err = rows.Columns()
	if err != nil {
		return nil, nil, false, err
	}

	res = make([][]string, 0)
	for rows.Next() {
		if limit > 0 && len(res) == limit {
			truncated = true
			break
		}
		row, scanErr := ScanRow(rows, len(cols))
		if scanErr != nil {
			return nil, nil, false, scanErr
		}
		res = append(res, row)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, false, err
	}

	return cols, res, truncated, nil
}
