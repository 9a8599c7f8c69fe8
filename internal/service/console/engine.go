package console

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/sisagua/internal/pkg/store/xpgx"
	"github.com/ougirez/sisagua/internal/pkg/store/xsql"
)

const insertBatch = 200

// tableSet is an immutable snapshot of loaded tables plus the SQLite database
// they were materialized into.
type tableSet struct {
	db     *xsql.DB
	tables []*Table
	byName map[string]*Table
	names  *nameIndex
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func buildTableSet(ctx context.Context, tables []*Table) (*tableSet, error) {
	db, err := xsql.OpenSQLite(ctx, ":memory:")
	if err != nil {
		return nil, err
	}

	set := &tableSet{
		db:     db,
		tables: tables,
		byName: make(map[string]*Table, len(tables)),
		names:  newNameIndex(tables),
	}
	for _, t := range tables {
		set.byName[t.Name] = t
		if err = materialize(ctx, db, t); err != nil {
			db.Close()
			return nil, fmt.Errorf("materialize %s: %w", t.Name, err)
		}
	}

	if _, err = db.Execx(ctx, sq.Expr("PRAGMA query_only = ON")); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable query_only: %w", err)
	}

	return set, nil
}

func materialize(ctx context.Context, db *xsql.DB, t *Table) error {
	cols := make([]string, len(t.Columns))
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c)
		defs[i] = cols[i] + " TEXT"
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name), strings.Join(defs, ", "))
	if _, err := db.Execx(ctx, sq.Expr(create)); err != nil {
		return err
	}

	return db.InTx(ctx, func(q xpgx.Querier) error {
		for start := 0; start < len(t.Rows); start += insertBatch {
			end := min(start+insertBatch, len(t.Rows))

			query := sq.Insert(quoteIdent(t.Name)).Columns(cols...).PlaceholderFormat(sq.Question)
			for _, row := range t.Rows[start:end] {
				args := make([]any, len(row))
				for i, v := range row {
					args[i] = v
				}
				query = query.Values(args...)
			}
			if _, err := q.Execx(ctx, query); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *tableSet) close() {
	if s != nil && s.db != nil {
		s.db.Close()
	}
}
