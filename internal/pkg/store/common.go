package store

import (
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/store/xpgx"
)

var mapping = map[error]error{
	pgx.ErrNoRows: constants.ErrDBNotFound,
	sql.ErrNoRows: constants.ErrDBNotFound,
}

func wrapErr(table *domain.TableSpec, err error) error {
	if errors.Is(err, xpgx.ErrForeignKeyViolation) {
		return &constants.ReferentialIntegrityError{Table: table.Name}
	}
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}
	return err
}

// builder возвращает squirrel SQL Builder обьект.
func (s *store) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(s.placeholder)
}

func keyEq(columns, values []string) squirrel.Eq {
	eq := make(squirrel.Eq, len(columns))
	for i, c := range columns {
		eq[c] = values[i]
	}
	return eq
}
