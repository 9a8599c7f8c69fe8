package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Driver: DriverSQLite, DSN: ":memory:", Migrate: true})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	out, err := s.Insert(ctx, &domain.RegionState{UF: "PR", Region: "Sul"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)

	out, err = s.Insert(ctx, &domain.RegionState{UF: "PR", Region: "something else"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicateIgnored, out)

	rows, err := s.Dump(ctx, domain.TableEstado)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"PR", "Sul"}}, rows)
}

func TestInsertMissingParent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Insert(ctx, &domain.Municipality{IBGECode: "410690", Name: "Curitiba", UF: "PR"})
	var rie *constants.ReferentialIntegrityError
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, "Municipio", rie.Table)
	assert.Equal(t, "Estado", rie.Parent)
	assert.Equal(t, []string{"PR"}, rie.Key)

	n, err := s.Count(ctx, domain.TableMunicipio)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestForeignKeysEnforcedByDatabase(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t).(*store)

	query := s.builder().Insert(domain.TableMunicipio.Name).
		Columns(domain.TableMunicipio.Columns...).
		Values("410690", "", "Curitiba", "XX")
	_, err := s.q.Execx(ctx, query)
	require.Error(t, err)

	var rie *constants.ReferentialIntegrityError
	assert.True(t, errors.As(wrapErr(domain.TableMunicipio, err), &rie))
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx Store) error {
		if _, err := tx.Insert(ctx, &domain.RegionState{UF: "SP", Region: "Sudeste"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ok, err := s.Exists(ctx, domain.TableEstado, []string{"SP"})
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.WithTx(ctx, func(tx Store) error {
		return tx.WithTx(ctx, func(inner Store) error {
			_, err := inner.Insert(ctx, &domain.RegionState{UF: "SP", Region: "Sudeste"})
			return err
		})
	})
	require.NoError(t, err)

	n, err := s.Count(ctx, domain.TableEstado)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"})
	assert.Error(t, err)
}

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/sisagua", pgx5URL("postgres://u:p@localhost:5432/sisagua"))
	assert.Equal(t, "pgx5://localhost/db", pgx5URL("postgresql://localhost/db"))
}
