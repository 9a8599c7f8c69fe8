package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"github.com/ougirez/sisagua/internal/pkg/store/migrations"
	"github.com/ougirez/sisagua/internal/pkg/store/xpgx"
	"github.com/ougirez/sisagua/internal/pkg/store/xsql"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver string
	DSN    string
	// Migrate applies the embedded schema before returning.
	Migrate bool
}

// Open acquires the destination store handle. The caller owns it and must Close it.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverPostgres:
		if opts.Migrate {
			if err := migratePostgres(ctx, opts.DSN); err != nil {
				return nil, err
			}
		}

		var pool xpgx.Pool
		err := backoff.Retry(
			func() error {
				var connErr error
				pool, connErr = xpgx.New(ctx, opts.DSN)
				if connErr != nil {
					logger.Warnf(ctx, "connect postgres: %s", connErr.Error())
				}
				return connErr
			},
			backoff.WithContext(
				backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 10),
				ctx,
			),
		)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return NewStore(pool), nil

	case DriverSQLite:
		db, err := xsql.OpenSQLite(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if opts.Migrate {
			if err = applySchema(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}

		return NewStore(db), nil

	default:
		return nil, fmt.Errorf("unknown db driver %q", opts.Driver)
	}
}

func migratePostgres(ctx context.Context, dsn string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("iofs.New: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5URL(dsn))
	if err != nil {
		return fmt.Errorf("migrate.NewWithSourceInstance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn(ctx, "close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn(ctx, "close migration database", zap.Error(dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info(ctx, "migrations applied", zap.Uint("version", version))
	return nil
}

func pgx5URL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// applySchema выполняет up-миграции напрямую: база SQLite живёт в одном соединении, которое нельзя отдать migrate.
func applySchema(ctx context.Context, db xpgx.Pool) error {
	files, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, name := range files {
		body, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		for _, stmt := range strings.Split(string(body), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err = db.Execx(ctx, sq.Expr(stmt)); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
		}
	}

	return nil
}
