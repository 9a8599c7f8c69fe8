package console

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/corazawaf/libinjection-go"
	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"go.uber.org/zap"
)

// Run executes one read-only statement against the loaded tables. Every
// failure, from validation to the engine, comes back as a QueryExecutionError.
func (c *Console) Run(ctx context.Context, query string, args ...any) (*domain.QueryResult, error) {
	set, release, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	defer release()

	normalized, tokens, err := normalizeQuery(query)
	if err != nil {
		return nil, &constants.QueryExecutionError{Msg: "invalid query", Err: err}
	}
	if err = set.names.checkIdentifiers(tokens); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.QueryTimeout)
	defer cancel()

	cols, rows, truncated, err := set.db.QueryRows(ctx, normalized, args, c.opts.MaxRows)
	if err != nil {
		return nil, engineError(ctx, err)
	}
	if truncated {
		logger.Warn(ctx, "query result truncated", zap.Int("max_rows", c.opts.MaxRows))
	}

	return &domain.QueryResult{Columns: cols, Rows: rows, Truncated: truncated}, nil
}

func engineError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &constants.QueryExecutionError{Msg: "query timed out", Err: err}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return &constants.QueryExecutionError{Msg: "unknown table", Hint: constants.CaseSensitivityHint, Err: err}
	case strings.Contains(msg, "no such column"):
		return &constants.QueryExecutionError{Msg: "unknown column", Hint: constants.CaseSensitivityHint, Err: err}
	default:
		return &constants.QueryExecutionError{Msg: "query failed", Hint: constants.CaseSensitivityHint, Err: err}
	}
}

func (c *Console) Presets() []domain.Preset {
	return append([]domain.Preset(nil), c.presets...)
}

func (c *Console) Preset(name string) (domain.Preset, error) {
	for _, p := range c.presets {
		if p.Name == name {
			return p, nil
		}
	}
	return domain.Preset{}, constants.ErrPresetNotFound
}

// RunPreset binds params over the preset defaults and runs it. Values that
// look like SQL injection are refused before reaching the engine.
func (c *Console) RunPreset(ctx context.Context, name string, params map[string]string) (*domain.QueryResult, error) {
	preset, err := c.Preset(name)
	if err != nil {
		return nil, err
	}

	args, err := bindParams(preset, params)
	if err != nil {
		logger.Warnf(ctx, "preset %s: %s", name, err.Error())
		return nil, err
	}

	return c.Run(ctx, preset.SQL, args...)
}

func bindParams(preset domain.Preset, params map[string]string) ([]any, error) {
	for key := range params {
		if !hasParam(preset, key) {
			return nil, &constants.QueryExecutionError{Msg: fmt.Sprintf("preset %s has no parameter %q", preset.Name, key)}
		}
	}

	args := make([]any, 0, len(preset.Params))
	for _, p := range preset.Params {
		value, ok := params[p.Name]
		if !ok {
			value = p.Default
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(value); isSQLi {
			return nil, &constants.QueryExecutionError{
				Msg: fmt.Sprintf("parameter %q rejected (fingerprint %s)", p.Name, fingerprint),
			}
		}
		args = append(args, sql.Named(p.Name, value))
	}

	return args, nil
}

func hasParam(preset domain.Preset, name string) bool {
	for _, p := range preset.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}
