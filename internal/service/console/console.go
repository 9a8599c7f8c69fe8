package console

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

type Options struct {
	Dir          string
	Encodings    []string
	MaxRows      int
	QueryTimeout time.Duration
}

// Console serves read-only queries over the tables loaded from Options.Dir.
type Console struct {
	opts    Options
	presets []domain.Preset

	mx  sync.RWMutex
	set *tableSet
}

func NewConsole(ctx context.Context, opts Options) (*Console, error) {
	encodings, err := ParseEncodings(opts.Encodings)
	if err != nil {
		return nil, err
	}
	opts.Encodings = encodings
	if opts.MaxRows <= 0 {
		opts.MaxRows = constants.DefaultMaxRows
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = constants.DefaultQueryTimeout
	}

	presets, err := loadPresets()
	if err != nil {
		return nil, fmt.Errorf("loadPresets: %w", err)
	}

	c := &Console{opts: opts, presets: presets}
	if err = c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Load builds a console over dir with default limits.
func Load(ctx context.Context, dir string, encodings []string) (*Console, error) {
	return NewConsole(ctx, Options{Dir: dir, Encodings: encodings})
}

// Reload reads the directory again and swaps the table set in one step.
// Running queries finish on the previous set.
func (c *Console) Reload(ctx context.Context) error {
	start := time.Now()

	tables, err := loadDir(ctx, c.opts.Dir, c.opts.Encodings)
	if err != nil {
		logger.Errorf(ctx, "loadDir: %s", err.Error())
		return err
	}
	set, err := buildTableSet(ctx, tables)
	if err != nil {
		logger.Errorf(ctx, "buildTableSet: %s", err.Error())
		return err
	}

	c.mx.Lock()
	old := c.set
	c.set = set
	c.mx.Unlock()
	old.close()

	logger.Info(ctx, "console tables loaded",
		zap.String("dir", c.opts.Dir),
		zap.Int("tables", len(tables)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (c *Console) Close() {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.set.close()
	c.set = nil
}

// snapshot returns the current set with the read lock held; call release when done.
func (c *Console) snapshot() (set *tableSet, release func(), err error) {
	c.mx.RLock()
	if c.set == nil || len(c.set.tables) == 0 {
		c.mx.RUnlock()
		return nil, nil, constants.ErrConsoleNotLoaded
	}
	return c.set, c.mx.RUnlock, nil
}

func (c *Console) Tables() []domain.TableInfo {
	c.mx.RLock()
	defer c.mx.RUnlock()

	if c.set == nil {
		return nil
	}
	infos := make([]domain.TableInfo, 0, len(c.set.tables))
	for _, t := range c.set.tables {
		infos = append(infos, t.Info())
	}
	return infos
}

func (c *Console) table(name string) (*Table, func(), error) {
	set, release, err := c.snapshot()
	if err != nil {
		return nil, nil, err
	}
	t, ok := set.byName[name]
	if !ok {
		release()
		return nil, nil, constants.ErrTableNotFound
	}
	return t, release, nil
}

// Preview returns the first n rows of a table, n clamped to 5..100.
func (c *Console) Preview(name string, n int) (*domain.QueryResult, error) {
	t, release, err := c.table(name)
	if err != nil {
		return nil, err
	}
	defer release()

	n = max(constants.PreviewMinRows, min(n, constants.PreviewMaxRows))
	n = min(n, len(t.Rows))

	return &domain.QueryResult{
		Columns:   t.Columns,
		Rows:      copyRows(t.Rows[:n]),
		Truncated: n < len(t.Rows),
		Total:     len(t.Rows),
	}, nil
}

// DistinctValues lists the sorted distinct values of a column. When the column
// has more than DistinctMaxValues of them, values is nil and tooMany is set:
// the caller should fall back to a substring search.
func (c *Console) DistinctValues(name, column string) (values []string, tooMany bool, err error) {
	t, release, err := c.table(name)
	if err != nil {
		return nil, false, err
	}
	defer release()

	ci := t.columnIndex(column)
	if ci < 0 {
		return nil, false, constants.ErrColumnNotFound
	}

	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		seen[row[ci]] = struct{}{}
		if len(seen) > constants.DistinctMaxValues {
			return nil, true, nil
		}
	}

	values = make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, false, nil
}

// Filter keeps rows whose column contains value, ignoring case. At most
// FilterMaxRows rows are returned; Total counts every match.
func (c *Console) Filter(name, column, value string) (*domain.QueryResult, error) {
	t, release, err := c.table(name)
	if err != nil {
		return nil, err
	}
	defer release()

	ci := t.columnIndex(column)
	if ci < 0 {
		return nil, constants.ErrColumnNotFound
	}

	fold := cases.Fold()
	needle := fold.String(value)

	res := &domain.QueryResult{Columns: t.Columns, Rows: make([][]string, 0)}
	for _, row := range t.Rows {
		if !strings.Contains(fold.String(row[ci]), needle) {
			continue
		}
		res.Total++
		if len(res.Rows) < constants.FilterMaxRows {
			res.Rows = append(res.Rows, append([]string(nil), row...))
		}
	}
	res.Truncated = res.Total > len(res.Rows)

	return res, nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
