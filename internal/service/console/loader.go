package console

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"github.com/ougirez/sisagua/internal/pkg/utils"
)

// Table is one loaded file. Every value is already normalized.
type Table struct {
	Name     string
	Columns  []string
	Rows     [][]string
	Skipped  int
	Encoding string
}

func (t *Table) Info() domain.TableInfo {
	return domain.TableInfo{
		Name:        t.Name,
		Columns:     t.Columns,
		Rows:        len(t.Rows),
		SkippedRows: t.Skipped,
		Encoding:    t.Encoding,
	}
}

func (t *Table) columnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

func isTableFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv":
		return true
	default:
		return false
	}
}

// loadDir reads every table file of dir in name order.
func loadDir(ctx context.Context, dir string, encodings []string) ([]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isTableFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tables := make([]*Table, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		table, err := loadFile(filepath.Join(dir, name), encodings)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[table.Name]; dup {
			logger.Warnf(ctx, "%s: table %s already loaded from %s, skipped", name, table.Name, prev)
			continue
		}
		seen[table.Name] = name

		if table.Skipped > 0 {
			logger.Warnf(ctx, "%s: skipped %d malformed rows", name, table.Skipped)
		}
		logger.Debugf(ctx, "loaded %s: %d rows, %d columns, %s", table.Name, len(table.Rows), len(table.Columns), table.Encoding)
		tables = append(tables, table)
	}

	return tables, nil
}

func loadFile(path string, encodings []string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text, enc, dropped, ok := decodeFile(data, encodings)
	if !ok {
		return nil, &constants.FileDecodeError{File: filepath.Base(path), Tried: encodings}
	}

	base := filepath.Base(path)
	table, err := parseTable(strings.TrimSuffix(base, filepath.Ext(base)), strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", base, err)
	}
	table.Encoding = enc
	table.Skipped += dropped

	return table, nil
}

// parseTable reads tab-separated text. Rows that do not split into exactly the
// header's columns are skipped and counted.
func parseTable(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	table := &Table{Name: name, Columns: headerNames(header)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil || len(record) > len(table.Columns) {
			table.Skipped++
			continue
		}

		// короткие строки дополняются пустыми значениями
		row := make([]string, len(table.Columns))
		for i, v := range record {
			row[i] = utils.NormalizeCell(v, constants.MaxValueLen)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// headerNames trims column names, names empty ones and makes duplicates unique.
func headerNames(header []string) []string {
	cols := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n)
		} else {
			seen[name] = 1
		}
		cols[i] = name
	}
	return cols
}
