package export

import (
	"context"
	"encoding/csv"
	"fmt"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"github.com/ougirez/sisagua/internal/pkg/store"
	"go.uber.org/zap"
)

const FileExt = ".csv"

type File struct {
	Table    string `json:"table"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
}

type Service struct {
	store store.Store
	sink  Sink
}

func NewExportService(store store.Store, sink Sink) *Service {
	return &Service{store: store, sink: sink}
}

// Export writes every relation, in dependency order, as a tab-separated file
// named after the relation. The header row carries the exact column names.
func (s *Service) Export(ctx context.Context) ([]File, error) {
	files := make([]File, 0, len(domain.Tables))
	for _, table := range domain.Tables {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		file, err := s.exportTable(ctx, table)
		if err != nil {
			logger.Errorf(ctx, "export %s: %s", table.Name, err.Error())
			return files, fmt.Errorf("export %s: %w", table.Name, err)
		}
		logger.Info(ctx, "table exported",
			zap.String("table", file.Table),
			zap.String("location", file.Location),
			zap.Int("rows", file.Rows),
		)
		files = append(files, file)
	}

	return files, nil
}

func (s *Service) exportTable(ctx context.Context, table *domain.TableSpec) (File, error) {
	rows, err := s.store.Dump(ctx, table)
	if err != nil {
		return File{}, err
	}

	name := table.Name + FileExt
	wc, err := s.sink.Create(ctx, name)
	if err != nil {
		return File{}, err
	}

	w := csv.NewWriter(wc)
	w.Comma = '\t'
	if err = w.Write(table.Columns); err != nil {
		_ = wc.Close()
		return File{}, err
	}
	if err = w.WriteAll(rows); err != nil {
		_ = wc.Close()
		return File{}, err
	}
	if err = wc.Close(); err != nil {
		return File{}, err
	}

	return File{Table: table.Name, Location: s.sink.Location(name), Rows: len(rows)}, nil
}
