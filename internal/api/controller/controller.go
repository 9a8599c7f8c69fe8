package controller

import (
	"context"

	"github.com/ougirez/sisagua/internal/domain"
)

// Console is the query console the HTTP handlers work against.
type Console interface {
	Tables() []domain.TableInfo
	Preview(name string, n int) (*domain.QueryResult, error)
	DistinctValues(name, column string) ([]string, bool, error)
	Filter(name, column, value string) (*domain.QueryResult, error)
	Presets() []domain.Preset
	Run(ctx context.Context, query string, args ...any) (*domain.QueryResult, error)
	RunPreset(ctx context.Context, name string, params map[string]string) (*domain.QueryResult, error)
	ParameterStats() ([]domain.ParameterStat, error)
	Reload(ctx context.Context) error
}

type Controller struct {
	console Console
}

func NewController(console Console) *Controller {
	return &Controller{console: console}
}
