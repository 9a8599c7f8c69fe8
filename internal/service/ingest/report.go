package ingest

import (
	"errors"
	"fmt"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/store"
)

type Stats struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Report summarises one ingestion run.
type Report struct {
	RunID    string
	Policy   Policy
	Rows     int
	Applied  int
	Entities map[string]*Stats
	Errors   []*RowError
}

func newReport(runID string, policy Policy) *Report {
	entities := make(map[string]*Stats, len(domain.Tables))
	for _, t := range domain.Tables {
		entities[t.Name] = &Stats{}
	}
	return &Report{RunID: runID, Policy: policy, Entities: entities}
}

// Err joins every row error, nil when all rows were applied.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

type outcome struct {
	table   string
	outcome store.Outcome
}

func (r *Report) add(outcomes []outcome) {
	for _, o := range outcomes {
		st := r.Entities[o.table]
		if o.outcome == store.OutcomeInserted {
			st.Inserted++
		} else {
			st.Skipped++
		}
	}
}
