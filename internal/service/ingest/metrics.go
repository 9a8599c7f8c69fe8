package ingest

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	records   *prometheus.CounterVec
	rowErrors *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	records, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: "sisagua",
		Subsystem: "ingest",
		Name:      "records_total",
		Help:      "Records processed by the normalizer, by entity and outcome (inserted or skipped).",
	}, []string{"entity", "outcome"})
	if err != nil {
		return nil, err
	}

	rowErrors, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: "sisagua",
		Subsystem: "ingest",
		Name:      "row_errors_total",
		Help:      "Source rows rejected by the normalizer, by error kind.",
	}, []string{"kind"})
	if err != nil {
		return nil, err
	}

	return &metrics{records: records, rowErrors: rowErrors}, nil
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) (*prometheus.CounterVec, error) {
	vec := prometheus.NewCounterVec(opts, labels)
	if reg == nil {
		return vec, nil
	}

	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}

	return vec, nil
}
