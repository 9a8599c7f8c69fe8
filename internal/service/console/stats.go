package console

import (
	"sort"
	"strings"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/shopspring/decimal"
)

const statsPrecision = 6

type paramAgg struct {
	stat     domain.ParameterStat
	sum      decimal.Decimal
	min, max decimal.Decimal
}

// ParameterStats computes exact count/mean/min/max of numeric Analise results
// per parameter. Non-numeric results (e.g. "<0,15", "Ausente") are counted as ignored.
func (c *Console) ParameterStats() ([]domain.ParameterStat, error) {
	set, release, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	defer release()

	analise, ok := set.byName[domain.TableAnalise.Name]
	if !ok {
		return nil, constants.ErrTableNotFound
	}
	paramCol := analise.columnIndex("fk_Classificacao_Parametro_ciano_")
	resultCol := analise.columnIndex("Resultado")
	if paramCol < 0 || resultCol < 0 {
		return nil, constants.ErrColumnNotFound
	}

	groups := make(map[string]string)
	if class, ok := set.byName[domain.TableClassificacao.Name]; ok {
		gi, pi := class.columnIndex("Grupo"), class.columnIndex("Parametro_ciano_")
		if gi >= 0 && pi >= 0 {
			for _, row := range class.Rows {
				groups[row[pi]] = row[gi]
			}
		}
	}

	aggs := make(map[string]*paramAgg)
	for _, row := range analise.Rows {
		param := row[paramCol]
		agg, ok := aggs[param]
		if !ok {
			agg = &paramAgg{stat: domain.ParameterStat{Group: groups[param], Parameter: param}}
			aggs[param] = agg
		}

		value, err := parseResult(row[resultCol])
		if err != nil {
			agg.stat.Ignored++
			continue
		}

		if agg.stat.Count == 0 {
			agg.min, agg.max = value, value
		} else {
			agg.min = decimal.Min(agg.min, value)
			agg.max = decimal.Max(agg.max, value)
		}
		agg.sum = agg.sum.Add(value)
		agg.stat.Count++
	}

	stats := make([]domain.ParameterStat, 0, len(aggs))
	for _, agg := range aggs {
		st := agg.stat
		if st.Count > 0 {
			st.Mean = agg.sum.DivRound(decimal.NewFromInt(int64(st.Count)), statsPrecision).String()
			st.Min = agg.min.String()
			st.Max = agg.max.String()
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Group != stats[j].Group {
			return stats[i].Group < stats[j].Group
		}
		return stats[i].Parameter < stats[j].Parameter
	})

	return stats, nil
}

// parseResult accepts both decimal separators used in the source data.
func parseResult(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}
