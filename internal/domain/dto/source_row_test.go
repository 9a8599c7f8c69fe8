package dto

import (
	"errors"
	"testing"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func fullRecord() []string {
	values := map[string]string{
		ColRegiao:          "Sul",
		ColUF:              "PR",
		ColCodigoIBGE:      "410690",
		ColRegionalDeSaude: "2ª RS Metropolitana",
		ColMunicipio:       "Curitiba",
		ColCodigoForma:     "S410690000001",
		ColTipoForma:       "SAA",
		ColNomeETA:         "ETA Iguaçu",
		ColNomeForma:       "SAA Curitiba",
		ColNumeroAmostra:   "  1234  ",
		ColDataColeta:      "2014-10-21",
		ColHora:            "09:30",
		ColGrupo:           "Cianotoxinas",
		ColParametro:       "Microcistinas",
		ColResultado:       "0.12",
		ColDataLaudo:       "2014-10-28",
	}
	record := make([]string, len(Columns))
	for i, col := range Columns {
		record[i] = values[col]
	}
	return record
}

func TestValidateHeader(t *testing.T) {
	t.Run("all columns", func(t *testing.T) {
		index, err := ValidateHeader(Columns)
		require.NoError(t, err)
		assert.Equal(t, 0, index[ColRegiao])
		assert.Equal(t, len(Columns)-1, index[ColDataLaudo])
	})

	t.Run("bom and decomposed accents", func(t *testing.T) {
		header := append([]string(nil), Columns...)
		header[0] = "\ufeff" + norm.NFD.String(header[0])
		header[2] = " " + norm.NFD.String(ColCodigoIBGE) + " "
		_, err := ValidateHeader(header)
		require.NoError(t, err)
	})

	t.Run("missing column", func(t *testing.T) {
		header := make([]string, 0, len(Columns))
		for _, c := range Columns {
			if c != ColHora {
				header = append(header, c)
			}
		}
		_, err := ValidateHeader(header)
		var mfe *constants.MissingFieldError
		require.True(t, errors.As(err, &mfe))
		assert.Equal(t, ColHora, mfe.Field)
		assert.True(t, mfe.InHeader)
		assert.Contains(t, err.Error(), "missing column")
	})
}

func TestDecompose(t *testing.T) {
	index, err := ValidateHeader(Columns)
	require.NoError(t, err)

	records, err := NewSourceRow(2, index, fullRecord()).Decompose()
	require.NoError(t, err)
	require.Len(t, records, len(domain.Tables))

	for i, rec := range records {
		assert.Same(t, domain.Tables[i], rec.Table(), "record %d out of order", i)
		assert.Len(t, rec.Values(), len(rec.Table().Columns))
		assert.Equal(t, rec.Table().KeyOf(rec.Values()), rec.Key())
	}

	sample := records[4].(*domain.Sample)
	assert.Equal(t, "1234", sample.Number)
	assert.Equal(t, []string{"2014-10-21", "09:30", "1234"}, sample.Key())

	analysis := records[6].(*domain.Analysis)
	assert.Equal(t, []domain.Reference{
		{Table: domain.TableAmostra, Key: []string{"2014-10-21", "09:30", "1234"}},
		{Table: domain.TableClassificacao, Key: []string{"Microcistinas"}},
	}, analysis.Parents())
}

func TestDecomposeMissingRequiredValue(t *testing.T) {
	index, err := ValidateHeader(Columns)
	require.NoError(t, err)

	record := fullRecord()
	record[index[ColParametro]] = "   "

	_, err = NewSourceRow(3, index, record).Decompose()
	var mfe *constants.MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, ColParametro, mfe.Field)
	assert.False(t, mfe.InHeader)
}
