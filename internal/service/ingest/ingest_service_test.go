package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/domain/dto"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   store.Store
	service *Service
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()

	s, err := store.Open(context.Background(), store.Options{Driver: store.DriverSQLite, DSN: ":memory:", Migrate: true})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	reg := prometheus.NewRegistry()
	svc, err := NewIngestService(s, Options{Delimiter: ';', Policy: policy}, reg)
	require.NoError(t, err)

	return &fixture{store: s, service: svc, reg: reg}
}

// fakeRow builds a source row with every column filled; overrides win.
func fakeRow(faker *gofakeit.Faker, overrides map[string]string) map[string]string {
	row := map[string]string{
		dto.ColRegiao:          "Sul",
		dto.ColUF:              "PR",
		dto.ColCodigoIBGE:      "410690",
		dto.ColRegionalDeSaude: "2ª RS Metropolitana",
		dto.ColMunicipio:       faker.City(),
		dto.ColCodigoForma:     "S410690000001",
		dto.ColTipoForma:       "SAA",
		dto.ColNomeETA:         "ETA " + faker.LastName(),
		dto.ColNomeForma:       "SAA " + faker.LastName(),
		dto.ColNumeroAmostra:   faker.Numerify("######"),
		dto.ColDataRegistro:    faker.Date().Format("2006-01-02"),
		dto.ColDataColeta:      "2014-10-21",
		dto.ColDescricaoLocal:  faker.Street(),
		dto.ColZona:            "Urbana",
		dto.ColCategoriaArea:   "Bairro",
		dto.ColArea:            faker.StreetName(),
		dto.ColTipoLocal:       "Ponto de consumo",
		dto.ColLocal:           faker.Company(),
		dto.ColLatitude:        fmt.Sprintf("%.6f", faker.Latitude()),
		dto.ColLongitude:       fmt.Sprintf("%.6f", faker.Longitude()),
		dto.ColProcedencia:     "Rede de distribuição",
		dto.ColPontoColeta:     "Torneira",
		dto.ColMotivo:          "Rotina",
		dto.ColHora:            "09:30",
		dto.ColGrupo:           "Cianotoxinas",
		dto.ColParametro:       "Microcistinas",
		dto.ColResultado:       fmt.Sprintf("%.2f", faker.Float64Range(0, 1)),
		dto.ColDataLaudo:       "2014-10-28",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func buildCSV(t *testing.T, rows ...map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	require.NoError(t, w.Write(dto.Columns))
	for _, row := range rows {
		record := make([]string, len(dto.Columns))
		for i, col := range dto.Columns {
			record[i] = row[col]
		}
		require.NoError(t, w.Write(record))
	}
	w.Flush()
	require.NoError(t, w.Error())

	return buf.String()
}

func counts(t *testing.T, s store.Store) map[string]int64 {
	t.Helper()

	res := make(map[string]int64, len(domain.Tables))
	for _, table := range domain.Tables {
		n, err := s.Count(context.Background(), table)
		require.NoError(t, err)
		res[table.Name] = n
	}
	return res
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, PolicyBestEffort)
	faker := gofakeit.New(42)

	input := buildCSV(t,
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "1"}),
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "2", dto.ColParametro: "Cilindrospermopsina"}),
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "3", dto.ColCodigoIBGE: "410830", dto.ColMunicipio: "Foz do Iguaçu"}),
	)

	report, err := f.service.Ingest(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 3, report.Applied)
	assert.Equal(t, 1, report.Entities[domain.TableEstado.Name].Inserted)
	assert.Equal(t, 2, report.Entities[domain.TableEstado.Name].Skipped)
	assert.Equal(t, 2, report.Entities[domain.TableMunicipio.Name].Inserted)
	assert.Equal(t, 3, report.Entities[domain.TableAnalise.Name].Inserted)

	first := counts(t, f.store)
	assert.Equal(t, map[string]int64{
		"Estado":                     1,
		"Municipio":                  2,
		"Abastecimento":              1,
		"Abastecido":                 2,
		"Coleta_Amostra_LocalColeta": 3,
		"Classificacao":              2,
		"Analise":                    3,
	}, first)

	report, err = f.service.Ingest(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Applied)
	assert.Zero(t, report.Entities[domain.TableAnalise.Name].Inserted)
	assert.Equal(t, 3, report.Entities[domain.TableAnalise.Name].Skipped)
	assert.Equal(t, first, counts(t, f.store))

	inserted := f.service.metrics.records.WithLabelValues(domain.TableAnalise.Name, "inserted")
	skipped := f.service.metrics.records.WithLabelValues(domain.TableAnalise.Name, "skipped")
	assert.Equal(t, float64(3), testutil.ToFloat64(inserted))
	assert.Equal(t, float64(3), testutil.ToFloat64(skipped))
}

func TestIngestKeepsReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, PolicyBestEffort)
	faker := gofakeit.New(7)

	rows := make([]map[string]string, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, fakeRow(faker, map[string]string{
			dto.ColUF:            faker.RandomString([]string{"PR", "SC", "RS"}),
			dto.ColCodigoIBGE:    faker.Numerify("4#####"),
			dto.ColNumeroAmostra: faker.Numerify("#####"),
			dto.ColParametro:     faker.RandomString([]string{"Microcistinas", "Saxitoxinas", "Cilindrospermopsina"}),
		}))
	}

	_, err := f.service.Ingest(ctx, strings.NewReader(buildCSV(t, rows...)))
	require.NoError(t, err)

	for _, table := range domain.Tables {
		dump, err := f.store.Dump(ctx, table)
		require.NoError(t, err)

		for _, row := range dump {
			for _, ref := range parentRefs(table, row) {
				ok, err := f.store.Exists(ctx, ref.Table, ref.Key)
				require.NoError(t, err)
				assert.True(t, ok, "%s row %v references missing %s %v", table.Name, row, ref.Table.Name, ref.Key)
			}
		}
	}
}

func parentRefs(table *domain.TableSpec, row []string) []domain.Reference {
	col := func(name string) string {
		return row[table.ColumnIndex(name)]
	}
	switch table {
	case domain.TableMunicipio:
		return []domain.Reference{{Table: domain.TableEstado, Key: []string{col("fk_Estado_UF")}}}
	case domain.TableAbastecido:
		return []domain.Reference{
			{Table: domain.TableMunicipio, Key: []string{col("fk_Municipio_CodigoDoIBGE")}},
			{Table: domain.TableAbastecimento, Key: []string{col("fk_Abastecimento_CodigoFormaDeAbastecimento")}},
		}
	case domain.TableAmostra:
		return []domain.Reference{{Table: domain.TableMunicipio, Key: []string{col("fk_Municipio_CodigoDoIBGE")}}}
	case domain.TableAnalise:
		return []domain.Reference{
			{Table: domain.TableAmostra, Key: []string{col("fk_Amostra_DataColeta"), col("fk_Amostra_Hora"), col("fk_Amostra_NumeroDaAmostra")}},
			{Table: domain.TableClassificacao, Key: []string{col("fk_Classificacao_Parametro_ciano_")}},
		}
	default:
		return nil
	}
}

func TestIngestMissingColumnFailsFast(t *testing.T) {
	f := newFixture(t, PolicyBestEffort)

	header := make([]string, 0, len(dto.Columns))
	for _, col := range dto.Columns {
		if col != dto.ColResultado {
			header = append(header, col)
		}
	}
	input := strings.Join(header, ";") + "\n"

	report, err := f.service.Ingest(context.Background(), strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, report)

	var missing *constants.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, dto.ColResultado, missing.Field)
	assert.True(t, missing.InHeader)

	assert.Zero(t, counts(t, f.store)["Estado"])
}

func TestIngestBestEffortCollectsRowErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, PolicyBestEffort)
	faker := gofakeit.New(3)

	input := buildCSV(t,
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "1"}),
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "2", dto.ColUF: ""}),
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "3"}),
	)
	input += "only;three;fields\n"

	report, err := f.service.Ingest(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 2, report.Applied)
	require.Len(t, report.Errors, 2)

	var missing *constants.MissingFieldError
	require.True(t, errors.As(report.Errors[0], &missing))
	assert.Equal(t, dto.ColUF, missing.Field)
	assert.Equal(t, 3, report.Errors[0].Line)

	var malformed *MalformedRowError
	require.True(t, errors.As(report.Errors[1], &malformed))
	assert.Equal(t, 5, report.Errors[1].Line)

	assert.Error(t, report.Err())
	assert.EqualValues(t, 2, counts(t, f.store)["Analise"])

	assert.Equal(t, float64(1), testutil.ToFloat64(f.service.metrics.rowErrors.WithLabelValues("missing_field")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.service.metrics.rowErrors.WithLabelValues("malformed")))
}

func TestIngestAllOrNothingRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, PolicyAllOrNothing)
	faker := gofakeit.New(11)

	input := buildCSV(t,
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "1"}),
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "2"}),
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "3", dto.ColHora: ""}),
	)

	report, err := f.service.Ingest(ctx, strings.NewReader(input))
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Zero(t, report.Applied)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 4, report.Errors[0].Line)

	for table, n := range counts(t, f.store) {
		assert.Zero(t, n, table)
	}
	assert.Zero(t, testutil.ToFloat64(f.service.metrics.records.WithLabelValues(domain.TableEstado.Name, "inserted")))
}

func TestIngestAllOrNothingCommits(t *testing.T) {
	f := newFixture(t, PolicyAllOrNothing)
	faker := gofakeit.New(5)

	input := buildCSV(t,
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "1"}),
		fakeRow(faker, map[string]string{dto.ColNumeroAmostra: "2"}),
	)

	report, err := f.service.Ingest(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	assert.EqualValues(t, 2, counts(t, f.store)["Coleta_Amostra_LocalColeta"])
}

func TestIngestCancelledContext(t *testing.T) {
	f := newFixture(t, PolicyBestEffort)
	faker := gofakeit.New(9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Ingest(ctx, strings.NewReader(buildCSV(t, fakeRow(faker, nil))))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyBestEffort, p)

	p, err = ParsePolicy("all-or-nothing")
	require.NoError(t, err)
	assert.Equal(t, PolicyAllOrNothing, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}

func TestNewIngestServiceSharesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewIngestService(nil, Options{}, reg)
	require.NoError(t, err)
	second, err := NewIngestService(nil, Options{}, reg)
	require.NoError(t, err)

	assert.Same(t, first.metrics.records, second.metrics.records)
	assert.Equal(t, ',', second.opts.Delimiter)
}
