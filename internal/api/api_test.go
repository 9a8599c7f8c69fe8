package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/service/auth"
	"github.com/ougirez/sisagua/internal/service/console"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func writeTSV(t *testing.T, dir, name string, rows ...[]string) {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

type fixture struct {
	dir string
	api *APIService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	writeTSV(t, dir, "Estado.csv",
		domain.TableEstado.Columns,
		[]string{"PR", "Sul"},
		[]string{"SP", "Sudeste"},
	)
	writeTSV(t, dir, "Municipio.csv",
		domain.TableMunicipio.Columns,
		[]string{"410690", "2ª RS", "Curitiba", "PR"},
		[]string{"355030", "GVE 1", "São Paulo", "SP"},
	)

	cons, err := console.Load(context.Background(), dir, nil)
	require.NoError(t, err)
	t.Cleanup(cons.Close)

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "sisagua_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	svc, err := NewAPIService(cons, auth.NewService(testSecret), Options{Gatherer: reg})
	require.NoError(t, err)

	return &fixture{dir: dir, api: svc}
}

func (f *fixture) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	f.api.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListAndPreviewTables(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tables := decode[[]domain.TableInfo](t, rec)
	require.Len(t, tables, 2)
	assert.Equal(t, "Estado", tables[0].Name)
	assert.Equal(t, 2, tables[1].Rows)
	assert.NotEmpty(t, rec.Header().Get(constants.HeaderRequestID))

	rec = f.do(t, http.MethodGet, "/api/v1/tables/Municipio?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.QueryResult](t, rec)
	assert.Equal(t, domain.TableMunicipio.Columns, res.Columns)
	assert.Len(t, res.Rows, 2)

	rec = f.do(t, http.MethodGet, "/api/v1/tables/municipio", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/tables/Municipio?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValuesAndFilter(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/tables/Municipio/values?column=fk_Estado_UF", "")
	require.Equal(t, http.StatusOK, rec.Code)
	values := decode[domain.DistinctValuesResponse](t, rec)
	assert.Equal(t, []string{"PR", "SP"}, values.Values)
	assert.False(t, values.TooMany)

	rec = f.do(t, http.MethodGet, "/api/v1/tables/Municipio/values", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/tables/Municipio/filter?column=NomeMunicipio&value=s%C3%83O", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.QueryResult](t, rec)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "355030", res.Rows[0][0])

	rec = f.do(t, http.MethodGet, "/api/v1/tables/Municipio/filter?column=Nome&value=x", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunQuery(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/queries/run", `{"sql": "SELECT m.NomeMunicipio, e.Regiao FROM Municipio m JOIN Estado e ON m.fk_Estado_UF = e.UF ORDER BY 1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[domain.QueryResult](t, rec)
	assert.Equal(t, [][]string{{"Curitiba", "Sul"}, {"São Paulo", "Sudeste"}}, res.Rows)

	rec = f.do(t, http.MethodPost, "/api/v1/queries/run", `{"sql": "SELECT * FROM municipio"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[domain.ErrorResponse](t, rec)
	assert.Contains(t, errResp.Message, "unknown table")
	assert.Equal(t, constants.CaseSensitivityHint, errResp.Hint)

	rec = f.do(t, http.MethodPost, "/api/v1/queries/run", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/queries/run", `{"sql": "SELECT 1", "preset": "filtro_data"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/queries/run", `{"preset": "nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/queries/run", `{"sql": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresetsAndDownload(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/queries/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	presets := decode[[]domain.Preset](t, rec)
	require.NotEmpty(t, presets)
	assert.Equal(t, "mais_10_amostras", presets[0].Name)

	rec = f.do(t, http.MethodPost, "/api/v1/queries/download", `{"sql": "SELECT UF, Regiao FROM Estado ORDER BY UF"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UF,Regiao\nPR,Sul\nSP,Sudeste\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "resultado.csv")

	rec = f.do(t, http.MethodPost, "/api/v1/queries/download?format=xlsx", `{"sql": "SELECT UF FROM Estado"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = f.do(t, http.MethodPost, "/api/v1/queries/download?format=pdf", `{"sql": "SELECT UF FROM Estado"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParameterStatsWithoutAnalise(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/stats/parameters", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReloadRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/console/reload", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/console/reload", "", "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	writeTSV(t, f.dir, "Classificacao.csv", domain.TableClassificacao.Columns, []string{"Cianotoxinas", "Microcistinas"})

	token, err := auth.NewService(testSecret).IssueAdminToken(context.Background(), time.Minute)
	require.NoError(t, err)

	rec = f.do(t, http.MethodPost, "/api/v1/console/reload", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[domain.ReloadResponse](t, rec).Tables, 3)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/console/reload", nil)
	req.AddCookie(&http.Cookie{Name: constants.CookieKeySecretToken, Value: token})
	cookieRec := httptest.NewRecorder()
	f.api.ServeHTTP(cookieRec, req)
	assert.Equal(t, http.StatusOK, cookieRec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sisagua_test_total 1")
}
