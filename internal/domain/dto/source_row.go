package dto

import (
	"strings"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"golang.org/x/text/unicode/norm"
)

// Колонки исходного CSV SISAGUA.
const (
	ColRegiao          = "Região Geográfica"
	ColUF              = "UF"
	ColCodigoIBGE      = "Código IBGE"
	ColRegionalDeSaude = "Regional de Saúde"
	ColMunicipio       = "Município"
	ColCodigoForma     = "Código Forma de Abastecimento"
	ColTipoForma       = "Tipo da Forma de Abastecimento"
	ColNomeETA         = "Nome da ETA/UTA"
	ColNomeForma       = "Nome da Forma de Abastecimento"
	ColNumeroAmostra   = "Número da amostra"
	ColDataRegistro    = "Data de Registro no SISAGUA"
	ColDataColeta      = "Data da Coleta"
	ColDescricaoLocal  = "Descrição do Local"
	ColZona            = "Zona"
	ColCategoriaArea   = "Categoria Área"
	ColArea            = "Área"
	ColTipoLocal       = "Tipo do Local"
	ColLocal           = "Local"
	ColLatitude        = "Latitude"
	ColLongitude       = "Longitude"
	ColProcedencia     = "Procedência da Coleta"
	ColPontoColeta     = "Ponto de Coleta"
	ColMotivo          = "Motivo da Coleta"
	ColHora            = "Hora da coleta"
	ColGrupo           = "Grupo"
	ColParametro       = "Parâmetro (ciano)"
	ColResultado       = "Resultado"
	ColDataLaudo       = "Data do Laudo"
)

// Columns lists every source column the header must contain.
var Columns = []string{
	ColRegiao, ColUF, ColCodigoIBGE, ColRegionalDeSaude, ColMunicipio,
	ColCodigoForma, ColTipoForma, ColNomeETA, ColNomeForma,
	ColNumeroAmostra, ColDataRegistro, ColDataColeta, ColDescricaoLocal, ColZona,
	ColCategoriaArea, ColArea, ColTipoLocal, ColLocal, ColLatitude, ColLongitude,
	ColProcedencia, ColPontoColeta, ColMotivo, ColHora,
	ColGrupo, ColParametro, ColResultado, ColDataLaudo,
}

// RequiredColumns must carry a non-empty value: they end up in primary or foreign keys.
var RequiredColumns = []string{
	ColUF, ColCodigoIBGE, ColCodigoForma, ColNumeroAmostra, ColDataColeta, ColHora, ColParametro,
}

// NormalizeHeader приводит имя колонки к NFC и убирает BOM и пробелы по краям.
func NormalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateHeader checks that every source column is present and returns the
// column → position index for the normalized header.
func ValidateHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, &constants.MissingFieldError{Field: col, InHeader: true}
		}
	}

	return index, nil
}

// SourceRow is one denormalized SISAGUA line keyed by source column name.
type SourceRow struct {
	Line   int
	fields map[string]string
}

func NewSourceRow(line int, index map[string]int, record []string) *SourceRow {
	fields := make(map[string]string, len(Columns))
	for _, col := range Columns {
		if i, ok := index[col]; ok && i < len(record) {
			fields[col] = strings.TrimSpace(record[i])
		}
	}
	return &SourceRow{Line: line, fields: fields}
}

func (r *SourceRow) Get(col string) string {
	return r.fields[col]
}

func (r *SourceRow) Validate() error {
	for _, col := range RequiredColumns {
		if r.fields[col] == "" {
			return &constants.MissingFieldError{Field: col}
		}
	}
	return nil
}

// Decompose splits the row into the seven records in ingestion order:
// Estado, Municipio, Abastecimento, Abastecido, amostra, Classificacao, Analise.
func (r *SourceRow) Decompose() ([]domain.Record, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	ibge := r.Get(ColCodigoIBGE)
	supplyCode := r.Get(ColCodigoForma)
	parameter := r.Get(ColParametro)

	sample := &domain.Sample{
		Number:          r.Get(ColNumeroAmostra),
		RegisteredAt:    r.Get(ColDataRegistro),
		CollectedOn:     r.Get(ColDataColeta),
		SiteDescription: r.Get(ColDescricaoLocal),
		Zone:            r.Get(ColZona),
		AreaCategory:    r.Get(ColCategoriaArea),
		Area:            r.Get(ColArea),
		SiteType:        r.Get(ColTipoLocal),
		SiteName:        r.Get(ColLocal),
		Latitude:        r.Get(ColLatitude),
		Longitude:       r.Get(ColLongitude),
		IBGECode:        ibge,
		Provenance:      r.Get(ColProcedencia),
		CollectionPoint: r.Get(ColPontoColeta),
		Reason:          r.Get(ColMotivo),
		Hour:            r.Get(ColHora),
	}

	return []domain.Record{
		&domain.RegionState{UF: r.Get(ColUF), Region: r.Get(ColRegiao)},
		&domain.Municipality{
			IBGECode:     ibge,
			HealthRegion: r.Get(ColRegionalDeSaude),
			Name:         r.Get(ColMunicipio),
			UF:           r.Get(ColUF),
		},
		&domain.SupplyType{
			Code:      supplyCode,
			Type:      r.Get(ColTipoForma),
			PlantName: r.Get(ColNomeETA),
			Name:      r.Get(ColNomeForma),
		},
		&domain.SupplyLink{IBGECode: ibge, SupplyCode: supplyCode},
		sample,
		&domain.ParameterClass{Group: r.Get(ColGrupo), Parameter: parameter},
		&domain.Analysis{
			CollectedOn:  sample.CollectedOn,
			Hour:         sample.Hour,
			SampleNumber: sample.Number,
			Parameter:    parameter,
			Result:       r.Get(ColResultado),
			ReportedOn:   r.Get(ColDataLaudo),
		},
	}, nil
}
