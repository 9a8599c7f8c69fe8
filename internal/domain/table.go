package domain

// TableSpec describes one destination relation. Column and relation names are
// case-sensitive and match the exported file headers.
type TableSpec struct {
	Name    string
	Columns []string
	Key     []string
}

// Reference points from a record to the parent row it depends on.
type Reference struct {
	Table *TableSpec
	Key   []string
}

// Record is one row of a destination relation.
type Record interface {
	Table() *TableSpec
	// Values are aligned with Table().Columns.
	Values() []string
	Key() []string
	Parents() []Reference
}

var (
	TableEstado = &TableSpec{
		Name:    "Estado",
		Columns: []string{"UF", "Regiao"},
		Key:     []string{"UF"},
	}
	TableMunicipio = &TableSpec{
		Name:    "Municipio",
		Columns: []string{"CodigoDoIBGE", "RegionalDeSaude", "NomeMunicipio", "fk_Estado_UF"},
		Key:     []string{"CodigoDoIBGE"},
	}
	TableAbastecimento = &TableSpec{
		Name:    "Abastecimento",
		Columns: []string{"CodigoFormaDeAbastecimento", "TipoDaFormaDeAbastecimento", "NomeETA_UTA", "NomeDaFormaDeAbastecimento"},
		Key:     []string{"CodigoFormaDeAbastecimento"},
	}
	TableAbastecido = &TableSpec{
		Name:    "Abastecido",
		Columns: []string{"fk_Municipio_CodigoDoIBGE", "fk_Abastecimento_CodigoFormaDeAbastecimento"},
		Key:     []string{"fk_Municipio_CodigoDoIBGE", "fk_Abastecimento_CodigoFormaDeAbastecimento"},
	}
	TableAmostra = &TableSpec{
		Name: "Coleta_Amostra_LocalColeta",
		Columns: []string{
			"NumeroDaAmostra", "DataDeRegistroNoSISAGUA", "DataColeta", "DescricaoDoLocal", "Zona",
			"CategoriaArea", "Area", "TipoDoLocal", "NomeLocal", "Latitude", "Longitude",
			"fk_Municipio_CodigoDoIBGE", "Procedencia", "PontoDeColeta", "Motivo", "Hora",
		},
		Key: []string{"DataColeta", "Hora", "NumeroDaAmostra"},
	}
	TableClassificacao = &TableSpec{
		Name:    "Classificacao",
		Columns: []string{"Grupo", "Parametro_ciano_"},
		Key:     []string{"Parametro_ciano_"},
	}
	TableAnalise = &TableSpec{
		Name: "Analise",
		Columns: []string{
			"fk_Amostra_DataColeta", "fk_Amostra_Hora", "fk_Amostra_NumeroDaAmostra",
			"fk_Classificacao_Parametro_ciano_", "Resultado", "DataDoLaudo",
		},
		Key: []string{"fk_Amostra_DataColeta", "fk_Amostra_Hora", "fk_Amostra_NumeroDaAmostra", "fk_Classificacao_Parametro_ciano_"},
	}
)

// Tables lists every relation in foreign-key dependency order.
var Tables = []*TableSpec{
	TableEstado,
	TableMunicipio,
	TableAbastecimento,
	TableAbastecido,
	TableAmostra,
	TableClassificacao,
	TableAnalise,
}

func TableByName(name string) (*TableSpec, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

func (t *TableSpec) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// KeyOf picks the key column values out of a full row.
func (t *TableSpec) KeyOf(values []string) []string {
	key := make([]string, 0, len(t.Key))
	for _, k := range t.Key {
		if i := t.ColumnIndex(k); i >= 0 && i < len(values) {
			key = append(key, values[i])
		}
	}
	return key
}
