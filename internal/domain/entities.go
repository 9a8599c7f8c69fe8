package domain

type RegionState struct {
	UF     string `db:"UF"`
	Region string `db:"Regiao"`
}

func (r *RegionState) Table() *TableSpec    { return TableEstado }
func (r *RegionState) Values() []string     { return []string{r.UF, r.Region} }
func (r *RegionState) Key() []string        { return []string{r.UF} }
func (r *RegionState) Parents() []Reference { return nil }

type Municipality struct {
	IBGECode     string `db:"CodigoDoIBGE"`
	HealthRegion string `db:"RegionalDeSaude"`
	Name         string `db:"NomeMunicipio"`
	UF           string `db:"fk_Estado_UF"`
}

func (m *Municipality) Table() *TableSpec { return TableMunicipio }
func (m *Municipality) Values() []string {
	return []string{m.IBGECode, m.HealthRegion, m.Name, m.UF}
}
func (m *Municipality) Key() []string { return []string{m.IBGECode} }
func (m *Municipality) Parents() []Reference {
	return []Reference{{Table: TableEstado, Key: []string{m.UF}}}
}

type SupplyType struct {
	Code      string `db:"CodigoFormaDeAbastecimento"`
	Type      string `db:"TipoDaFormaDeAbastecimento"`
	PlantName string `db:"NomeETA_UTA"`
	Name      string `db:"NomeDaFormaDeAbastecimento"`
}

func (s *SupplyType) Table() *TableSpec    { return TableAbastecimento }
func (s *SupplyType) Values() []string     { return []string{s.Code, s.Type, s.PlantName, s.Name} }
func (s *SupplyType) Key() []string        { return []string{s.Code} }
func (s *SupplyType) Parents() []Reference { return nil }

// SupplyLink joins a municipality with a supply form it is served by.
type SupplyLink struct {
	IBGECode   string `db:"fk_Municipio_CodigoDoIBGE"`
	SupplyCode string `db:"fk_Abastecimento_CodigoFormaDeAbastecimento"`
}

func (l *SupplyLink) Table() *TableSpec { return TableAbastecido }
func (l *SupplyLink) Values() []string  { return []string{l.IBGECode, l.SupplyCode} }
func (l *SupplyLink) Key() []string     { return []string{l.IBGECode, l.SupplyCode} }
func (l *SupplyLink) Parents() []Reference {
	return []Reference{
		{Table: TableMunicipio, Key: []string{l.IBGECode}},
		{Table: TableAbastecimento, Key: []string{l.SupplyCode}},
	}
}

// Sample is a water sample together with its collection site. Identity is
// (CollectedOn, Hour, Number); the municipality is not part of the key.
type Sample struct {
	Number          string `db:"NumeroDaAmostra"`
	RegisteredAt    string `db:"DataDeRegistroNoSISAGUA"`
	CollectedOn     string `db:"DataColeta"`
	SiteDescription string `db:"DescricaoDoLocal"`
	Zone            string `db:"Zona"`
	AreaCategory    string `db:"CategoriaArea"`
	Area            string `db:"Area"`
	SiteType        string `db:"TipoDoLocal"`
	SiteName        string `db:"NomeLocal"`
	Latitude        string `db:"Latitude"`
	Longitude       string `db:"Longitude"`
	IBGECode        string `db:"fk_Municipio_CodigoDoIBGE"`
	Provenance      string `db:"Procedencia"`
	CollectionPoint string `db:"PontoDeColeta"`
	Reason          string `db:"Motivo"`
	Hour            string `db:"Hora"`
}

func (s *Sample) Table() *TableSpec { return TableAmostra }
func (s *Sample) Values() []string {
	return []string{
		s.Number, s.RegisteredAt, s.CollectedOn, s.SiteDescription, s.Zone,
		s.AreaCategory, s.Area, s.SiteType, s.SiteName, s.Latitude, s.Longitude,
		s.IBGECode, s.Provenance, s.CollectionPoint, s.Reason, s.Hour,
	}
}
func (s *Sample) Key() []string { return []string{s.CollectedOn, s.Hour, s.Number} }
func (s *Sample) Parents() []Reference {
	return []Reference{{Table: TableMunicipio, Key: []string{s.IBGECode}}}
}

type ParameterClass struct {
	Group     string `db:"Grupo"`
	Parameter string `db:"Parametro_ciano_"`
}

func (p *ParameterClass) Table() *TableSpec    { return TableClassificacao }
func (p *ParameterClass) Values() []string     { return []string{p.Group, p.Parameter} }
func (p *ParameterClass) Key() []string        { return []string{p.Parameter} }
func (p *ParameterClass) Parents() []Reference { return nil }

type Analysis struct {
	CollectedOn  string `db:"fk_Amostra_DataColeta"`
	Hour         string `db:"fk_Amostra_Hora"`
	SampleNumber string `db:"fk_Amostra_NumeroDaAmostra"`
	Parameter    string `db:"fk_Classificacao_Parametro_ciano_"`
	Result       string `db:"Resultado"`
	ReportedOn   string `db:"DataDoLaudo"`
}

func (a *Analysis) Table() *TableSpec { return TableAnalise }
func (a *Analysis) Values() []string {
	return []string{a.CollectedOn, a.Hour, a.SampleNumber, a.Parameter, a.Result, a.ReportedOn}
}
func (a *Analysis) Key() []string {
	return []string{a.CollectedOn, a.Hour, a.SampleNumber, a.Parameter}
}
func (a *Analysis) Parents() []Reference {
	return []Reference{
		{Table: TableAmostra, Key: []string{a.CollectedOn, a.Hour, a.SampleNumber}},
		{Table: TableClassificacao, Key: []string{a.Parameter}},
	}
}
