package domain

// RunQueryRequest carries either free SQL or a preset name with optional parameters.
type RunQueryRequest struct {
	SQL    string            `json:"sql" validate:"required_without=Preset,excluded_with=Preset"`
	Preset string            `json:"preset" validate:"required_without=SQL"`
	Params map[string]string `json:"params" validate:"excluded_without=Preset"`
}

type PreviewRequest struct {
	Name  string `param:"name" validate:"required"`
	Limit int    `query:"limit" validate:"omitempty,min=0"`
}

type ColumnRequest struct {
	Name   string `param:"name" validate:"required"`
	Column string `query:"column" validate:"required"`
}

type FilterRequest struct {
	Name   string `param:"name" validate:"required"`
	Column string `query:"column" validate:"required"`
	Value  string `query:"value" validate:"required"`
}

type DistinctValuesResponse struct {
	Values  []string `json:"values"`
	TooMany bool     `json:"too_many"`
}

type ReloadResponse struct {
	Tables []TableInfo `json:"tables"`
}
