package domain

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Hint    string `json:"hint,omitempty"`
}

type TableInfo struct {
	Name        string   `json:"name"`
	Columns     []string `json:"columns"`
	Rows        int      `json:"rows"`
	SkippedRows int      `json:"skipped_rows"`
	Encoding    string   `json:"encoding"`
}

type QueryResult struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Truncated bool       `json:"truncated,omitempty"`
	// Total counts every matching row when Rows is a capped page of them.
	Total     int        `json:"total,omitempty"`
}

func (r *QueryResult) Len() int {
	return len(r.Rows)
}

type PresetParam struct {
	Name    string `yaml:"name" json:"name"`
	Default string `yaml:"default" json:"default"`
}

// Preset is a canned console query selectable by name.
type Preset struct {
	Name        string        `yaml:"name" json:"name"`
	Title       string        `yaml:"title" json:"title"`
	Description string        `yaml:"description" json:"description"`
	SQL         string        `yaml:"sql" json:"sql"`
	Params      []PresetParam `yaml:"params" json:"params,omitempty"`
}

type ParameterStat struct {
	Group     string `json:"group"`
	Parameter string `json:"parameter"`
	Count     int    `json:"count"`
	Ignored   int    `json:"ignored"`
	Mean      string `json:"mean"`
	Min       string `json:"min"`
	Max       string `json:"max"`
}
