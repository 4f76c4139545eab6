package schema

// MetricDefinition documents one field of a family result.
type MetricDefinition struct {
	Key     string `json:"key" yaml:"key"`
	Unit    string `json:"unit" yaml:"unit"`
	Formula string `json:"formula" yaml:"formula"`
}

// FamilyDefinition documents a metric family for display purposes.
type FamilyDefinition struct {
	Name    FamilyName         `json:"name" yaml:"name"`
	Purpose string             `json:"purpose" yaml:"purpose"`
	Metrics []MetricDefinition `json:"metrics" yaml:"metrics"`
}

// MetricsRenderModel contains all processed data needed for displaying metric definitions.
type MetricsRenderModel struct {
	Title       string             `json:"title" yaml:"title"`
	Description string             `json:"description" yaml:"description"`
	Families    []FamilyDefinition `json:"families" yaml:"families"`
	Audit       map[string]string  `json:"audit" yaml:"audit"`
}
