package analysis

import (
	"time"

	"autosense/domain/chart"
	"autosense/domain/core"
	"autosense/domain/dataset"
	"autosense/domain/intent"
)

// FieldBinding maps the query onto concrete columns. Empty strings mean the
// role could not be bound.
type FieldBinding struct {
	Measure  string `json:"measure,omitempty"`
	Category string `json:"category,omitempty"`
	Datetime string `json:"datetime,omitempty"`
	// Comparison holds two distinct numeric columns bound from an "A vs B"
	// phrase, or nil.
	Comparison []string `json:"comparison,omitempty"`
	// Mentioned lists columns named verbatim in the query, in schema order.
	Mentioned []string `json:"mentioned,omitempty"`
}

// IsBound reports whether at least one role resolved to a column.
func (b FieldBinding) IsBound() bool {
	return b.Measure != "" || b.Category != "" || b.Datetime != ""
}

// Severity labels a data quality report
type Severity string

const (
	SeverityGood     Severity = "good"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// QualityReport scores a dataset's completeness and cleanliness.
type QualityReport struct {
	Score           int      `json:"score"`
	Severity        Severity `json:"severity"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`

	TotalRows          int `json:"total_rows"`
	TotalColumns       int `json:"total_columns"`
	NumericColumns     int `json:"numeric_columns"`
	CategoricalColumns int `json:"categorical_columns"`
}

// Strength buckets a correlation magnitude
type Strength string

const (
	StrengthVeryStrong Strength = "very strong"
	StrengthStrong     Strength = "strong"
	StrengthModerate   Strength = "moderate"
)

// CorrelationPair is one notable numeric relationship. Coefficient holds the
// magnitude, Direction its sign.
type CorrelationPair struct {
	ColumnA        string   `json:"column_a"`
	ColumnB        string   `json:"column_b"`
	Coefficient    float64  `json:"coefficient"`
	Direction      string   `json:"direction"`
	Strength       Strength `json:"strength"`
	Interpretation string   `json:"interpretation"`
}

// Insight is one narrative finding. Text is markdown, HTML its rendering.
type Insight struct {
	Text          string `json:"text"`
	HTML          string `json:"html"`
	PriorityScore int    `json:"priority_score"`
}

// Result is the full response for one dataset and query.
type Result struct {
	DatasetID  core.DatasetHash  `json:"dataset_id"`
	Query      string            `json:"query"`
	Summary    string            `json:"summary"`
	Intent     intent.Intent     `json:"intent"`
	Binding    FieldBinding      `json:"binding"`
	Profiles   dataset.Profiles  `json:"profiles"`
	Charts     []chart.Spec      `json:"charts"`
	Insights   []Insight         `json:"insights"`
	Quality    QualityReport     `json:"quality"`
	Correlated []CorrelationPair `json:"correlations"`
	Metadata   Metadata          `json:"metadata"`
	Cached     bool              `json:"cached"`
}

// Metadata describes how the result was produced.
type Metadata struct {
	RequestID   core.RequestID `json:"request_id,omitempty"`
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	SampledRows int            `json:"sampled_rows"`
	GeneratedAt time.Time      `json:"generated_at"`
	DurationMS  int64          `json:"duration_ms"`
}

// SchemaMatch is a column that a query appears to reference.
type SchemaMatch struct {
	Column       string   `json:"column"`
	Type         string   `json:"type"`
	SampleValues []string `json:"sample_values,omitempty"`
}

// Refinement suggests how to sharpen a query.
type Refinement struct {
	OriginalQuery string        `json:"original_query"`
	SchemaMatches []SchemaMatch `json:"schema_matches"`
	Suggestions   []string      `json:"suggestions"`
	Confidence    float64       `json:"confidence"`
}

// Recommendations bundles business advice with a confidence estimate.
type Recommendations struct {
	Items      []string `json:"recommendations"`
	Confidence float64  `json:"confidence"`
}
