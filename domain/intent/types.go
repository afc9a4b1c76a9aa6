package intent

import "autosense/domain/chart"

// Category is an analytic intent recognized in a query
type Category string

const (
	Comparison   Category = "comparison"
	TopBottom    Category = "top_bottom"
	Timeseries   Category = "timeseries"
	Distribution Category = "distribution"
	Correlation  Category = "correlation"
	SingleChart  Category = "single_chart"
	Dashboard    Category = "dashboard"
	Heatmap      Category = "heatmap"
	Anomaly      Category = "anomaly"
	Pareto       Category = "pareto"
	Segment      Category = "segment"
	BusinessKPI  Category = "business_kpi"
	Financial    Category = "financial"
	Funnel       Category = "funnel"
	Forecast     Category = "forecast"
)

// Categories lists every category in canonical order.
var Categories = []Category{
	Comparison, TopBottom, Timeseries, Distribution, Correlation,
	SingleChart, Dashboard, Heatmap, Anomaly, Pareto,
	Segment, BusinessKPI, Financial, Funnel, Forecast,
}

// DefaultTopN is used when a ranking query names no explicit N.
const DefaultTopN = 10

// ComparisonPair is an ordered "A vs B" phrase pair.
type ComparisonPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Intent is the structured reading of a natural-language query.
type Intent struct {
	Query             string           `json:"query"`
	MatchedCategories []Category       `json:"matched_categories"`
	MatchCounts       map[Category]int `json:"match_counts"`

	ChartTypeHint       chart.Type   `json:"chart_type_hint,omitempty"`
	RequestedChartTypes []chart.Type `json:"requested_chart_types,omitempty"`

	IsSingleChart bool `json:"is_single_chart"`
	IsComparison  bool `json:"is_comparison"`
	IsTopBottom   bool `json:"is_top_bottom"`
	TopN          int  `json:"top_n"`

	MeasureFieldHint     string           `json:"measure_field_hint,omitempty"`
	ComparisonFieldHints []ComparisonPair `json:"comparison_field_hints,omitempty"`
	TargetColumnHints    []string         `json:"target_column_hints,omitempty"`

	HasBusinessContext bool    `json:"has_business_context"`
	MultiIntentScore   float64 `json:"multi_intent_score"`
	Confidence         float64 `json:"confidence"`
}

// Has reports whether category c matched.
func (i Intent) Has(c Category) bool {
	for _, m := range i.MatchedCategories {
		if m == c {
			return true
		}
	}
	return false
}

// Requests reports whether chart type t was named in the query.
func (i Intent) Requests(t chart.Type) bool {
	for _, r := range i.RequestedChartTypes {
		if r == t {
			return true
		}
	}
	return false
}

// Matches returns the number of patterns that fired for category c.
func (i Intent) Matches(c Category) int {
	return i.MatchCounts[c]
}

// IsEmpty reports whether no category matched.
func (i Intent) IsEmpty() bool {
	return len(i.MatchedCategories) == 0
}
