package advisor

import (
	"fmt"
	"math"
	"strings"

	"autosense/domain/analysis"
	"autosense/domain/chart"
	"autosense/domain/dataset"
	"autosense/internal"
	"autosense/internal/profiling"
)

// RefinementConfidence is the fixed confidence attached to query refinements.
const RefinementConfidence = 0.85

const (
	maxRecommendations   = 6
	volatilityColumns    = 5
	anomalyColumns       = 3
	anomalyMinValues     = 10
	anomalyShare         = 0.05
	highVariationPct     = 50
	lowVariationPct      = 15
	schemaSampleValues   = 3
	baseConfidence       = 0.7
	scatterMinRows       = 50
	lineMinRows          = 20
	barMaxColumns        = 10
	detailedQueryWords   = 5
	exhaustiveQueryWords = 15
)

var (
	revenueWords = []string{"revenue", "sales", "income"}
	costWords    = []string{"cost", "expense", "budget"}
)

// Advisor produces query refinements, business recommendations and an
// overall confidence estimate for an analysis.
type Advisor struct {
	logger *internal.Logger
}

// New creates an advisor
func New(logger *internal.Logger) *Advisor {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Advisor{logger: logger}
}

// RefineQuery lists the columns a query appears to reference and suggests
// sharper interpretations.
func (a *Advisor) RefineQuery(query string, frame *dataset.Frame, profiles dataset.Profiles) analysis.Refinement {
	lower := strings.ToLower(query)
	out := analysis.Refinement{
		OriginalQuery: query,
		SchemaMatches: []analysis.SchemaMatch{},
		Suggestions:   []string{},
		Confidence:    RefinementConfidence,
	}

	for _, p := range profiles {
		if !mentions(lower, strings.ToLower(p.Name)) {
			continue
		}
		m := analysis.SchemaMatch{Column: p.Name, Type: schemaType(p.Role)}
		if p.Role != dataset.RoleNumeric {
			m.SampleValues = sampleValues(frame, p.Name, schemaSampleValues)
		}
		out.SchemaMatches = append(out.SchemaMatches, m)
	}

	numeric := profiles.Names(dataset.RoleNumeric)
	categorical := profiles.Names(dataset.RoleCategorical)
	if strings.Contains(lower, "top") && len(numeric) > 0 {
		scope := "all records"
		if len(categorical) > 0 {
			scope = categorical[0]
		}
		out.Suggestions = append(out.Suggestions, fmt.Sprintf("Show top performers by %s across %s", numeric[0], scope))
	}
	if strings.Contains(lower, "trend") || strings.Contains(lower, "over time") {
		out.Suggestions = append(out.Suggestions, "Display time-series trend with growth rate analysis")
	}
	if strings.Contains(lower, "compare") && len(categorical) > 1 {
		out.Suggestions = append(out.Suggestions, fmt.Sprintf("Compare %s against %s", categorical[0], categorical[1]))
	}
	return out
}

// mentions reports whether the column name, or any of its underscore
// separated parts, occurs in the query.
func mentions(query, column string) bool {
	if query == "" {
		return false
	}
	if strings.Contains(query, column) {
		return true
	}
	for _, part := range strings.Split(column, "_") {
		if part != "" && strings.Contains(query, part) {
			return true
		}
	}
	return false
}

func schemaType(role dataset.ColumnRole) string {
	switch role {
	case dataset.RoleNumeric:
		return "numeric"
	case dataset.RoleDatetime:
		return "datetime"
	}
	return "categorical"
}

func sampleValues(frame *dataset.Frame, name string, n int) []string {
	col, ok := frame.Column(name)
	if !ok {
		return nil
	}
	var out []string
	for i := 0; i < col.Len() && len(out) < n; i++ {
		if label, ok := col.Label(i); ok {
			out = append(out, label)
		}
	}
	return out
}

// BusinessRecommendations frames volatility and anomalies in the leading
// numeric columns as actions.
func (a *Advisor) BusinessRecommendations(frame *dataset.Frame, profiles dataset.Profiles) []string {
	recs := []string{}
	numeric := profiles.Names(dataset.RoleNumeric)

	for i, name := range numeric {
		if i == volatilityColumns {
			break
		}
		values := floats(frame, name)
		if len(values) == 0 {
			continue
		}
		mean := profiling.Mean(values)
		cv := 0.0
		if mean != 0 {
			cv = profiling.StdDev(values) / mean * 100
		}
		lower := strings.ToLower(name)
		switch {
		case cv > highVariationPct && containsAny(lower, revenueWords):
			recs = append(recs, fmt.Sprintf("**Revenue volatility (%.0f%%) detected**: put consistency protocols in place to stabilize income streams", cv))
		case cv > highVariationPct && containsAny(lower, costWords):
			recs = append(recs, fmt.Sprintf("**Cost variation (%.0f%%) is high**: tighten cost controls and standardize processes", cv))
		case cv < lowVariationPct:
			recs = append(recs, fmt.Sprintf("**%s shows stability**: room to optimize at higher performance levels", name))
		}
	}

	for i, name := range numeric {
		if i == anomalyColumns {
			break
		}
		values := floats(frame, name)
		if len(values) <= anomalyMinValues {
			continue
		}
		lower, upper := profiling.IQRFences(values)
		low, high := profiling.CountOutliers(values, lower, upper)
		if float64(low+high) > float64(len(values))*anomalyShare {
			recs = append(recs, fmt.Sprintf("**Anomalies detected in %s**: investigate and document exceptional cases", name))
		}
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	a.logger.Debug("[Advisor] %d business recommendations", len(recs))
	return recs
}

// EstimateConfidence scores how much an analysis can be trusted from the
// query's detail, the data's completeness and the chart's fit. The result is
// rounded to two decimals and capped at 1.
func (a *Advisor) EstimateConfidence(query string, frame *dataset.Frame, chartType chart.Type) float64 {
	confidence := baseConfidence

	words := len(strings.Fields(query))
	if words >= detailedQueryWords {
		confidence += 0.1
	}
	if words >= exhaustiveQueryWords {
		confidence += 0.1
	}

	rows, cols := 0, 0
	if !frame.IsEmpty() {
		rows, cols = frame.RowCount(), frame.ColumnCount()
		maxMissing := 0.0
		for _, col := range frame.Columns {
			if r := float64(col.MissingCount()) / float64(rows); r > maxMissing {
				maxMissing = r
			}
		}
		switch {
		case maxMissing < 0.05:
			confidence += 0.1
		case maxMissing < 0.2:
			confidence += 0.05
		}
	}

	switch {
	case chartType == chart.Line && rows >= lineMinRows:
		confidence += 0.1
	case chartType == chart.Bar && cols <= barMaxColumns:
		confidence += 0.1
	case chartType == chart.Scatter && rows >= scatterMinRows:
		confidence += 0.05
	}
	return math.Min(1, math.Round(confidence*100)/100)
}

func floats(frame *dataset.Frame, name string) []float64 {
	col, ok := frame.Column(name)
	if !ok {
		return nil
	}
	return col.Floats()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
