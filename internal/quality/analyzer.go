package quality

import (
	"fmt"
	"math"
	"sort"

	"autosense/domain/analysis"
	"autosense/domain/dataset"
	"autosense/internal"
	"autosense/internal/profiling"
)

// Penalty thresholds, in percent of rows
const (
	highMissingPct     = 20
	moderateMissingPct = 5
	duplicatePct       = 5
	outlierPct         = 5

	maxHighMissingPenalty     = 20
	maxModerateMissingPenalty = 10
	maxDuplicatePenalty       = 15
	maxOutlierPenalty         = 10
	outlierPenaltyPerColumn   = 2

	maxIssues          = 5
	maxRecommendations = 3
	maxOutlierIssues   = 3
)

// Correlation defaults
const (
	DefaultCorrelationThreshold = 0.6
	MaxCorrelatedPairs          = 10

	veryStrongAbove = 0.8
	strongAbove     = 0.7
)

// Analyzer scores data quality and lists notable correlations. It holds no
// per-request state and is safe for concurrent use.
type Analyzer struct {
	logger *internal.Logger
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(logger *internal.Logger) *Analyzer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Analyzer{logger: logger}
}

// Assess starts from a score of 100 and subtracts the missing-value,
// duplicate-row and outlier penalties.
func (a *Analyzer) Assess(frame *dataset.Frame) analysis.QualityReport {
	report := analysis.QualityReport{
		Issues:          []string{},
		Recommendations: []string{},
	}
	if frame.IsEmpty() {
		report.Severity = analysis.SeverityCritical
		return report
	}

	rows := float64(frame.RowCount())
	report.TotalRows = frame.RowCount()
	report.TotalColumns = frame.ColumnCount()
	score := 100.0

	maxMissing := 0.0
	for _, col := range frame.Columns {
		if pct := float64(col.MissingCount()) / rows * 100; pct > maxMissing {
			maxMissing = pct
		}
	}
	switch {
	case maxMissing > highMissingPct:
		score -= math.Min(maxHighMissingPenalty, maxMissing/10)
		report.Issues = append(report.Issues, fmt.Sprintf("High missing values: %.1f%%", maxMissing))
		report.Recommendations = append(report.Recommendations, "Consider data imputation or removal of sparse columns")
	case maxMissing > moderateMissingPct:
		score -= math.Min(maxModerateMissingPenalty, maxMissing/5)
		report.Issues = append(report.Issues, fmt.Sprintf("Moderate missing values: %.1f%%", maxMissing))
	}

	if dupPct := float64(countDuplicates(frame)) / rows * 100; dupPct > duplicatePct {
		score -= math.Min(maxDuplicatePenalty, dupPct/2)
		report.Issues = append(report.Issues, fmt.Sprintf("Duplicate rows detected: %.1f%%", dupPct))
		report.Recommendations = append(report.Recommendations, "Remove duplicate rows for analysis accuracy")
	}

	var flagged []string
	for _, col := range frame.Columns {
		switch {
		case col.IsNumeric():
			report.NumericColumns++
		case !col.IsDatetime():
			report.CategoricalColumns++
			continue
		default:
			continue
		}
		values := col.Floats()
		if len(values) == 0 {
			continue
		}
		lower, upper := profiling.IQRFences(values)
		low, high := profiling.CountOutliers(values, lower, upper)
		if pct := float64(low+high) / rows * 100; pct > outlierPct {
			flagged = append(flagged, col.Name)
			if len(flagged) <= maxOutlierIssues {
				report.Issues = append(report.Issues, fmt.Sprintf("Outliers in %s: %.1f%%", col.Name, pct))
			}
		}
	}
	if len(flagged) > 0 {
		score -= math.Min(maxOutlierPenalty, float64(outlierPenaltyPerColumn*len(flagged)))
		report.Recommendations = append(report.Recommendations, "Review outliers before drawing conclusions from averages")
	}

	report.Score = int(math.Max(0, score))
	report.Severity = severityFor(score)
	if len(report.Issues) > maxIssues {
		report.Issues = report.Issues[:maxIssues]
	}
	if len(report.Recommendations) > maxRecommendations {
		report.Recommendations = report.Recommendations[:maxRecommendations]
	}
	a.logger.Debug("[Quality] score=%d severity=%s issues=%d", report.Score, report.Severity, len(report.Issues))
	return report
}

func severityFor(score float64) analysis.Severity {
	switch {
	case score < 50:
		return analysis.SeverityCritical
	case score < 75:
		return analysis.SeverityWarning
	default:
		return analysis.SeverityGood
	}
}

// countDuplicates counts rows identical to an earlier row.
func countDuplicates(frame *dataset.Frame) int {
	seen := make(map[string]struct{}, frame.RowCount())
	dups := 0
	for i := 0; i < frame.RowCount(); i++ {
		key := frame.RowKey(i)
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// Correlations lists numeric column pairs whose absolute Pearson coefficient
// reaches threshold, strongest first. A negative threshold selects
// DefaultCorrelationThreshold.
func (a *Analyzer) Correlations(frame *dataset.Frame, profiles dataset.Profiles, threshold float64) []analysis.CorrelationPair {
	if threshold < 0 {
		threshold = DefaultCorrelationThreshold
	}
	pairs := []analysis.CorrelationPair{}
	numeric := profiles.Names(dataset.RoleNumeric)
	if frame.IsEmpty() || len(numeric) < 2 {
		return pairs
	}

	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			r := profiling.ColumnPearson(frame, numeric[i], numeric[j])
			if math.IsNaN(r) || math.Abs(r) < threshold {
				continue
			}
			pairs = append(pairs, newPair(numeric[i], numeric[j], r))
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Coefficient > pairs[j].Coefficient })
	if len(pairs) > MaxCorrelatedPairs {
		pairs = pairs[:MaxCorrelatedPairs]
	}
	return pairs
}

func newPair(a, b string, r float64) analysis.CorrelationPair {
	abs := math.Abs(r)
	p := analysis.CorrelationPair{
		ColumnA:     a,
		ColumnB:     b,
		Coefficient: abs,
		Direction:   "positive",
		Strength:    StrengthFor(abs),
	}
	if r < 0 {
		p.Direction = "negative"
		p.Interpretation = fmt.Sprintf("%s rises as %s falls (%.2f%% correlation)", a, b, abs*100)
	} else {
		p.Interpretation = fmt.Sprintf("%s and %s move together (%.2f%% correlation)", a, b, abs*100)
	}
	return p
}

// StrengthFor buckets an absolute coefficient.
func StrengthFor(abs float64) analysis.Strength {
	switch {
	case abs > veryStrongAbove:
		return analysis.StrengthVeryStrong
	case abs > strongAbove:
		return analysis.StrengthStrong
	default:
		return analysis.StrengthModerate
	}
}
