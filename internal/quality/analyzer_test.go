package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosense/domain/analysis"
	"autosense/domain/dataset"
	"autosense/internal/testkit"
)

func TestAssessCleanDatasetScoresHundred(t *testing.T) {
	frame := testkit.FrameFromCSV(t, testkit.RegionRevenueCSV)
	report := NewAnalyzer(nil).Assess(frame)

	assert.Equal(t, 100, report.Score)
	assert.Equal(t, analysis.SeverityGood, report.Severity)
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Recommendations)
	assert.Equal(t, 8, report.TotalRows)
	assert.Equal(t, 2, report.TotalColumns)
	assert.Equal(t, 1, report.NumericColumns)
	assert.Equal(t, 1, report.CategoricalColumns)
}

func TestAssessFlagsExtremeOutliers(t *testing.T) {
	cfg := testkit.DefaultSalesConfig()
	cfg.OutlierEvery = 10
	frame := testkit.FrameFromCSV(t, string(testkit.NewSalesDataGenerator(cfg).GenerateCSV()))

	report := NewAnalyzer(nil).Assess(frame)
	assert.Less(t, report.Score, 100)

	found := false
	for _, issue := range report.Issues {
		if strings.HasPrefix(issue, "Outliers in revenue:") {
			found = true
		}
	}
	assert.True(t, found, "issues: %v", report.Issues)
	assert.Contains(t, report.Recommendations, "Review outliers before drawing conclusions from averages")
}

func TestAssessMissingValuePenalty(t *testing.T) {
	csv := `
id,score
1,10
2,
3,12
4,
5,11
6,
7,13
8,12
9,11
10,10
`
	report := NewAnalyzer(nil).Assess(testkit.FrameFromCSV(t, csv))

	assert.Equal(t, 97, report.Score)
	assert.Equal(t, []string{"High missing values: 30.0%"}, report.Issues)
	assert.Equal(t, []string{"Consider data imputation or removal of sparse columns"}, report.Recommendations)
}

func TestAssessModerateMissingValuePenalty(t *testing.T) {
	csv := `
id,score
1,10
2,11
3,12
4,
5,11
6,12
7,13
8,12
9,11
10,10
`
	report := NewAnalyzer(nil).Assess(testkit.FrameFromCSV(t, csv))

	assert.Equal(t, 98, report.Score)
	assert.Equal(t, []string{"Moderate missing values: 10.0%"}, report.Issues)
	assert.Empty(t, report.Recommendations)
}

func TestAssessDuplicateRows(t *testing.T) {
	csv := `
id,name
1,a
2,b
3,c
4,d
5,e
6,f
7,g
8,h
1,a
2,b
`
	report := NewAnalyzer(nil).Assess(testkit.FrameFromCSV(t, csv))

	assert.Equal(t, 90, report.Score)
	assert.Equal(t, []string{"Duplicate rows detected: 20.0%"}, report.Issues)
	assert.Equal(t, []string{"Remove duplicate rows for analysis accuracy"}, report.Recommendations)
}

func TestAssessEmptyFrame(t *testing.T) {
	report := NewAnalyzer(nil).Assess(dataset.NewFrame("empty", nil))
	assert.Equal(t, 0, report.Score)
	assert.Equal(t, analysis.SeverityCritical, report.Severity)
}

func TestSeverityBands(t *testing.T) {
	assert.Equal(t, analysis.SeverityCritical, severityFor(49.9))
	assert.Equal(t, analysis.SeverityWarning, severityFor(50))
	assert.Equal(t, analysis.SeverityWarning, severityFor(74.9))
	assert.Equal(t, analysis.SeverityGood, severityFor(75))
}

func TestCorrelationsStrongPositivePair(t *testing.T) {
	frame := testkit.FrameFromCSV(t, testkit.MarketingSalesCSV)
	pairs := NewAnalyzer(nil).Correlations(frame, testkit.Profile(frame), -1)

	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Equal(t, "marketing", p.ColumnA)
	assert.Equal(t, "sales", p.ColumnB)
	assert.Greater(t, p.Coefficient, 0.99)
	assert.Equal(t, "positive", p.Direction)
	assert.Equal(t, analysis.StrengthVeryStrong, p.Strength)
	assert.Contains(t, p.Interpretation, "move together")
}

func TestCorrelationsThresholdAndNegativeDirection(t *testing.T) {
	csv := `
a,b,c
1,-2,5
2,-4,3
3,-6,9
4,-8,1
5,-10,4
`
	frame := testkit.FrameFromCSV(t, csv)
	pairs := NewAnalyzer(nil).Correlations(frame, testkit.Profile(frame), 0.6)

	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].ColumnA)
	assert.Equal(t, "b", pairs[0].ColumnB)
	assert.InDelta(t, 1.0, pairs[0].Coefficient, 1e-9)
	assert.Equal(t, "negative", pairs[0].Direction)

	seen := make(map[string]bool)
	for _, p := range pairs {
		assert.NotEqual(t, p.ColumnA, p.ColumnB)
		key := p.ColumnA + "|" + p.ColumnB
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestCorrelationsNeedTwoNumericColumns(t *testing.T) {
	frame := testkit.FrameFromCSV(t, testkit.RegionRevenueCSV)
	pairs := NewAnalyzer(nil).Correlations(frame, testkit.Profile(frame), 0.6)
	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
}

func TestStrengthFor(t *testing.T) {
	assert.Equal(t, analysis.StrengthVeryStrong, StrengthFor(0.81))
	assert.Equal(t, analysis.StrengthStrong, StrengthFor(0.8))
	assert.Equal(t, analysis.StrengthModerate, StrengthFor(0.7))
}
