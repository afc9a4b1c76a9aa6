package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosense/domain/analysis"
	"autosense/domain/chart"
	"autosense/internal/testkit"
)

func TestRefineQueryMatchesSchema(t *testing.T) {
	frame := testkit.FrameFromCSV(t, testkit.RegionRevenueCSV)
	got := New(nil).RefineQuery("Top revenue by region", frame, testkit.Profile(frame))

	assert.Equal(t, "Top revenue by region", got.OriginalQuery)
	assert.Equal(t, RefinementConfidence, got.Confidence)
	require.Len(t, got.SchemaMatches, 2)
	assert.Equal(t, analysis.SchemaMatch{Column: "region", Type: "categorical", SampleValues: []string{"North", "South", "East"}}, got.SchemaMatches[0])
	assert.Equal(t, analysis.SchemaMatch{Column: "revenue", Type: "numeric"}, got.SchemaMatches[1])
	assert.Equal(t, []string{"Show top performers by revenue across region"}, got.Suggestions)
}

func TestRefineQueryTrendAndCompare(t *testing.T) {
	frame, profiles := testkit.SalesFrame(t)
	got := New(nil).RefineQuery("compare the trend", frame, profiles)

	assert.Empty(t, got.SchemaMatches)
	assert.Equal(t, []string{
		"Display time-series trend with growth rate analysis",
		"Compare region against product",
	}, got.Suggestions)
}

func TestRefineQueryMatchesUnderscoreParts(t *testing.T) {
	assert.True(t, mentions("show unit price", "unit_price"))
	assert.True(t, mentions("price please", "unit_price"))
	assert.False(t, mentions("", "unit_price"))
	assert.False(t, mentions("revenue", "unit_price"))
}

func TestBusinessRecommendationsVolatility(t *testing.T) {
	frame := testkit.FrameFromCSV(t, testkit.MarketingSalesCSV)
	got := New(nil).BusinessRecommendations(frame, testkit.Profile(frame))

	assert.Equal(t, []string{
		"**Revenue volatility (56%) detected**: put consistency protocols in place to stabilize income streams",
	}, got)
}

func TestBusinessRecommendationsStabilityAndAnomalies(t *testing.T) {
	csv := "steady\n100\n101\n99\n100\n102\n98\n100\n101\n99\n100\n100\n110\n"
	frame := testkit.FrameFromCSV(t, csv)
	got := New(nil).BusinessRecommendations(frame, testkit.Profile(frame))

	assert.Equal(t, []string{
		"**steady shows stability**: room to optimize at higher performance levels",
		"**Anomalies detected in steady**: investigate and document exceptional cases",
	}, got)
}

func TestEstimateConfidence(t *testing.T) {
	a := New(nil)
	frame := testkit.FrameFromCSV(t, testkit.RegionRevenueCSV)

	assert.Equal(t, 0.9, a.EstimateConfidence("", frame, chart.Bar))
	assert.Equal(t, 0.8, a.EstimateConfidence("", frame, chart.Line), "too few rows for a line bonus")
	long := "please show me the total revenue for every region in the last quarter compared to plan"
	assert.Equal(t, 1.0, a.EstimateConfidence(long, frame, chart.Bar))
	assert.Equal(t, 0.7, a.EstimateConfidence("", nil, chart.Scatter))
}
