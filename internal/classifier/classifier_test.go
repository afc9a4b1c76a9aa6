package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosense/domain/chart"
	"autosense/domain/intent"
)

func TestClassifyTopNByRevenue(t *testing.T) {
	got := New(nil).Classify("top 5 by revenue")

	assert.Equal(t, []intent.Category{intent.TopBottom, intent.Financial}, got.MatchedCategories)
	assert.True(t, got.IsTopBottom)
	assert.Equal(t, 5, got.TopN)
	assert.Equal(t, "revenue", got.MeasureFieldHint)
	assert.True(t, got.IsSingleChart)
	assert.True(t, got.HasBusinessContext)
	assert.Empty(t, got.ComparisonFieldHints)
	assert.InDelta(t, 0.24+0.30+0.15+0.08*0.30+0.10, got.Confidence, 1e-9)
}

func TestClassifyComparisonPair(t *testing.T) {
	got := New(nil).Classify("marketing vs sales")

	require.Equal(t, []intent.ComparisonPair{{Left: "marketing", Right: "sales"}}, got.ComparisonFieldHints)
	assert.True(t, got.IsComparison)
	assert.True(t, got.IsSingleChart)
	assert.Equal(t, 1, got.Matches(intent.Comparison))
	assert.Equal(t, "", got.MeasureFieldHint)
	assert.InDelta(t, 0.15, got.MultiIntentScore, 1e-9)
}

func TestClassifyCollectsAllComparisonPairs(t *testing.T) {
	got := New(nil).Classify("relationship between price and rating, budget compared to gross")
	assert.Equal(t, []intent.ComparisonPair{
		{Left: "budget", Right: "gross"},
		{Left: "price", Right: "rating"},
	}, got.ComparisonFieldHints, "templates run in order and every match is kept")
}

func TestClassifyEmptyQuery(t *testing.T) {
	got := New(nil).Classify("")

	assert.Empty(t, got.MatchedCategories)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, intent.DefaultTopN, got.TopN)
	assert.False(t, got.IsSingleChart)
	assert.Equal(t, chart.Type(""), got.ChartTypeHint)
}

func TestSingleVersusDashboard(t *testing.T) {
	c := New(nil)

	dash := c.Classify("show me a dashboard of revenue")
	assert.True(t, dash.Has(intent.Dashboard))
	assert.True(t, dash.Has(intent.SingleChart))
	assert.False(t, dash.IsSingleChart, "dashboard wins over single_chart")

	single := c.Classify("display revenue")
	assert.True(t, single.IsSingleChart)

	plain := c.Classify("revenue distribution")
	assert.False(t, plain.IsSingleChart, "no single-chart trigger matched")
}

func TestShowAfterDashboardDoesNotCountAsSingleChart(t *testing.T) {
	got := New(nil).Classify("dashboard show revenue")
	assert.False(t, got.Has(intent.SingleChart))

	got = New(nil).Classify("show revenue")
	assert.True(t, got.Has(intent.SingleChart))
}

func TestChartTypeHintFirstMatchWins(t *testing.T) {
	got := New(nil).Classify("a pie chart next to a bar chart")
	assert.Equal(t, chart.Bar, got.ChartTypeHint, "bar precedes pie in canonical order")
	assert.Equal(t, []chart.Type{chart.Bar, chart.Pie}, got.RequestedChartTypes)
}

func TestTopNExtraction(t *testing.T) {
	c := New(nil)
	cases := []struct {
		query string
		topN  int
		isTop bool
	}{
		{"bottom 3 regions", 3, true},
		{"highest 7 stores", 7, true},
		{"top 2 then bottom 9", 2, true},
		{"ranking of stores", intent.DefaultTopN, true},
		{"top 0 stores", intent.DefaultTopN, true},
		{"revenue over time", intent.DefaultTopN, false},
	}
	for _, tc := range cases {
		got := c.Classify(tc.query)
		assert.Equal(t, tc.topN, got.TopN, tc.query)
		assert.Equal(t, tc.isTop, got.IsTopBottom, tc.query)
	}
}

func TestMeasureHintTemplateOrder(t *testing.T) {
	c := New(nil)
	assert.Equal(t, "budget", c.Classify("movies based on budget").MeasureFieldHint)
	assert.Equal(t, "price", c.Classify("items sorted by price").MeasureFieldHint)
	assert.Equal(t, "rating", c.Classify("highest rating").MeasureFieldHint)
	assert.Equal(t, "region", c.Classify("revenue by region").MeasureFieldHint)
}

func TestTargetColumnHints(t *testing.T) {
	got := New(nil).Classify(`Compare "Net Revenue" across Region and the Sales of 'ab'`)
	assert.Equal(t, []string{"Net Revenue", "Region", "Net Revenue"}, got.TargetColumnHints)
}

func TestConfidenceAndTopNBounds(t *testing.T) {
	c := New(nil)
	queries := []string{
		"",
		"   ",
		"top 5 by revenue",
		"dashboard overview of revenue profit cost margin kpi trends over time vs budget with heatmap correlation outliers pareto segment funnel forecast pie chart",
		"top 99999999999999999999 items",
		"qwerty",
	}
	for _, q := range queries {
		got := c.Classify(q)
		assert.GreaterOrEqual(t, got.Confidence, 0.0, q)
		assert.LessOrEqual(t, got.Confidence, 1.0, q)
		assert.GreaterOrEqual(t, got.TopN, 1, q)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New(nil)
	q := "Compare Revenue vs Cost by month in a line chart"
	assert.Equal(t, c.Classify(q), c.Classify(q))
}
