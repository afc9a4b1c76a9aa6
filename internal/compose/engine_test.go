package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosense/domain/analysis"
	"autosense/domain/chart"
	"autosense/domain/dataset"
	"autosense/domain/intent"
	"autosense/internal/classifier"
	"autosense/internal/resolver"
	"autosense/internal/testkit"
)

type recordingObserver struct {
	skipped []string
}

func (o *recordingObserver) RecipeSkipped(recipe string) {
	o.skipped = append(o.skipped, recipe)
}

// compose runs the full query pipeline over an inline CSV fixture.
func compose(t *testing.T, csv, query string, opts ...Option) []chart.Spec {
	t.Helper()
	frame := testkit.FrameFromCSV(t, csv)
	profiles := testkit.Profile(frame)
	in := classifier.New(nil).Classify(query)
	binding := resolver.New().Resolve(in, profiles)
	return NewEngine(opts...).Compose(Input{Intent: in, Binding: binding, Frame: frame, Profiles: profiles})
}

func assertRanked(t *testing.T, specs []chart.Spec) {
	t.Helper()
	for i, s := range specs {
		assert.Equal(t, i, s.PriorityRank, "chart %d (%s)", i, s.Recipe)
	}
}

func TestComposeTopNByRevenue(t *testing.T) {
	specs := compose(t, testkit.RegionRevenueCSV, "top 5 by revenue")

	require.Len(t, specs, 1)
	got := specs[0]
	assert.Equal(t, chart.Bar, got.Type)
	assert.Equal(t, "Top 5 region", got.Title)
	assert.Equal(t, "Sorted by revenue", got.Subtitle)
	assert.Equal(t, []string{"West", "South", "North", "East"}, got.Payload.Labels)
	require.Len(t, got.Payload.Series, 1)
	assert.Equal(t, []float64{630, 490, 200, 150}, got.Payload.Series[0].Values)
	assert.Equal(t, 0, got.PriorityRank)
}

func TestComposeComparisonWithoutCategoryIsScatter(t *testing.T) {
	specs := compose(t, testkit.MarketingSalesCSV, "marketing vs sales")

	require.Len(t, specs, 1)
	got := specs[0]
	assert.Equal(t, chart.Scatter, got.Type)
	assert.Equal(t, "marketing vs sales", got.Title)
	assert.Equal(t, "Correlation analysis", got.Subtitle)
	require.Len(t, got.Payload.Points, 6)
	assert.Equal(t, []float64{10, 100}, got.Payload.Points[0])
}

func TestComposeComparisonWithCategoryUsesGroupMeans(t *testing.T) {
	csv := `
team,marketing,sales
A,10,100
A,30,300
B,50,100
B,70,300
`
	frame := testkit.FrameFromCSV(t, csv)
	profiles := testkit.Profile(frame)
	in := classifier.New(nil).Classify("marketing vs sales")
	binding := analysis.FieldBinding{Measure: "sales", Category: "team", Comparison: []string{"marketing", "sales"}}

	specs := NewEngine().Compose(Input{Intent: in, Binding: binding, Frame: frame, Profiles: profiles})
	require.Len(t, specs, 1)
	got := specs[0]
	assert.Equal(t, chart.Bar, got.Type)
	assert.Equal(t, "Comparison across team", got.Subtitle)
	assert.Equal(t, []string{"B", "A"}, got.Payload.Labels)
	assert.Equal(t, []float64{60, 20}, got.Payload.Series[0].Values)
	assert.Equal(t, []float64{200, 200}, got.Payload.Series[1].Values)
}

func TestComposeSingleChartFollowsChartTypeHint(t *testing.T) {
	specs := compose(t, testkit.RegionRevenueCSV, "show a pie chart of region")

	require.Len(t, specs, 1)
	assert.Equal(t, chart.Pie, specs[0].Type)
	assert.Equal(t, "region distribution", specs[0].Title)
	assert.Len(t, specs[0].Payload.Slices, 4)
}

func TestComposeDashboardMeetsMinimum(t *testing.T) {
	csv := `
region,product,revenue
North,Widget,120
South,Gadget,340
East,Widget,90
West,Gizmo,410
North,Gadget,80
South,Widget,150
`
	obs := &recordingObserver{}
	specs := compose(t, csv, "dashboard overview", WithObserver(obs))

	require.GreaterOrEqual(t, len(specs), MinDashboardCharts)
	assert.Equal(t, []chart.Type{chart.Bar, chart.Pie, chart.Waterfall}, chart.Types(specs))
	assert.Contains(t, obs.skipped, RecipeBoxPlot, "no region has four values")
	assertRanked(t, specs)

	wf := specs[2]
	assert.Equal(t, "Contribution Waterfall", wf.Title)
	assert.Equal(t, []string{"South", "West", "North", "East", "Total"}, wf.Payload.Labels)
	assert.Equal(t, []float64{490, 410, 200, 90, 1190}, wf.Payload.Series[0].Values)
}

func TestComposeEmptyIntentUsesDefaultPipeline(t *testing.T) {
	frame, profiles := testkit.SalesFrame(t)
	binding := analysis.FieldBinding{Measure: "revenue", Category: "region", Datetime: "date"}

	specs := NewEngine().Compose(Input{Binding: binding, Frame: frame, Profiles: profiles})
	recipes := make([]string, len(specs))
	for i, s := range specs {
		recipes[i] = s.Recipe
	}
	assert.Equal(t, []string{
		RecipeTimeSeries, RecipeCategoryBar, RecipeStackedBar, RecipePie, RecipeCorrelationHeatmap,
	}, recipes)
	assertRanked(t, specs)

	stacked := specs[2]
	require.Len(t, stacked.Payload.Series, 3)
	for _, s := range stacked.Payload.Series {
		assert.Equal(t, "total", s.Stack)
	}
	assert.Equal(t, "revenue", stacked.Payload.Series[0].Name)
}

func TestComposeDistributionAddsComplements(t *testing.T) {
	frame, profiles := testkit.SalesFrame(t)
	in := classifier.New(nil).Classify("revenue distribution")
	binding := resolver.New().Resolve(in, profiles)

	specs := NewEngine().Compose(Input{Intent: in, Binding: binding, Frame: frame, Profiles: profiles})
	assert.Equal(t, []chart.Type{chart.Histogram, chart.Heatmap, chart.Line, chart.Bar, chart.KPI}, chart.Types(specs))

	kpi := specs[len(specs)-1]
	names := make([]string, len(kpi.Payload.KPIs))
	for i, card := range kpi.Payload.KPIs {
		names[i] = card.Name
	}
	assert.Equal(t, []string{"Total Revenue", "Avg Transaction"}, names)
}

func TestTimeSeriesResamplesMonthlyForLongSpans(t *testing.T) {
	frame, profiles := testkit.SalesFrame(t)
	in := classifier.New(nil).Classify("revenue over time")
	binding := resolver.New().Resolve(in, profiles)
	require.Equal(t, "date", binding.Datetime)

	specs := NewEngine().Compose(Input{Intent: in, Binding: binding, Frame: frame, Profiles: profiles})
	require.Len(t, specs, 1)
	assert.Equal(t, chart.Line, specs[0].Type)
	assert.Equal(t, "Resampled by month", specs[0].Subtitle)
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, specs[0].Payload.Labels)
}

func TestTimeSeriesResamplesDailyForShortSpans(t *testing.T) {
	csv := `
date,revenue
2024-01-01,10
2024-01-01,5
2024-01-02,
2024-01-03,7
`
	frame := testkit.FrameFromCSV(t, csv)
	c := &composition{frame: frame, binding: analysis.FieldBinding{Measure: "revenue", Datetime: "date"}}

	spec, ok := timeSeries(c)
	require.True(t, ok)
	assert.Equal(t, "revenue over time", spec.Title)
	assert.Equal(t, "Resampled by day", spec.Subtitle)
	assert.Equal(t, []string{"2024-01-01", "2024-01-03"}, spec.Payload.Labels, "periods without values are dropped")
	assert.Equal(t, []float64{15, 7}, spec.Payload.Series[0].Values)
}

func TestBoxPlotNeedsFourValuesPerGroup(t *testing.T) {
	csv := `
region,revenue
North,1
North,2
North,3
North,4
South,5
South,6
`
	frame := testkit.FrameFromCSV(t, csv)
	c := &composition{frame: frame, binding: analysis.FieldBinding{Measure: "revenue", Category: "region"}}

	spec, ok := boxPlot(c)
	require.True(t, ok)
	require.Len(t, spec.Payload.Boxes, 1)
	box := spec.Payload.Boxes[0]
	assert.Equal(t, "North", box.Label)
	assert.Equal(t, 1.0, box.Min)
	assert.Equal(t, 1.75, box.Q1)
	assert.Equal(t, 2.5, box.Median)
	assert.Equal(t, 3.25, box.Q3)
	assert.Equal(t, 4.0, box.Max)
	assert.Equal(t, "By region", spec.Subtitle)
}

func TestBubbleCapsRowsAndFloorsSize(t *testing.T) {
	frame, profiles := testkit.SalesFrame(t)
	c := &composition{frame: frame, numeric: profiles.Names(dataset.RoleNumeric)}

	spec, ok := bubble(c)
	require.True(t, ok)
	assert.Equal(t, "units vs revenue (size: cost)", spec.Subtitle)
	assert.Len(t, spec.Payload.Points, bubbleRowLimit)
	for _, p := range spec.Payload.Points {
		require.Len(t, p, 3)
		assert.GreaterOrEqual(t, p[2], 1.0)
	}
}

func TestGaugeReadsMeanAgainstMax(t *testing.T) {
	frame := testkit.FrameFromCSV(t, testkit.RegionRevenueCSV)
	c := &composition{frame: frame, binding: analysis.FieldBinding{Measure: "revenue"}}

	spec, ok := gauge(c)
	require.True(t, ok)
	require.NotNil(t, spec.Payload.Gauge)
	assert.Equal(t, 44.8, spec.Payload.Gauge.Value)
	assert.Equal(t, "revenue Performance", spec.Title)
	assert.Len(t, spec.Payload.Gauge.Bands, 3)
}

func TestCorrelatedScatterPicksStrongestPair(t *testing.T) {
	csv := `
a,b,c
1,10,5
2,20,3
3,30,9
4,40,1
`
	frame := testkit.FrameFromCSV(t, csv)
	c := &composition{frame: frame, numeric: []string{"a", "b", "c"}}

	spec, ok := correlatedScatter(c)
	require.True(t, ok)
	assert.Equal(t, "Scatter: a vs b", spec.Title)
	assert.Equal(t, "Top correlated pair (|r|≈1.00)", spec.Subtitle)
}

func TestPivotHeatmapCountsWithoutMeasure(t *testing.T) {
	csv := `
region,product
North,Widget
North,Widget
South,Gadget
`
	frame := testkit.FrameFromCSV(t, csv)
	c := &composition{frame: frame, categorical: []string{"region", "product"}}

	spec, ok := pivotHeatmap(c)
	require.True(t, ok)
	assert.Equal(t, "Heatmap of region vs product", spec.Title)
	assert.Equal(t, []string{"North", "South"}, spec.Payload.YLabels)
	assert.Equal(t, []string{"Gadget", "Widget"}, spec.Payload.XLabels)
	assert.Contains(t, spec.Payload.Cells, chart.Cell{X: 1, Y: 0, Value: 2})
	assert.Contains(t, spec.Payload.Cells, chart.Cell{X: 0, Y: 1, Value: 1})
	assert.Contains(t, spec.Payload.Cells, chart.Cell{X: 0, Y: 0, Value: 0})
}

func TestHistogramBins(t *testing.T) {
	labels, counts := histogram([]float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 10)
	require.Len(t, labels, 10)
	assert.Equal(t, "1–1.9", labels[0])
	assert.Equal(t, "9.1–10", labels[9])
	for i, n := range counts {
		assert.Equal(t, 1.0, n, "bin %d", i)
	}

	_, counts = histogram([]float64{5, 5, 5}, 10)
	total := 0.0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 3.0, total)
}

func TestComposeEmptyFrame(t *testing.T) {
	specs := NewEngine().Compose(Input{Frame: dataset.NewFrame("empty", nil)})
	assert.NotNil(t, specs)
	assert.Empty(t, specs)
}

func TestComposeIsDeterministic(t *testing.T) {
	frame, profiles := testkit.SalesFrame(t)
	in := classifier.New(nil).Classify("dashboard of revenue by region with correlations")
	binding := resolver.New().Resolve(in, profiles)
	input := Input{Intent: in, Binding: binding, Frame: frame, Profiles: profiles}

	e := NewEngine()
	first := e.Compose(input)
	assert.Equal(t, first, e.Compose(input))
	assert.GreaterOrEqual(t, len(first), MinDashboardCharts)
	assertRanked(t, first)
}

func TestSingleChartByMatchCount(t *testing.T) {
	frame, profiles := testkit.SalesFrame(t)
	in := intent.Intent{
		Query:             "q",
		MatchedCategories: []intent.Category{intent.TopBottom, intent.Timeseries},
		MatchCounts:       map[intent.Category]int{intent.TopBottom: 1, intent.Timeseries: 2},
		IsSingleChart:     true,
		TopN:              3,
	}
	binding := analysis.FieldBinding{Measure: "revenue", Category: "region", Datetime: "date"}

	specs := NewEngine().Compose(Input{Intent: in, Binding: binding, Frame: frame, Profiles: profiles})
	require.Len(t, specs, 1)
	assert.Equal(t, RecipeTimeSeries, specs[0].Recipe, "timeseries matched more patterns")
}
