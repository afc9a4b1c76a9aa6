package compose

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"autosense/domain/analysis"
	"autosense/domain/chart"
	"autosense/domain/dataset"
	"autosense/domain/intent"
	"autosense/internal/profiling"
)

// Recipe names reported in chart.Spec.Recipe and to observers
const (
	RecipeTopN               = "top_n_bar"
	RecipeComparison         = "comparison"
	RecipeTimeSeries         = "time_series"
	RecipeCategoryBar        = "category_bar"
	RecipeRankedBar          = "ranked_bar"
	RecipeStackedBar         = "stacked_bar"
	RecipePie                = "category_pie"
	RecipeHistogram          = "histogram"
	RecipeCorrelationHeatmap = "correlation_heatmap"
	RecipePivotHeatmap       = "pivot_heatmap"
	RecipeCorrelatedScatter  = "correlated_scatter"
	RecipeBoxPlot            = "box_plot"
	RecipeWaterfall          = "waterfall"
	RecipeBubble             = "bubble"
	RecipeGauge              = "gauge"
	RecipeKPICards           = "kpi_cards"
)

const (
	categoryBarLimit  = 8
	rankedBarLimit    = 10
	stackedBarLimit   = 6
	stackedExtra      = 2
	pieSliceLimit     = 6
	boxGroupLimit     = 8
	boxMinValues      = 4
	waterfallLimit    = 6
	bubbleRowLimit    = 50
	bubbleSizeDivisor = 100
)

var gaugeBands = []chart.GaugeBand{
	{UpTo: 0.3, Color: "#FF6E76"},
	{UpTo: 0.7, Color: "#FDDD60"},
	{UpTo: 1, Color: "#10b981"},
}

// composition is the shared input of every recipe for one request.
type composition struct {
	frame       *dataset.Frame
	profiles    dataset.Profiles
	binding     analysis.FieldBinding
	intent      intent.Intent
	numeric     []string
	categorical []string
	topN        int
	bins        int
}

func (c *composition) column(name string) (*dataset.Column, bool) {
	if name == "" {
		return nil, false
	}
	return c.frame.Column(name)
}

// mentioned returns the mentioned columns holding role, in schema order.
func (c *composition) mentioned(role dataset.ColumnRole) []string {
	var out []string
	for _, name := range c.binding.Mentioned {
		if p, ok := c.profiles.Lookup(name); ok && p.Role == role {
			out = append(out, name)
		}
	}
	return out
}

// recipe builds one chart. ok is false when a precondition fails.
type recipe struct {
	name  string
	kind  chart.Type
	build func(c *composition) (chart.Spec, bool)
}

var (
	topNRecipe               = recipe{RecipeTopN, chart.Bar, topNBar}
	comparisonRecipe         = recipe{RecipeComparison, chart.Bar, comparison}
	timeSeriesRecipe         = recipe{RecipeTimeSeries, chart.Line, timeSeries}
	categoryBarRecipe        = recipe{RecipeCategoryBar, chart.Bar, categoryBar}
	rankedBarRecipe          = recipe{RecipeRankedBar, chart.Bar, rankedBar}
	stackedBarRecipe         = recipe{RecipeStackedBar, chart.Bar, stackedBar}
	pieRecipe                = recipe{RecipePie, chart.Pie, categoryPie}
	histogramRecipe          = recipe{RecipeHistogram, chart.Histogram, histogramChart}
	correlationHeatmapRecipe = recipe{RecipeCorrelationHeatmap, chart.Heatmap, correlationHeatmap}
	pivotHeatmapRecipe       = recipe{RecipePivotHeatmap, chart.Heatmap, pivotHeatmap}
	correlatedScatterRecipe  = recipe{RecipeCorrelatedScatter, chart.Scatter, correlatedScatter}
	boxPlotRecipe            = recipe{RecipeBoxPlot, chart.Box, boxPlot}
	waterfallRecipe          = recipe{RecipeWaterfall, chart.Waterfall, waterfall}
	bubbleRecipe             = recipe{RecipeBubble, chart.Bubble, bubble}
	gaugeRecipe              = recipe{RecipeGauge, chart.Gauge, gauge}
	kpiRecipe                = recipe{RecipeKPICards, chart.KPI, kpiCards}
)

// heatmapFor prefers correlations when two numeric columns exist.
func heatmapFor(c *composition) recipe {
	if len(c.numeric) >= 2 {
		return correlationHeatmapRecipe
	}
	return pivotHeatmapRecipe
}

func barSpec(name, title, subtitle, xName, yName string, labels []string, series ...chart.Series) chart.Spec {
	return chart.Spec{
		Type:     chart.Bar,
		Title:    title,
		Subtitle: subtitle,
		Recipe:   name,
		Payload: chart.Payload{
			XAxisName: xName,
			YAxisName: yName,
			Labels:    labels,
			Series:    series,
		},
	}
}

// rankedSums groups measure by category and orders groups by their sum.
func (c *composition) rankedSums(limit int) (labels []string, values []float64, ok bool) {
	if c.binding.Measure == "" || c.binding.Category == "" {
		return nil, nil, false
	}
	g, ok := groupBy(c.frame, c.binding.Category, []string{c.binding.Measure})
	if !ok {
		return nil, nil, false
	}
	idx := head(rankDesc(g.Sums[0]), limit)
	return pickLabels(g.Labels, idx), pick(g.Sums[0], idx), true
}

func topNBar(c *composition) (chart.Spec, bool) {
	labels, values, ok := c.rankedSums(c.topN)
	if !ok {
		return chart.Spec{}, false
	}
	m, cat := c.binding.Measure, c.binding.Category
	return barSpec(RecipeTopN, fmt.Sprintf("Top %d %s", c.topN, cat), "Sorted by "+m, cat, m,
		labels, chart.Series{Name: m, Values: values}), true
}

func categoryBar(c *composition) (chart.Spec, bool) {
	labels, values, ok := c.rankedSums(categoryBarLimit)
	if !ok {
		return chart.Spec{}, false
	}
	m, cat := c.binding.Measure, c.binding.Category
	return barSpec(RecipeCategoryBar, fmt.Sprintf("%s by %s", m, cat), "Top categories", cat, m,
		labels, chart.Series{Name: m, Values: values}), true
}

func rankedBar(c *composition) (chart.Spec, bool) {
	labels, values, ok := c.rankedSums(rankedBarLimit)
	if !ok {
		return chart.Spec{}, false
	}
	m, cat := c.binding.Measure, c.binding.Category
	return barSpec(RecipeRankedBar, fmt.Sprintf("Top %d by %s", len(labels), m), "Ranked across "+cat, cat, m,
		labels, chart.Series{Name: m, Values: values}), true
}

// stackedBar stacks the measure with up to two further numeric columns.
func stackedBar(c *composition) (chart.Spec, bool) {
	m, cat := c.binding.Measure, c.binding.Category
	if m == "" || cat == "" {
		return chart.Spec{}, false
	}
	measures := []string{m}
	for _, name := range c.numeric {
		if len(measures) > stackedExtra {
			break
		}
		if name != m {
			measures = append(measures, name)
		}
	}
	if len(measures) < 2 {
		return chart.Spec{}, false
	}
	g, ok := groupBy(c.frame, cat, measures)
	if !ok {
		return chart.Spec{}, false
	}
	idx := head(rankDesc(g.Sums[0]), stackedBarLimit)
	series := make([]chart.Series, len(measures))
	for i, name := range measures {
		series[i] = chart.Series{Name: name, Values: pick(g.Sums[i], idx), Stack: "total"}
	}
	return barSpec(RecipeStackedBar, "Stacked totals by "+cat, "Top categories across multiple measures", cat, "",
		pickLabels(g.Labels, idx), series...), true
}

// comparison plots two numeric fields against each other: grouped means per
// category when a category is bound, a scatter otherwise.
func comparison(c *composition) (chart.Spec, bool) {
	fields := c.binding.Comparison
	if len(fields) != 2 {
		if len(c.numeric) < 2 {
			return chart.Spec{}, false
		}
		fields = c.numeric[:2]
	}
	a, b := fields[0], fields[1]
	title := fmt.Sprintf("%s vs %s", a, b)

	if cat := c.binding.Category; cat != "" {
		g, ok := groupBy(c.frame, cat, []string{a, b})
		if !ok {
			return chart.Spec{}, false
		}
		meanA, meanB := g.Mean(0), g.Mean(1)
		idx := head(rankDesc(meanA), c.topN)
		return barSpec(RecipeComparison, title, "Comparison across "+cat, cat, "",
			pickLabels(g.Labels, idx),
			chart.Series{Name: a, Values: pick(meanA, idx)},
			chart.Series{Name: b, Values: pick(meanB, idx)}), true
	}

	points := completeRows(c.frame, []string{a, b})
	if len(points) == 0 {
		return chart.Spec{}, false
	}
	return chart.Spec{
		Type:     chart.Scatter,
		Title:    title,
		Subtitle: "Correlation analysis",
		Recipe:   RecipeComparison,
		Payload:  chart.Payload{XAxisName: a, YAxisName: b, Points: points},
	}, true
}

func timeSeries(c *composition) (chart.Spec, bool) {
	dt, ok := c.column(c.binding.Datetime)
	if !ok || !dt.IsDatetime() {
		return chart.Spec{}, false
	}
	measure, ok := c.column(c.binding.Measure)
	if !ok || !measure.IsNumeric() {
		return chart.Spec{}, false
	}
	periods, granularity := resample(dt, measure)
	if len(periods) == 0 {
		return chart.Spec{}, false
	}
	labels := make([]string, len(periods))
	values := make([]float64, len(periods))
	for i, p := range periods {
		labels[i], values[i] = p.label, p.total
	}
	return chart.Spec{
		Type:     chart.Line,
		Title:    measure.Name + " over time",
		Subtitle: "Resampled by " + granularity,
		Recipe:   RecipeTimeSeries,
		Payload: chart.Payload{
			XAxisName: dt.Name,
			YAxisName: measure.Name,
			Labels:    labels,
			Series:    []chart.Series{{Name: measure.Name, Values: values}},
		},
	}, true
}

func categoryPie(c *composition) (chart.Spec, bool) {
	col, ok := c.column(c.binding.Category)
	if !ok {
		return chart.Spec{}, false
	}
	counts := valueCounts(col)
	if len(counts) == 0 {
		return chart.Spec{}, false
	}
	if len(counts) > pieSliceLimit {
		counts = counts[:pieSliceLimit]
	}
	slices := make([]chart.Slice, len(counts))
	for i, lc := range counts {
		slices[i] = chart.Slice{Name: lc.label, Value: float64(lc.count)}
	}
	return chart.Spec{
		Type:     chart.Pie,
		Title:    col.Name + " distribution",
		Subtitle: "Top segments",
		Recipe:   RecipePie,
		Payload:  chart.Payload{Slices: slices},
	}, true
}

func histogramChart(c *composition) (chart.Spec, bool) {
	name := c.binding.Measure
	if name == "" && len(c.numeric) > 0 {
		name = c.numeric[0]
	}
	col, ok := c.column(name)
	if !ok || !col.IsNumeric() {
		return chart.Spec{}, false
	}
	labels, counts := histogram(col.Floats(), c.bins)
	if len(labels) == 0 {
		return chart.Spec{}, false
	}
	return chart.Spec{
		Type:     chart.Histogram,
		Title:    "Distribution of " + name,
		Subtitle: "Histogram",
		Recipe:   RecipeHistogram,
		Payload: chart.Payload{
			XAxisName: name,
			YAxisName: "count",
			Labels:    labels,
			Series:    []chart.Series{{Name: "count", Values: counts}},
		},
	}, true
}

func correlationHeatmap(c *composition) (chart.Spec, bool) {
	if len(c.numeric) < 2 {
		return chart.Spec{}, false
	}
	matrix := profiling.CorrelationMatrix(c.frame, c.numeric)
	cells := make([]chart.Cell, 0, len(matrix)*len(matrix))
	for i, row := range matrix {
		for j, r := range row {
			cells = append(cells, chart.Cell{X: i, Y: j, Value: r})
		}
	}
	return chart.Spec{
		Type:     chart.Heatmap,
		Title:    "Correlation heatmap",
		Subtitle: "Pearson correlations between numeric fields",
		Recipe:   RecipeCorrelationHeatmap,
		Payload:  chart.Payload{XLabels: c.numeric, YLabels: c.numeric, Cells: cells},
	}, true
}

// pivotHeatmap crosses two categorical columns, summing a numeric value or
// counting rows when none is available.
func pivotHeatmap(c *composition) (chart.Spec, bool) {
	cats := c.mentioned(dataset.RoleCategorical)
	for _, name := range c.categorical {
		cats = appendUnique(cats, name)
	}
	if len(cats) < 2 {
		return chart.Spec{}, false
	}
	rowCol, _ := c.frame.Column(cats[0])
	colCol, _ := c.frame.Column(cats[1])
	if rowCol == nil || colCol == nil {
		return chart.Spec{}, false
	}

	value := c.binding.Measure
	if nums := c.mentioned(dataset.RoleNumeric); len(nums) > 0 {
		value = nums[0]
	}
	valCol, _ := c.column(value)

	rows, cols := sortedLabels(rowCol), sortedLabels(colCol)
	if len(rows) == 0 || len(cols) == 0 {
		return chart.Spec{}, false
	}
	rowIdx, colIdx := indexOf(rows), indexOf(cols)
	grid := make([][]float64, len(rows))
	for i := range grid {
		grid[i] = make([]float64, len(cols))
	}
	for r := 0; r < c.frame.RowCount(); r++ {
		a, okA := rowCol.Label(r)
		b, okB := colCol.Label(r)
		if !okA || !okB {
			continue
		}
		if valCol == nil || !valCol.IsNumeric() {
			grid[rowIdx[a]][colIdx[b]]++
		} else if v, ok := valCol.Value(r); ok {
			grid[rowIdx[a]][colIdx[b]] += v
		}
	}

	cells := make([]chart.Cell, 0, len(rows)*len(cols))
	for i := range rows {
		for j := range cols {
			cells = append(cells, chart.Cell{X: j, Y: i, Value: grid[i][j]})
		}
	}
	return chart.Spec{
		Type:     chart.Heatmap,
		Title:    fmt.Sprintf("Heatmap of %s vs %s", cats[0], cats[1]),
		Subtitle: "Pivoted counts/sums",
		Recipe:   RecipePivotHeatmap,
		Payload: chart.Payload{
			XAxisName: cats[1],
			YAxisName: cats[0],
			XLabels:   cols,
			YLabels:   rows,
			Cells:     cells,
		},
	}, true
}

// correlatedScatter plots the numeric pair with the largest |r|.
func correlatedScatter(c *composition) (chart.Spec, bool) {
	if len(c.numeric) < 2 {
		return chart.Spec{}, false
	}
	matrix := profiling.CorrelationMatrix(c.frame, c.numeric)
	bestA, bestB, best := -1, -1, -1.0
	for i := range c.numeric {
		for j := range c.numeric {
			if i == j {
				continue
			}
			r := matrix[i][j]
			if r < 0 {
				r = -r
			}
			if r > best {
				bestA, bestB, best = i, j, r
			}
		}
	}
	a, b := c.numeric[bestA], c.numeric[bestB]
	points := completeRows(c.frame, []string{a, b})
	if len(points) == 0 {
		return chart.Spec{}, false
	}
	return chart.Spec{
		Type:     chart.Scatter,
		Title:    fmt.Sprintf("Scatter: %s vs %s", a, b),
		Subtitle: fmt.Sprintf("Top correlated pair (|r|≈%.2f)", best),
		Recipe:   RecipeCorrelatedScatter,
		Payload:  chart.Payload{XAxisName: a, YAxisName: b, Points: points},
	}, true
}

// boxPlot summarizes the measure for the first categories holding at least
// boxMinValues values, or over all rows when no category is bound.
func boxPlot(c *composition) (chart.Spec, bool) {
	measure, ok := c.column(c.binding.Measure)
	if !ok || !measure.IsNumeric() {
		return chart.Spec{}, false
	}

	var boxes []chart.BoxSummary
	subtitle := "All values"
	if cat, ok := c.column(c.binding.Category); ok {
		subtitle = "By " + cat.Name
		for _, label := range firstLabels(cat, boxGroupLimit) {
			var values []float64
			for r := 0; r < cat.Len(); r++ {
				if l, ok := cat.Label(r); ok && l == label {
					if v, ok := measure.Value(r); ok {
						values = append(values, v)
					}
				}
			}
			if len(values) >= boxMinValues {
				boxes = append(boxes, boxSummary(label, values))
			}
		}
	} else if values := measure.Floats(); len(values) >= boxMinValues {
		boxes = append(boxes, boxSummary("All", values))
	}
	if len(boxes) == 0 {
		return chart.Spec{}, false
	}
	return chart.Spec{
		Type:     chart.Box,
		Title:    "Distribution of " + measure.Name,
		Subtitle: subtitle,
		Recipe:   RecipeBoxPlot,
		Payload:  chart.Payload{YAxisName: measure.Name, Boxes: boxes},
	}, true
}

func boxSummary(label string, values []float64) chart.BoxSummary {
	s, err := profiling.NewDistributionAnalyzer().Summarize(values)
	if err != nil {
		return chart.BoxSummary{Label: label}
	}
	return chart.BoxSummary{
		Label:  label,
		Min:    s.Min,
		Q1:     s.Q1,
		Median: s.Median,
		Q3:     s.Q3,
		Max:    s.Max,
	}
}

// waterfall shows the largest category contributions followed by their total.
func waterfall(c *composition) (chart.Spec, bool) {
	labels, values, ok := c.rankedSums(waterfallLimit)
	if !ok {
		return chart.Spec{}, false
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	m, cat := c.binding.Measure, c.binding.Category
	return chart.Spec{
		Type:     chart.Waterfall,
		Title:    "Contribution Waterfall",
		Subtitle: fmt.Sprintf("%s breakdown across %s", m, cat),
		Recipe:   RecipeWaterfall,
		Payload: chart.Payload{
			XAxisName: cat,
			YAxisName: m,
			Labels:    append(labels, "Total"),
			Series:    []chart.Series{{Name: m, Values: append(values, total)}},
		},
	}, true
}

// bubble plots the first three numeric columns as x, y and size.
func bubble(c *composition) (chart.Spec, bool) {
	if len(c.numeric) < 3 {
		return chart.Spec{}, false
	}
	x, y, size := c.numeric[0], c.numeric[1], c.numeric[2]
	rows := stride(completeRows(c.frame, []string{x, y, size}), bubbleRowLimit)
	if len(rows) == 0 {
		return chart.Spec{}, false
	}
	points := make([][]float64, len(rows))
	for i, row := range rows {
		s := row[2] / bubbleSizeDivisor
		if s < 1 {
			s = 1
		}
		points[i] = []float64{row[0], row[1], s}
	}
	return chart.Spec{
		Type:     chart.Bubble,
		Title:    "Relationship Analysis",
		Subtitle: fmt.Sprintf("%s vs %s (size: %s)", x, y, size),
		Recipe:   RecipeBubble,
		Payload:  chart.Payload{XAxisName: x, YAxisName: y, Points: points},
	}, true
}

// gauge reads the measure mean as a percentage of its maximum.
func gauge(c *composition) (chart.Spec, bool) {
	measure, ok := c.column(c.binding.Measure)
	if !ok || !measure.IsNumeric() {
		return chart.Spec{}, false
	}
	values := measure.Floats()
	if len(values) == 0 {
		return chart.Spec{}, false
	}
	pct := 0.0
	if peak := profiling.Max(values); peak > 0 {
		pct = profiling.Mean(values) / peak * 100
	}
	return chart.Spec{
		Type:     chart.Gauge,
		Title:    measure.Name + " Performance",
		Subtitle: "Current vs Maximum",
		Recipe:   RecipeGauge,
		Payload: chart.Payload{Gauge: &chart.GaugeValue{
			Name:  measure.Name,
			Value: round1(pct),
			Min:   0,
			Max:   100,
			Bands: gaugeBands,
		}},
	}, true
}

// kpiCards builds headline totals from revenue-like and count-like columns.
func kpiCards(c *composition) (chart.Spec, bool) {
	metrics := profiling.DetectBusinessMetrics(c.profiles)
	p := message.NewPrinter(language.English)

	var cards []chart.KPICard
	totalRevenue, hasRevenue := 0.0, false
	if len(metrics.Revenue) > 0 {
		if col, ok := c.frame.Column(metrics.Revenue[0]); ok {
			values := col.Floats()
			if len(values) > 0 {
				totalRevenue, hasRevenue = profiling.Sum(values), true
				cards = append(cards, chart.KPICard{
					Name:     "Total Revenue",
					Value:    totalRevenue,
					Display:  p.Sprintf("$%.0f", totalRevenue),
					Subtitle: p.Sprintf("Avg: $%.0f", profiling.Mean(values)),
				})
			}
		}
	}
	if len(metrics.Count) > 0 {
		if col, ok := c.frame.Column(metrics.Count[0]); ok {
			if values := col.Floats(); len(values) > 0 {
				total := profiling.Sum(values)
				cards = append(cards, chart.KPICard{
					Name:     "Total Volume",
					Value:    total,
					Display:  p.Sprintf("%.0f", total),
					Subtitle: col.Name,
				})
			}
		}
	}
	if hasRevenue && c.frame.RowCount() > 0 {
		avg := totalRevenue / float64(c.frame.RowCount())
		cards = append(cards, chart.KPICard{
			Name:     "Avg Transaction",
			Value:    avg,
			Display:  p.Sprintf("$%.2f", avg),
			Subtitle: "Per record",
		})
	}
	if len(cards) == 0 {
		return chart.Spec{}, false
	}
	return chart.Spec{
		Type:     chart.KPI,
		Title:    "Key Performance Indicators",
		Subtitle: "Business metrics overview",
		Recipe:   RecipeKPICards,
		Payload:  chart.Payload{KPIs: cards},
	}, true
}

func sortedLabels(col *dataset.Column) []string {
	labels := firstLabels(col, col.Len())
	sort.Strings(labels)
	return labels
}

func indexOf(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
