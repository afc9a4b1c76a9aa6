package compose

import (
	"sort"

	"autosense/domain/analysis"
	"autosense/domain/chart"
	"autosense/domain/dataset"
	"autosense/domain/intent"
	"autosense/internal"
	"autosense/internal/profiling"
)

const (
	// MinDashboardCharts is the chart count dashboard mode tops up to.
	MinDashboardCharts = 3
	// DefaultHistogramBins is the bin count of histogram charts.
	DefaultHistogramBins = 10
)

// Observer is notified when a recipe is skipped because its preconditions
// do not hold for the dataset.
type Observer interface {
	RecipeSkipped(recipe string)
}

// Input is everything one composition needs.
type Input struct {
	Intent   intent.Intent
	Binding  analysis.FieldBinding
	Frame    *dataset.Frame
	Profiles dataset.Profiles
}

// Engine turns an intent and field binding into an ordered list of charts.
type Engine struct {
	logger   *internal.Logger
	observer Observer
	bins     int
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver reports skipped recipes to o
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithHistogramBins overrides the histogram bin count
func WithHistogramBins(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bins = n
		}
	}
}

// NewEngine creates a chart composition engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: internal.DefaultLogger, bins: DefaultHistogramBins}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compose selects and builds charts. Recipes whose preconditions fail are
// skipped; the result never contains a chart with an empty payload and its
// PriorityRank values follow slice order.
//
// A single-chart request yields exactly one chart when any recipe applies.
// Otherwise the intent drives the selection and the dashboard is topped up
// to MinDashboardCharts with distinct chart types.
func (e *Engine) Compose(in Input) []chart.Spec {
	if in.Frame == nil || in.Frame.IsEmpty() {
		return []chart.Spec{}
	}
	c := e.newComposition(in)

	if in.Intent.IsEmpty() {
		return chart.Rank(e.fillToMinimum(c, e.defaultPipeline(c)))
	}

	if in.Intent.IsSingleChart && (c.binding.Measure != "" || c.binding.Category != "") {
		if spec, ok := e.singleChart(c); ok {
			e.logger.Debug("[Compose] single chart via %s", spec.Recipe)
			return chart.Rank([]chart.Spec{spec})
		}
	}

	specs := e.intentDriven(c)
	if len(specs) == 0 {
		specs = e.defaultPipeline(c)
	} else {
		specs = e.complements(c, specs)
	}
	specs = e.fillToMinimum(c, specs)
	e.logger.Debug("[Compose] dashboard with %d charts: %v", len(specs), chart.Types(specs))
	return chart.Rank(specs)
}

func (e *Engine) newComposition(in Input) *composition {
	topN := in.Intent.TopN
	if topN < 1 {
		topN = intent.DefaultTopN
	}
	return &composition{
		frame:       in.Frame,
		profiles:    in.Profiles,
		binding:     in.Binding,
		intent:      in.Intent,
		numeric:     in.Profiles.Names(dataset.RoleNumeric),
		categorical: in.Profiles.Names(dataset.RoleCategorical),
		topN:        topN,
		bins:        e.bins,
	}
}

// try runs r and reports a skip when its preconditions fail.
func (e *Engine) try(c *composition, r recipe) (chart.Spec, bool) {
	spec, ok := r.build(c)
	if !ok {
		e.logger.Debug("[Compose] recipe %s skipped", r.name)
		if e.observer != nil {
			e.observer.RecipeSkipped(r.name)
		}
		return chart.Spec{}, false
	}
	return spec, true
}

func (e *Engine) add(c *composition, specs []chart.Spec, r recipe) []chart.Spec {
	if spec, ok := e.try(c, r); ok {
		return append(specs, spec)
	}
	return specs
}

// singleCategories are the categories with a dedicated single-chart recipe,
// in tie-break order.
var singleCategories = []intent.Category{intent.Comparison, intent.TopBottom, intent.Timeseries}

var singleRecipes = map[intent.Category]recipe{
	intent.Comparison: comparisonRecipe,
	intent.TopBottom:  topNRecipe,
	intent.Timeseries: timeSeriesRecipe,
}

// singleChart tries the matched single-chart categories by descending match
// count, then the recipe for the requested chart type, then plain fallbacks.
func (e *Engine) singleChart(c *composition) (chart.Spec, bool) {
	var dominant []intent.Category
	for _, cat := range singleCategories {
		if c.intent.Has(cat) {
			dominant = append(dominant, cat)
		}
	}
	sort.SliceStable(dominant, func(i, j int) bool {
		return c.intent.Matches(dominant[i]) > c.intent.Matches(dominant[j])
	})

	candidates := make([]recipe, 0, len(dominant)+4)
	for _, cat := range dominant {
		candidates = append(candidates, singleRecipes[cat])
	}
	if r, ok := c.recipeForType(c.intent.ChartTypeHint); ok {
		candidates = append(candidates, r)
	}
	candidates = append(candidates, categoryBarRecipe, timeSeriesRecipe, histogramRecipe)

	for _, r := range candidates {
		if spec, ok := e.try(c, r); ok {
			return spec, true
		}
	}
	return chart.Spec{}, false
}

func (c *composition) recipeForType(t chart.Type) (recipe, bool) {
	switch t {
	case chart.Bar:
		return categoryBarRecipe, true
	case chart.Line:
		return timeSeriesRecipe, true
	case chart.Pie:
		return pieRecipe, true
	case chart.Scatter:
		return correlatedScatterRecipe, true
	case chart.Histogram:
		return histogramRecipe, true
	case chart.Heatmap:
		return heatmapFor(c), true
	case chart.Box:
		return boxPlotRecipe, true
	case chart.Waterfall:
		return waterfallRecipe, true
	case chart.Bubble:
		return bubbleRecipe, true
	case chart.Gauge:
		return gaugeRecipe, true
	case chart.KPI:
		return kpiRecipe, true
	}
	return recipe{}, false
}

// intentDriven builds the charts the matched categories and named chart
// types ask for.
func (e *Engine) intentDriven(c *composition) []chart.Spec {
	in := c.intent
	var specs []chart.Spec

	if in.Has(intent.Heatmap) || in.Has(intent.Correlation) || in.Requests(chart.Heatmap) {
		specs = e.add(c, specs, heatmapFor(c))
	}
	if in.Requests(chart.Scatter) {
		specs = e.add(c, specs, correlatedScatterRecipe)
	}
	if in.Has(intent.Timeseries) || in.Requests(chart.Line) {
		specs = e.add(c, specs, timeSeriesRecipe)
	}
	if in.Requests(chart.Bar) {
		specs = e.add(c, specs, categoryBarRecipe)
	}
	if in.Requests(chart.Pie) {
		specs = e.add(c, specs, pieRecipe)
	}
	if in.Has(intent.Distribution) || in.Requests(chart.Histogram) {
		specs = e.add(c, specs, histogramRecipe)
	}
	for _, r := range []recipe{boxPlotRecipe, waterfallRecipe, bubbleRecipe, gaugeRecipe, kpiRecipe} {
		if in.Requests(r.kind) && !chart.Contains(specs, r.kind) {
			specs = e.add(c, specs, r)
		}
	}
	return specs
}

// complements adds context around intent-driven charts.
func (e *Engine) complements(c *composition, specs []chart.Spec) []chart.Spec {
	if len(c.numeric) >= 2 && !chart.Contains(specs, chart.Heatmap) {
		specs = e.add(c, specs, correlationHeatmapRecipe)
	}
	if !chart.Contains(specs, chart.Line) {
		specs = e.add(c, specs, timeSeriesRecipe)
	}
	if !chart.Contains(specs, chart.Bar) {
		specs = e.add(c, specs, rankedBarRecipe)
	}
	if hasBusinessMetrics(c.profiles) && !chart.Contains(specs, chart.KPI) {
		specs = e.add(c, specs, kpiRecipe)
	}
	return specs
}

// defaultPipeline covers the dataset when the query asks for nothing in
// particular.
func (e *Engine) defaultPipeline(c *composition) []chart.Spec {
	var specs []chart.Spec
	specs = e.add(c, specs, timeSeriesRecipe)
	specs = e.add(c, specs, categoryBarRecipe)
	if len(c.numeric) >= 2 {
		specs = e.add(c, specs, stackedBarRecipe)
	}
	specs = e.add(c, specs, pieRecipe)
	if len(specs) == 0 {
		specs = e.add(c, specs, histogramRecipe)
	}
	if len(c.numeric) >= 2 {
		specs = e.add(c, specs, correlationHeatmapRecipe)
	}
	return specs
}

// fillOrder tops up short dashboards.
var fillOrder = []recipe{boxPlotRecipe, waterfallRecipe, correlatedScatterRecipe, bubbleRecipe, gaugeRecipe}

// fillToMinimum appends charts of types not yet present until the dashboard
// holds MinDashboardCharts charts or the fill recipes run out.
func (e *Engine) fillToMinimum(c *composition, specs []chart.Spec) []chart.Spec {
	for _, r := range fillOrder {
		if len(specs) >= MinDashboardCharts {
			break
		}
		if chart.Contains(specs, r.kind) {
			continue
		}
		specs = e.add(c, specs, r)
	}
	if specs == nil {
		return []chart.Spec{}
	}
	return specs
}

func hasBusinessMetrics(profiles dataset.Profiles) bool {
	m := profiling.DetectBusinessMetrics(profiles)
	return len(m.Revenue)+len(m.Cost)+len(m.Profit)+len(m.Count)+len(m.Rate)+len(m.Time) > 0
}
