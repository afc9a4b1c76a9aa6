package insight

import (
	"math"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"autosense/domain/analysis"
	"autosense/domain/dataset"
	"autosense/internal"
	"autosense/internal/profiling"
)

// Detector priorities. Higher ranks first; equal priorities keep detector
// order.
const (
	PriorityRevenue     = 10
	PriorityTrend       = 9
	PriorityLeader      = 8
	PriorityOutlier     = 7
	PriorityCorrelation = 6

	PrioritySummary        = 100
	PriorityRecommendation = 1
)

const (
	maxRanked       = 5
	maxInsights     = 6
	minBeforeAdvice = 4

	paretoTopGroups     = 3
	leaderTopGroups     = 5
	leaderMinGroups     = 3
	leaderListMinGroups = 5
	highConcentration   = 0.75

	trendMinPoints   = 3
	trendInclusion   = 0.5
	trendStrongShift = 0.6
	trendStrongWord  = 0.7

	outlierMinValues = 10
	outlierMinPct    = 5

	correlationTopPairs = 3
	correlationMinAbsR  = 0.6
)

// Ranker turns a dataset and its field binding into narrative findings.
type Ranker struct {
	logger *internal.Logger
}

// NewRanker creates a ranker
func NewRanker(logger *internal.Logger) *Ranker {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Ranker{logger: logger}
}

type candidate struct {
	priority int
	text     string
}

// Rank returns the dataset summary followed by up to five findings ordered by
// priority. A generic recommendation is appended when fewer than four
// entries result. The list never exceeds six entries.
func (r *Ranker) Rank(frame *dataset.Frame, profiles dataset.Profiles, binding analysis.FieldBinding) []analysis.Insight {
	if frame.IsEmpty() {
		return []analysis.Insight{}
	}
	p := message.NewPrinter(language.English)
	metrics := profiling.DetectBusinessMetrics(profiles)
	numeric := profiles.Names(dataset.RoleNumeric)

	out := []analysis.Insight{newInsight(Summary(frame, len(numeric)), PrioritySummary)}

	var found []candidate
	for _, detect := range []func() (candidate, bool){
		func() (candidate, bool) { return revenueConcentration(p, frame, metrics, binding.Category) },
		func() (candidate, bool) { return trendDirection(frame, binding) },
		func() (candidate, bool) { return marketLeader(frame, binding) },
		func() (candidate, bool) { return outliers(frame, binding.Measure) },
		func() (candidate, bool) { return topCorrelation(frame, numeric) },
	} {
		if c, ok := detect(); ok {
			found = append(found, c)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].priority > found[j].priority })
	if len(found) > maxRanked {
		found = found[:maxRanked]
	}
	for _, c := range found {
		out = append(out, newInsight(c.text, c.priority))
	}

	if len(out) < minBeforeAdvice {
		if metrics.HasFinancial() {
			out = append(out, newInsight("**Strategic Recommendation**: Focus on top-performing segments, monitor KPI trends and let the data drive growth decisions", PriorityRecommendation))
		} else {
			out = append(out, newInsight("**Next Steps**: Enable predictive analytics, benchmark against industry standards and automate alerting for key metrics", PriorityRecommendation))
		}
	}
	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	r.logger.Debug("[Insight] %d candidates, %d insights", len(found), len(out))
	return out
}

// Summary is the fixed-format dataset size line.
func Summary(frame *dataset.Frame, numericColumns int) string {
	return message.NewPrinter(language.English).Sprintf(
		"**%d records** analyzed across **%d dimensions**, %d quantitative metrics identified",
		frame.RowCount(), frame.ColumnCount(), numericColumns)
}

func newInsight(text string, priority int) analysis.Insight {
	return analysis.Insight{Text: text, HTML: RenderHTML(text), PriorityScore: priority}
}

// RenderHTML converts an insight's markdown to an HTML fragment.
func RenderHTML(text string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return strings.TrimSpace(string(markdown.ToHTML([]byte(text), p, renderer)))
}

// revenueConcentration reports total revenue and, when a category is bound,
// the share held by its three largest groups.
func revenueConcentration(p *message.Printer, frame *dataset.Frame, metrics profiling.BusinessMetrics, category string) (candidate, bool) {
	if len(metrics.Revenue) == 0 {
		return candidate{}, false
	}
	col, ok := frame.Column(metrics.Revenue[0])
	if !ok {
		return candidate{}, false
	}
	values := col.Floats()
	if len(values) == 0 {
		return candidate{}, false
	}
	total := profiling.Sum(values)

	if category != "" && total != 0 {
		if sums, _, ok := groupSums(frame, category, col.Name); ok {
			top := 0.0
			for i, v := range sums {
				if i == paretoTopGroups {
					break
				}
				top += v
			}
			return candidate{PriorityRevenue, p.Sprintf("**$%.0f total revenue**: top %d %s contribute **%.0f%%** of it",
				total, min(paretoTopGroups, len(sums)), category, top/total*100)}, true
		}
	}
	return candidate{PriorityRevenue, p.Sprintf("**$%.0f total revenue** identified with an average transaction of **$%.0f**",
		total, profiling.Mean(values))}, true
}

// trendDirection correlates the measure with its position in time order.
func trendDirection(frame *dataset.Frame, binding analysis.FieldBinding) (candidate, bool) {
	dt, okD := frame.Column(binding.Datetime)
	measure, okM := frame.Column(binding.Measure)
	if !okD || !okM || !dt.IsDatetime() || !measure.IsNumeric() {
		return candidate{}, false
	}

	var rows []int
	for i := 0; i < dt.Len(); i++ {
		if _, ok := dt.Time(i); ok {
			rows = append(rows, i)
		}
	}
	if len(rows) < trendMinPoints {
		return candidate{}, false
	}
	sort.SliceStable(rows, func(a, b int) bool { return dt.Times[rows[a]].Before(dt.Times[rows[b]]) })

	idx := make([]float64, len(rows))
	series := make([]float64, len(rows))
	for i, row := range rows {
		idx[i] = float64(i)
		if v, ok := measure.Value(row); ok {
			series[i] = v
		}
	}
	r := profiling.Pearson(idx, series)
	if math.IsNaN(r) || math.Abs(r) < trendInclusion {
		return candidate{}, false
	}
	first, last := series[0], series[len(series)-1]
	if first == 0 {
		return candidate{}, false
	}
	growth := (last - first) / math.Abs(first) * 100

	strength := "Moderate"
	if math.Abs(r) > trendStrongWord {
		strength = "Strong"
	}
	p := message.NewPrinter(language.English)
	switch {
	case r > trendStrongShift:
		return candidate{PriorityTrend, p.Sprintf("**%s growth trajectory** in %s (%+.1f%%): scale winning strategies and back high performers",
			strength, measure.Name, growth)}, true
	case r < -trendStrongShift:
		return candidate{PriorityTrend, p.Sprintf("**Declining performance** in %s (%+.1f%%): investigate root causes and plan corrective action",
			measure.Name, growth)}, true
	}
	direction := "upward"
	if r < 0 {
		direction = "downward"
	}
	return candidate{PriorityTrend, p.Sprintf("**%s %s trend** in %s (%+.1f%% period growth)",
		strength, direction, measure.Name, growth)}, true
}

// marketLeader frames the leading category and how concentrated the top five
// groups are.
func marketLeader(frame *dataset.Frame, binding analysis.FieldBinding) (candidate, bool) {
	if binding.Category == "" || binding.Measure == "" {
		return candidate{}, false
	}
	sums, labels, ok := groupSums(frame, binding.Category, binding.Measure)
	if !ok || len(sums) < leaderMinGroups {
		return candidate{}, false
	}
	total := 0.0
	for _, v := range sums {
		total += v
	}
	if total == 0 {
		total = 1
	}
	topN := min(leaderTopGroups, len(sums))
	top := 0.0
	for _, v := range sums[:topN] {
		top += v
	}
	contrib := top / total
	share := sums[0] / total * 100
	gap := share - sums[1]/total*100

	p := message.NewPrinter(language.English)
	switch {
	case contrib >= highConcentration:
		return candidate{PriorityLeader, p.Sprintf("**High concentration risk**: top %d items drive **%.0f%%** of %s, '%s' leads with **%.1f%%** share (+%.1fpp)",
			topN, contrib*100, binding.Measure, labels[0], share, gap)}, true
	case len(sums) >= leaderListMinGroups:
		return candidate{PriorityLeader, p.Sprintf("**Market leader identified**: '%s' holds **%.1f%%** share with a **+%.1fpp** lead across %d segments",
			labels[0], share, gap, len(sums))}, true
	}
	return candidate{}, false
}

// outliers frames IQR outliers of the measure, noting which side dominates.
func outliers(frame *dataset.Frame, measure string) (candidate, bool) {
	col, ok := frame.Column(measure)
	if !ok || !col.IsNumeric() {
		return candidate{}, false
	}
	values := col.Floats()
	if len(values) < outlierMinValues {
		return candidate{}, false
	}
	lower, upper := profiling.IQRFences(values)
	low, high := profiling.CountOutliers(values, lower, upper)
	n := low + high
	pct := float64(n) / float64(len(values)) * 100
	if n == 0 || pct <= outlierMinPct {
		return candidate{}, false
	}
	p := message.NewPrinter(language.English)
	if high > low {
		return candidate{PriorityOutlier, p.Sprintf("**%d high-value anomalies** in %s (%.1f%%): check for premium opportunities or data integrity issues",
			n, measure, pct)}, true
	}
	return candidate{PriorityOutlier, p.Sprintf("**%d outliers identified** in %s (%.1f%%): validate the data and analyze segments separately",
		n, measure, pct)}, true
}

// topCorrelation frames the strongest numeric pair when |r| reaches 0.6.
func topCorrelation(frame *dataset.Frame, numeric []string) (candidate, bool) {
	if len(numeric) < 2 {
		return candidate{}, false
	}
	type pair struct {
		a, b string
		r    float64
	}
	matrix := profiling.CorrelationMatrix(frame, numeric)
	var pairs []pair
	for i, a := range numeric {
		for j, b := range numeric {
			if a >= b {
				continue
			}
			pairs = append(pairs, pair{a, b, math.Abs(matrix[i][j])})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].r > pairs[j].r })
	if len(pairs) > correlationTopPairs {
		pairs = pairs[:correlationTopPairs]
	}
	if len(pairs) == 0 || pairs[0].r < correlationMinAbsR {
		return candidate{}, false
	}
	best := pairs[0]
	return candidate{PriorityCorrelation, message.NewPrinter(language.English).Sprintf(
		"**Strong correlation** found: %s ↔ %s (r=%.2f), useful for predictive modeling", best.a, best.b, best.r)}, true
}

// groupSums sums measure per category, largest first. Ties keep label order.
func groupSums(frame *dataset.Frame, category, measure string) (sums []float64, labels []string, ok bool) {
	cat, okC := frame.Column(category)
	val, okV := frame.Column(measure)
	if !okC || !okV || !val.IsNumeric() {
		return nil, nil, false
	}
	index := make(map[string]int)
	for i := 0; i < cat.Len(); i++ {
		label, ok := cat.Label(i)
		if !ok {
			continue
		}
		j, seen := index[label]
		if !seen {
			j = len(labels)
			index[label] = j
			labels = append(labels, label)
			sums = append(sums, 0)
		}
		if v, ok := val.Value(i); ok {
			sums[j] += v
		}
	}
	if len(labels) == 0 {
		return nil, nil, false
	}
	order := make([]int, len(labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if sums[order[a]] != sums[order[b]] {
			return sums[order[a]] > sums[order[b]]
		}
		return labels[order[a]] < labels[order[b]]
	})
	sortedSums := make([]float64, len(order))
	sortedLabels := make([]string, len(order))
	for i, j := range order {
		sortedSums[i], sortedLabels[i] = sums[j], labels[j]
	}
	return sortedSums, sortedLabels, true
}
