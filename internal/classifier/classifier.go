package classifier

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"autosense/domain/intent"
	"autosense/internal"
)

// Confidence weights
const (
	weightPerCategory  = 0.12
	weightMeasureHint  = 0.30
	weightComparison   = 0.15
	weightTopBottom    = 0.15
	weightChartType    = 0.15
	weightMultiIntent  = 0.08
	weightBusiness     = 0.10
	multiIntentPerHit  = 0.15
	minTargetHintChars = 3
)

// singleChartTriggers imply a single chart when neither dashboard nor
// single_chart matched explicitly.
var singleChartTriggers = []intent.Category{
	intent.Comparison, intent.TopBottom, intent.Timeseries, intent.Anomaly, intent.Pareto,
}

// Classifier turns free text into an Intent. It is stateless and safe for
// concurrent use.
type Classifier struct {
	logger *internal.Logger
}

// New creates a classifier
func New(logger *internal.Logger) *Classifier {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Classifier{logger: logger}
}

// Classify parses a query. It never fails; an empty or unrecognized query
// yields an Intent with no matched categories.
func (c *Classifier) Classify(query string) intent.Intent {
	lower := strings.ToLower(query)
	result := intent.Intent{
		Query:             query,
		MatchedCategories: []intent.Category{},
		MatchCounts:       map[intent.Category]int{},
		TopN:              intent.DefaultTopN,
	}

	for _, cp := range intentPatterns {
		matches := 0
		for _, p := range cp.patterns {
			if p.matches(lower) {
				matches++
			}
		}
		if matches > 0 {
			result.MatchedCategories = append(result.MatchedCategories, cp.category)
			result.MatchCounts[cp.category] = matches
		}
	}
	result.MultiIntentScore = math.Min(1, multiIntentPerHit*float64(len(result.MatchedCategories)))
	result.IsComparison = result.Has(intent.Comparison)
	result.IsSingleChart = isSingleChart(result)

	for _, cp := range chartTypePatterns {
		for _, p := range cp.patterns {
			if p.matches(lower) {
				result.RequestedChartTypes = append(result.RequestedChartTypes, cp.chartType)
				break
			}
		}
	}
	if len(result.RequestedChartTypes) > 0 {
		result.ChartTypeHint = result.RequestedChartTypes[0]
	}

	result.IsTopBottom, result.TopN = extractTopN(lower, result.Has(intent.TopBottom))
	result.MeasureFieldHint = extractMeasureHint(lower)
	result.ComparisonFieldHints = extractComparisonPairs(lower)
	result.TargetColumnHints = extractTargetColumns(query)
	result.HasBusinessContext = hasBusinessContext(lower)
	result.Confidence = confidence(result)

	c.logger.Debug("[Classifier] %q -> categories=%v chart=%s top_n=%d measure=%q confidence=%.2f",
		query, result.MatchedCategories, result.ChartTypeHint, result.TopN, result.MeasureFieldHint, result.Confidence)
	return result
}

func isSingleChart(in intent.Intent) bool {
	if in.Has(intent.Dashboard) {
		return false
	}
	if in.Has(intent.SingleChart) {
		return true
	}
	for _, trigger := range singleChartTriggers {
		if in.Has(trigger) {
			return true
		}
	}
	return false
}

// extractTopN prefers "top N", then "bottom N", then "highest|greatest|leading N".
func extractTopN(lower string, topBottomMatched bool) (bool, int) {
	for _, p := range []*regexp.Regexp{topPattern, bottomPattern, highestPattern} {
		if m := p.FindStringSubmatch(lower); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				n = intent.DefaultTopN
			}
			return true, n
		}
	}
	return topBottomMatched, intent.DefaultTopN
}

func extractMeasureHint(lower string) string {
	for _, tmpl := range measureTemplates {
		if m := tmpl.FindStringSubmatch(lower); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func extractComparisonPairs(lower string) []intent.ComparisonPair {
	var pairs []intent.ComparisonPair
	for _, tmpl := range comparisonTemplates {
		for _, m := range tmpl.FindAllStringSubmatch(lower, -1) {
			pairs = append(pairs, intent.ComparisonPair{
				Left:  strings.TrimSpace(m[1]),
				Right: strings.TrimSpace(m[2]),
			})
		}
	}
	return pairs
}

// extractTargetColumns works on the original-case query since capitalization
// is the signal.
func extractTargetColumns(query string) []string {
	var candidates []string
	candidates = append(candidates, capitalizedPattern.FindAllString(query, -1)...)
	for _, m := range quotedPattern.FindAllStringSubmatch(query, -1) {
		if m[1] != "" {
			candidates = append(candidates, m[1])
		} else {
			candidates = append(candidates, m[2])
		}
	}

	var hints []string
	for _, cand := range candidates {
		if stopWords[strings.ToLower(cand)] || len(cand) < minTargetHintChars {
			continue
		}
		hints = append(hints, cand)
	}
	return hints
}

func hasBusinessContext(lower string) bool {
	for _, kw := range businessKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func confidence(in intent.Intent) float64 {
	score := weightPerCategory * float64(len(in.MatchedCategories))
	if in.MeasureFieldHint != "" {
		score += weightMeasureHint
	}
	if len(in.ComparisonFieldHints) > 0 {
		score += weightComparison
	}
	if in.IsTopBottom {
		score += weightTopBottom
	}
	if in.ChartTypeHint != "" {
		score += weightChartType
	}
	score += weightMultiIntent * in.MultiIntentScore
	if in.HasBusinessContext {
		score += weightBusiness
	}
	return math.Max(0, math.Min(1, score))
}
