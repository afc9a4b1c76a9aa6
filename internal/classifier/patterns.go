package classifier

import (
	"regexp"

	"autosense/domain/chart"
	"autosense/domain/intent"
)

// pattern is a case-insensitive regular expression. When notAfter is set a
// match only counts if the text before it does not match notAfter, which
// stands in for a negative look-behind.
type pattern struct {
	re       *regexp.Regexp
	notAfter *regexp.Regexp
}

func re(expr string) pattern {
	return pattern{re: regexp.MustCompile(`(?i)` + expr)}
}

func reNotAfter(expr, before string) pattern {
	return pattern{
		re:       regexp.MustCompile(`(?i)` + expr),
		notAfter: regexp.MustCompile(`(?i)` + before + `$`),
	}
}

func (p pattern) matches(text string) bool {
	if p.notAfter == nil {
		return p.re.MatchString(text)
	}
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		if !p.notAfter.MatchString(text[:loc[0]]) {
			return true
		}
	}
	return false
}

type categoryPatterns struct {
	category intent.Category
	patterns []pattern
}

type chartPatterns struct {
	chartType chart.Type
	patterns  []pattern
}

// intentPatterns is iterated in canonical category order.
var intentPatterns = []categoryPatterns{
	{intent.Comparison, []pattern{
		re(`\bvs\b`), re(`versus`), re(`against`), re(`compare\s+(?:with|to)`),
		re(`(?:compared\s+)?to\s+`), re(`relationship\s+(?:between|of)`),
		re(`how\s+does.*compare`), re(`difference\s+between`), re(`contrast`),
		re(`head\s+to\s+head`), re(`side\s+by\s+side`), re(`competing`),
	}},
	{intent.TopBottom, []pattern{
		re(`top\s+(\d+)`), re(`bottom\s+(\d+)`), re(`highest\s+(\d+)?`), re(`lowest\s+(\d+)?`),
		re(`best\s+(\d+)?`), re(`worst\s+(\d+)?`), re(`rank(?:ing)?`), re(`sorted\s+by`),
		re(`order\s+by`), re(`greatest`), re(`least`), re(`most\s+\w+`),
		re(`leading\s+\d+`), re(`top\s+performing`),
	}},
	{intent.Timeseries, []pattern{
		re(`over\s+time`), re(`by\s+(?:month|quarter|year|day|week|date)`), re(`time\s+series`),
		re(`trend(?:s)?`), re(`historical`), re(`progress`), re(`growth`), re(`change\s+over`),
		re(`monthly`), re(`seasonal`), re(`forecast`), re(`daily`), re(`weekly`), re(`yearly`),
		re(`evolution`), re(`progression`), re(`when\s+did`), re(`how\s+has`), re(`throughput`),
	}},
	{intent.Distribution, []pattern{
		re(`distribution`), re(`histogram`), re(`spread`), re(`range`), re(`density`),
		re(`frequency`), re(`breakdown`), re(`scatter`), re(`concentration`),
		re(`how\s+is.*distributed`), re(`spread.*across`), re(`variance`),
	}},
	{intent.Correlation, []pattern{
		re(`correl(?:ate|ation)?`), re(`relationship`), re(`associated`), re(`impact\s+(?:on|of)`),
		re(`effect\s+(?:on|of)`), re(`influence`), re(`heatmap.*correl`), re(`matrix`),
		re(`dependent`), re(`connection`), re(`link.*between`), re(`affecting\s+`), re(`driven\s+by`),
	}},
	{intent.SingleChart, []pattern{
		reNotAfter(`show\s+`, `dashboard\s`), re(`display\s+`), re(`create\s+(?:a\s+)?(?:one\s+)?chart`),
		re(`single\s+chart`), re(`one\s+chart`), re(`just\s+`), re(`simple\s+chart`),
		re(`quick\s+(?:look|view|chart)`), re(`single\s+visualization`),
	}},
	{intent.Dashboard, []pattern{
		re(`dashboard`), re(`overview`), re(`(?:multiple|several|various)\s+charts`),
		re(`comprehensive\s+view`), re(`full\s+analysis`), re(`all\s+charts`), re(`holistic`),
		re(`complete\s+picture`), re(`executive\s+(?:summary|view)`),
	}},
	{intent.Heatmap, []pattern{
		re(`heatmap`), re(`heat\s+map`), re(`pivot\s+(?:table)?`), re(`cross\s+tabulation`), re(`pivot.*heatmap`),
	}},
	{intent.Anomaly, []pattern{
		re(`anomal`), re(`outlier`), re(`unusual`), re(`unexpected`), re(`suspicious`),
		re(`deviation`), re(`abnormal`), re(`flag`), re(`alert`),
	}},
	{intent.Pareto, []pattern{
		re(`pareto`), re(`80/20`), re(`concentration`), re(`contribution`), re(`cumulative`),
		re(`leading\s+factor`), re(`main\s+driver`),
	}},
	{intent.Segment, []pattern{
		re(`segment(?:ation)?`), re(`cohort`), re(`group\s+by`), re(`slice`),
		re(`breakdown\s+by`), re(`split\s+(?:by|across)`),
	}},
	{intent.BusinessKPI, []pattern{
		re(`kpi`), re(`metric`), re(`performance`), re(`key\s+indicator`), re(`business\s+metric`),
		re(`measure`), re(`track(?:ing)?`), re(`monitor`), re(`objective`), re(`target`), re(`goal`),
	}},
	{intent.Financial, []pattern{
		re(`revenue`), re(`profit`), re(`cost`), re(`margin`), re(`roi`), re(`return`),
		re(`budget`), re(`expense`), re(`income`), re(`earnings`), re(`cash\s+flow`),
		re(`p&l`), re(`profit\s+and\s+loss`), re(`financial`),
	}},
	{intent.Funnel, []pattern{
		re(`funnel`), re(`conversion`), re(`pipeline`), re(`stage`), re(`journey`),
		re(`drop\s+off`), re(`retention`), re(`churn`), re(`attrition`),
	}},
	{intent.Forecast, []pattern{
		re(`forecast`), re(`predict`), re(`projection`), re(`estimate`), re(`future`),
		re(`what\s+if`), re(`scenario`), re(`model`),
	}},
}

// chartTypePatterns is iterated in canonical order; the first type with a
// matching pattern becomes the chart type hint.
var chartTypePatterns = []chartPatterns{
	{chart.Bar, []pattern{re(`bar\s+chart`), re(`bar\s+graph`), re(`\bbar\b`), re(`bar\s+plot`)}},
	{chart.Line, []pattern{re(`line\s+chart`), re(`line\s+graph`), re(`trend\s+line`), re(`line\s+plot`)}},
	{chart.Pie, []pattern{re(`pie\s+chart`), re(`pie\s+graph`)}},
	{chart.Scatter, []pattern{re(`scatter`), re(`scatter\s+plot`), re(`scatterplot`)}},
	{chart.Histogram, []pattern{re(`histogram`), re(`distribution\s+chart`)}},
	{chart.Heatmap, []pattern{re(`heatmap`), re(`heat\s+map`)}},
	{chart.Waterfall, []pattern{re(`waterfall`), re(`flow\s+chart`)}},
	{chart.Gauge, []pattern{re(`gauge`), re(`gauge\s+chart`), re(`speedometer`)}},
	{chart.Tree, []pattern{re(`tree\s+map`), re(`treemap`)}},
	{chart.Sunburst, []pattern{re(`sunburst`)}},
	{chart.Bubble, []pattern{re(`bubble`), re(`bubble\s+chart`)}},
	{chart.Box, []pattern{re(`box\s+plot`), re(`boxplot`)}},
	{chart.Violin, []pattern{re(`violin`)}},
}

// measureTemplates are tried in order; the first match's group is the hint.
var measureTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)based\s+on\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)(?:top|bottom|by)\s+\d+\s+(?:\w+\s+)*by\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)sorted\s+(?:by|on)\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)(?:highest|lowest|greatest|least)\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)(?:most|least)\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)by\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)against\s+(\w+(?:\s+\w+)*)`),
}

// comparisonTemplates are all applied; every match is kept.
var comparisonTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\w+(?:\s+\w+)*?)\s+(?:vs|versus|v\.s\.?|against|v)\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)(\w+(?:\s+\w+)*?)\s+compared\s+to\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)(?:between|relationship\s+between)\s+(\w+(?:\s+\w+)*?)\s+and\s+(\w+(?:\s+\w+)*)`),
	regexp.MustCompile(`(?i)(\w+(?:\s+\w+)*?)\s+head\s+to\s+head\s+(\w+(?:\s+\w+)*)`),
}

var (
	topPattern     = regexp.MustCompile(`top\s+(\d+)`)
	bottomPattern  = regexp.MustCompile(`bottom\s+(\d+)`)
	highestPattern = regexp.MustCompile(`(?:highest|greatest|leading)\s+(\d+)`)

	capitalizedPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	quotedPattern      = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "in": true, "of": true,
	"to": true, "for": true, "by": true, "on": true, "at": true, "show": true, "display": true,
	"create": true, "chart": true, "dashboard": true, "vs": true, "versus": true, "against": true,
	"compare": true, "between": true, "top": true, "bottom": true, "over": true, "time": true,
	"series": true, "analysis": true, "data": true, "please": true, "want": true, "like": true,
	"would": true, "could": true, "can": true, "that": true, "this": true, "is": true, "are": true,
	"be": true, "get": true, "make": true, "take": true, "based": true, "using": true,
	"about": true, "from": true, "with": true, "as": true, "if": true, "have": true, "has": true,
	"when": true, "where": true, "what": true, "how": true, "why": true, "which": true,
	"who": true, "visualiz": true, "across": true, "movie": true, "movies": true, "product": true,
	"products": true, "sales": true, "items": true, "records": true, "trend": true,
	"trends": true, "relationship": true, "heatmap": true,
}

var businessKeywords = []string{
	"revenue", "profit", "sales", "cost", "margin", "roi", "conversion", "growth",
	"retention", "churn", "arpu", "ltv", "cac", "mrr", "arr", "forecast", "target",
	"goal", "kpi", "performance", "efficiency",
}
