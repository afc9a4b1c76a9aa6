package chart

// Type names a chart visualization
type Type string

const (
	Bar       Type = "bar"
	Line      Type = "line"
	Pie       Type = "pie"
	Scatter   Type = "scatter"
	Histogram Type = "histogram"
	Heatmap   Type = "heatmap"
	Waterfall Type = "waterfall"
	Gauge     Type = "gauge"
	Tree      Type = "tree"
	Sunburst  Type = "sunburst"
	Bubble    Type = "bubble"
	Box       Type = "box"
	Violin    Type = "violin"
	KPI       Type = "kpi"
)

// Spec is one renderer-agnostic chart. PriorityRank is the 0-based position
// of the chart in the response.
type Spec struct {
	Type         Type    `json:"type"`
	Title        string  `json:"title"`
	Subtitle     string  `json:"subtitle,omitempty"`
	Recipe       string  `json:"recipe"`
	PriorityRank int     `json:"priority_rank"`
	Payload      Payload `json:"payload"`
}

// Payload carries the data arrays for a chart. Only the fields relevant to
// the chart type are set.
type Payload struct {
	XAxisName string `json:"x_axis_name,omitempty"`
	YAxisName string `json:"y_axis_name,omitempty"`

	// Category axis and one or more value series (bar, line, waterfall).
	Labels []string `json:"labels,omitempty"`
	Series []Series `json:"series,omitempty"`

	// Scatter and bubble points: [x, y] or [x, y, size].
	Points [][]float64 `json:"points,omitempty"`

	// Heatmap axes and cells.
	XLabels []string `json:"x_labels,omitempty"`
	YLabels []string `json:"y_labels,omitempty"`
	Cells   []Cell   `json:"cells,omitempty"`

	Boxes  []BoxSummary `json:"boxes,omitempty"`
	Slices []Slice      `json:"slices,omitempty"`
	Gauge  *GaugeValue  `json:"gauge,omitempty"`
	KPIs   []KPICard    `json:"kpis,omitempty"`
}

// Series is a named list of values aligned with Payload.Labels.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Stack  string    `json:"stack,omitempty"`
}

// Cell is one heatmap cell addressed by x and y label index.
type Cell struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Value float64 `json:"value"`
}

// BoxSummary is the five-number summary of one group.
type BoxSummary struct {
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Slice is one pie slice.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// GaugeValue is a percentage reading with color bands.
type GaugeValue struct {
	Name  string      `json:"name"`
	Value float64     `json:"value"`
	Min   float64     `json:"min"`
	Max   float64     `json:"max"`
	Bands []GaugeBand `json:"bands"`
}

// GaugeBand colors the gauge up to a fraction of its range.
type GaugeBand struct {
	UpTo  float64 `json:"up_to"`
	Color string  `json:"color"`
}

// KPICard is a headline number.
type KPICard struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Display  string  `json:"display"`
	Subtitle string  `json:"subtitle,omitempty"`
}

// Types returns the chart types present in specs, in order of first appearance.
func Types(specs []Spec) []Type {
	seen := make(map[Type]bool)
	var out []Type
	for _, s := range specs {
		if !seen[s.Type] {
			seen[s.Type] = true
			out = append(out, s.Type)
		}
	}
	return out
}

// Contains reports whether specs already hold a chart of type t.
func Contains(specs []Spec, t Type) bool {
	for _, s := range specs {
		if s.Type == t {
			return true
		}
	}
	return false
}

// Rank assigns PriorityRank by position.
func Rank(specs []Spec) []Spec {
	for i := range specs {
		specs[i].PriorityRank = i
	}
	return specs
}
