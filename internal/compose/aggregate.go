package compose

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"autosense/domain/dataset"
)

// grouped holds per-group aggregates of one or more measures. Groups are
// keyed by the category label and start out in lexicographic order.
type grouped struct {
	Labels []string
	Sums   [][]float64 // Sums[measure][group]
	Counts [][]int     // non-missing values per measure and group
	Rows   []int       // rows per group, regardless of measure presence
}

// groupBy aggregates measures over the non-missing labels of category.
// Missing measure values are skipped, matching a NaN-skipping sum.
func groupBy(frame *dataset.Frame, category string, measures []string) (grouped, bool) {
	cat, ok := frame.Column(category)
	if !ok {
		return grouped{}, false
	}
	cols := make([]*dataset.Column, 0, len(measures))
	for _, m := range measures {
		col, ok := frame.Column(m)
		if !ok || !col.IsNumeric() {
			return grouped{}, false
		}
		cols = append(cols, col)
	}

	index := make(map[string]int)
	var labels []string
	for i := 0; i < cat.Len(); i++ {
		label, ok := cat.Label(i)
		if !ok {
			continue
		}
		if _, seen := index[label]; !seen {
			index[label] = len(labels)
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return grouped{}, false
	}
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)
	for i, l := range sorted {
		index[l] = i
	}

	g := grouped{
		Labels: sorted,
		Sums:   make([][]float64, len(cols)),
		Counts: make([][]int, len(cols)),
		Rows:   make([]int, len(sorted)),
	}
	for m := range cols {
		g.Sums[m] = make([]float64, len(sorted))
		g.Counts[m] = make([]int, len(sorted))
	}
	for i := 0; i < cat.Len(); i++ {
		label, ok := cat.Label(i)
		if !ok {
			continue
		}
		gi := index[label]
		g.Rows[gi]++
		for m, col := range cols {
			if v, ok := col.Value(i); ok {
				g.Sums[m][gi] += v
				g.Counts[m][gi]++
			}
		}
	}
	return g, true
}

// Mean returns the per-group mean of measure m, 0 where a group has no values.
func (g grouped) Mean(m int) []float64 {
	out := make([]float64, len(g.Labels))
	for i := range out {
		if g.Counts[m][i] > 0 {
			out[i] = g.Sums[m][i] / float64(g.Counts[m][i])
		}
	}
	return out
}

// rankDesc returns group indices ordered by values descending. Ties keep
// label order.
func rankDesc(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] > values[idx[b]] })
	return idx
}

func head(idx []int, n int) []int {
	if n >= 0 && len(idx) > n {
		return idx[:n]
	}
	return idx
}

func pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func pickLabels(labels []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = labels[j]
	}
	return out
}

type labelCount struct {
	label string
	count int
}

// valueCounts counts non-missing labels, most frequent first. Ties keep
// first-appearance order.
func valueCounts(col *dataset.Column) []labelCount {
	index := make(map[string]int)
	var counts []labelCount
	for i := 0; i < col.Len(); i++ {
		label, ok := col.Label(i)
		if !ok {
			continue
		}
		if j, seen := index[label]; seen {
			counts[j].count++
			continue
		}
		index[label] = len(counts)
		counts = append(counts, labelCount{label: label, count: 1})
	}
	sort.SliceStable(counts, func(a, b int) bool { return counts[a].count > counts[b].count })
	return counts
}

// firstLabels returns up to n distinct labels in order of first appearance.
func firstLabels(col *dataset.Column, n int) []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < col.Len() && len(out) < n; i++ {
		label, ok := col.Label(i)
		if ok && !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

// Resampling granularity
const (
	Daily   = "day"
	Monthly = "month"

	// maxDailyPoints is the largest number of distinct timestamps that
	// still resamples by day.
	maxDailyPoints = 60
)

type period struct {
	label string
	total float64
}

// resample sums measure per calendar day, or per month when the column
// holds more than maxDailyPoints distinct timestamps. Periods without a
// single present measure value are dropped.
func resample(dt, measure *dataset.Column) ([]period, string) {
	distinct := make(map[int64]struct{})
	for i := 0; i < dt.Len(); i++ {
		if t, ok := dt.Time(i); ok {
			distinct[t.UnixNano()] = struct{}{}
		}
	}
	granularity := Daily
	if len(distinct) > maxDailyPoints {
		granularity = Monthly
	}

	type bucket struct {
		start time.Time
		total float64
		n     int
	}
	buckets := make(map[time.Time]*bucket)
	for i := 0; i < dt.Len(); i++ {
		t, ok := dt.Time(i)
		if !ok {
			continue
		}
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		if granularity == Monthly {
			start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		}
		b, ok := buckets[start]
		if !ok {
			b = &bucket{start: start}
			buckets[start] = b
		}
		if v, ok := measure.Value(i); ok {
			b.total += v
			b.n++
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		if b.n > 0 {
			ordered = append(ordered, b)
		}
	}
	sort.Slice(ordered, func(a, b int) bool { return ordered[a].start.Before(ordered[b].start) })

	out := make([]period, len(ordered))
	for i, b := range ordered {
		label := b.start
		if granularity == Monthly {
			// Month buckets are labelled by their last day.
			label = b.start.AddDate(0, 1, -1)
		}
		out[i] = period{label: label.Format("2006-01-02"), total: b.total}
	}
	return out, granularity
}

// histogram bins values into n equal-width bins spanning their range. A
// constant sample gets a unit-wide range centred on the value.
func histogram(values []float64, n int) (labels []string, counts []float64) {
	if len(values) == 0 || n < 1 {
		return nil, nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, n+1), lo, hi)
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	// stat.Histogram treats bins as half-open; nudge the last divider so the
	// maximum lands in the final bin.
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	counts = stat.Histogram(nil, dividers, sorted, nil)

	labels = make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = fmt.Sprintf("%s–%s", round2(edges[i]), round2(edges[i+1]))
	}
	return labels, counts
}

func round2(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// completeRows returns, for each row where every named column is present,
// the values of those columns.
func completeRows(frame *dataset.Frame, names []string) [][]float64 {
	cols := make([]*dataset.Column, len(names))
	for i, name := range names {
		col, ok := frame.Column(name)
		if !ok || !col.IsNumeric() {
			return nil
		}
		cols[i] = col
	}
	var out [][]float64
	for r := 0; r < frame.RowCount(); r++ {
		row := make([]float64, len(cols))
		complete := true
		for i, col := range cols {
			v, ok := col.Value(r)
			if !ok {
				complete = false
				break
			}
			row[i] = v
		}
		if complete {
			out = append(out, row)
		}
	}
	return out
}

// stride keeps at most max rows, evenly spaced and in original order.
func stride(rows [][]float64, max int) [][]float64 {
	if len(rows) <= max {
		return rows
	}
	out := make([][]float64, max)
	for i := range out {
		out[i] = rows[i*len(rows)/max]
	}
	return out
}
