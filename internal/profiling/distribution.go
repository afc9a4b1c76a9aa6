package profiling

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of one numeric sample
type Summary struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Summarize computes summary statistics. StdDev is the sample (n-1) deviation.
func (da *DistributionAnalyzer) Summarize(data []float64) (Summary, error) {
	summary := Summary{Count: len(data)}

	sum, err := stats.Sum(data)
	if err != nil {
		return summary, err
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return summary, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return summary, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return summary, err
	}

	summary.Sum = sum
	summary.Mean = mean
	summary.Min = min
	summary.Max = max
	summary.StdDev = StdDev(data)
	summary.Q1, summary.Median, summary.Q3 = Quartiles(data)
	return summary, nil
}

// Percentile uses linear interpolation between closest ranks, p in [0,100].
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// Quartiles returns the 25th, 50th and 75th percentiles.
func Quartiles(data []float64) (q1, median, q3 float64) {
	if len(data) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return percentileSorted(sorted, 25), percentileSorted(sorted, 50), percentileSorted(sorted, 75)
}

// IQRFences returns the Tukey fences Q1-1.5*IQR and Q3+1.5*IQR.
func IQRFences(data []float64) (lower, upper float64) {
	q1, _, q3 := Quartiles(data)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// CountOutliers counts values strictly below lower and strictly above upper.
func CountOutliers(data []float64, lower, upper float64) (low, high int) {
	for _, x := range data {
		if x < lower {
			low++
		} else if x > upper {
			high++
		}
	}
	return low, high
}

// Variance returns the sample variance, zero for fewer than two values.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	v, err := stats.SampleVariance(data)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

// StdDev returns the sample standard deviation, zero for fewer than two values.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return sd
}

// Mean returns the arithmetic mean, NaN for an empty sample.
func Mean(data []float64) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Sum adds the values, zero for an empty sample.
func Sum(data []float64) float64 {
	s, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return s
}

// Max returns the largest value, NaN for an empty sample.
func Max(data []float64) float64 {
	m, err := stats.Max(data)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Pearson returns the correlation over rows where both values are present.
// NaN when fewer than two complete pairs exist or either side is constant.
func Pearson(x, y []float64) float64 {
	xs, ys := PairwiseComplete(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	if isConstant(xs) || isConstant(ys) {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// PairwiseComplete drops positions where either slice holds NaN.
func PairwiseComplete(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

func isConstant(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}
