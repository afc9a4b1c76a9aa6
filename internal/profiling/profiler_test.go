package profiling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosense/adapters/datareadiness/coercer"
	"autosense/adapters/excel"
	"autosense/domain/dataset"
)

func decode(t *testing.T, content string) *dataset.Frame {
	t.Helper()
	frame, err := excel.Decode("t.csv", []byte(content), coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()))
	require.NoError(t, err)
	return frame
}

func TestProfileDatasetRoles(t *testing.T) {
	frame := decode(t, "id,region,revenue,day,flag\n"+
		"a1,North,10,2024-01-01,x\n"+
		"a2,South,20,2024-01-02,x\n"+
		"a3,North,,2024-01-03,x\n"+
		"a4,East,40,2024-01-04,x\n")

	profiles := NewDataProfiler(DefaultProfilerConfig()).ProfileDataset(frame)
	require.Len(t, profiles, 5)

	roles := map[string]dataset.ColumnRole{}
	for _, p := range profiles {
		roles[p.Name] = p.Role
	}
	assert.Equal(t, dataset.RoleCategorical, roles["id"], "4 distinct ids fall inside the category bounds")
	assert.Equal(t, dataset.RoleCategorical, roles["region"])
	assert.Equal(t, dataset.RoleNumeric, roles["revenue"])
	assert.Equal(t, dataset.RoleDatetime, roles["day"])
	assert.Equal(t, dataset.RoleUnknown, roles["flag"], "a single distinct value is not a category")

	revenue, _ := profiles.Lookup("revenue")
	assert.InDelta(t, 0.25, revenue.MissingRate, 1e-9)
	assert.InDelta(t, 233.3333333, revenue.Variance, 1e-6)
	assert.Equal(t, []string{"revenue"}, profiles.Names(dataset.RoleNumeric))
}

func TestHighCardinalityTextIsUnknown(t *testing.T) {
	content := "name\n"
	for i := 0; i < 13; i++ {
		content += string(rune('a'+i)) + "x\n"
	}
	profiles := NewDataProfiler(DefaultProfilerConfig()).ProfileDataset(decode(t, content))
	assert.Equal(t, dataset.RoleUnknown, profiles[0].Role)
	assert.Equal(t, 13, profiles[0].Cardinality)
}

func TestPercentileLinearInterpolation(t *testing.T) {
	data := []float64{4, 1, 3, 2}
	assert.InDelta(t, 1.75, Percentile(data, 25), 1e-12)
	assert.InDelta(t, 2.5, Percentile(data, 50), 1e-12)
	assert.InDelta(t, 3.25, Percentile(data, 75), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2}, data, "input must not be reordered")
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestIQRFencesAndOutliers(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}
	lower, upper := IQRFences(data)
	low, high := CountOutliers(data, lower, upper)
	assert.Equal(t, 0, low)
	assert.Equal(t, 1, high)
}

func TestPearson(t *testing.T) {
	nan := math.NaN()
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3, nan}, []float64{2, 4, 6, 100}), 1e-12)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
	assert.True(t, math.IsNaN(Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
	assert.True(t, math.IsNaN(Pearson([]float64{1}, []float64{1})))
}

func TestCorrelationMatrix(t *testing.T) {
	frame := decode(t, "a,b,c\n1,2,5\n2,4,5\n3,6,5\n")
	m := CorrelationMatrix(frame, []string{"a", "b", "c"})
	assert.Equal(t, 1.0, m[2][2], "diagonal is 1 even for constant columns")
	assert.InDelta(t, 1.0, m[0][1], 1e-12)
	assert.Equal(t, 0.0, m[0][2], "undefined correlation reported as 0")
	assert.Equal(t, m[0][1], m[1][0])
}

func TestSummarize(t *testing.T) {
	s, err := NewDistributionAnalyzer().Summarize([]float64{2, 4, 6, 8})
	require.NoError(t, err)
	assert.Equal(t, 20.0, s.Sum)
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 5.0, s.Median)
	assert.InDelta(t, math.Sqrt(20.0/3.0), s.StdDev, 1e-12)

	_, err = NewDistributionAnalyzer().Summarize(nil)
	assert.Error(t, err)
}

func TestDetectBusinessMetrics(t *testing.T) {
	profiles := dataset.Profiles{
		{Name: "total_revenue", Role: dataset.RoleNumeric},
		{Name: "unit_cost", Role: dataset.RoleNumeric},
		{Name: "order_date", Role: dataset.RoleDatetime},
		{Name: "sales_rep", Role: dataset.RoleCategorical},
	}
	m := DetectBusinessMetrics(profiles)
	assert.Equal(t, []string{"total_revenue"}, m.Revenue)
	assert.Equal(t, []string{"total_revenue"}, m.Count, "total counts as a volume keyword")
	assert.Equal(t, []string{"unit_cost"}, m.Cost)
	assert.Equal(t, []string{"order_date"}, m.Time)
	assert.True(t, m.HasFinancial())
}
