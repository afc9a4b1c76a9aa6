package profiling

import (
	"math"

	"autosense/domain/dataset"
)

// CorrelationMatrix computes Pearson correlations between the named numeric
// columns. Undefined coefficients are reported as 0 and the diagonal as 1.
func CorrelationMatrix(frame *dataset.Frame, names []string) [][]float64 {
	cols := make([][]float64, len(names))
	for i, name := range names {
		if col, ok := frame.Column(name); ok && col.IsNumeric() {
			cols[i] = col.Numbers
		}
	}

	matrix := make([][]float64, len(names))
	for i := range matrix {
		matrix[i] = make([]float64, len(names))
		matrix[i][i] = 1
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			r := 0.0
			if cols[i] != nil && cols[j] != nil {
				r = Pearson(cols[i], cols[j])
				if math.IsNaN(r) {
					r = 0
				}
			}
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return matrix
}

// ColumnPearson correlates two numeric columns of the same frame.
func ColumnPearson(frame *dataset.Frame, a, b string) float64 {
	colA, okA := frame.Column(a)
	colB, okB := frame.Column(b)
	if !okA || !okB || !colA.IsNumeric() || !colB.IsNumeric() {
		return math.NaN()
	}
	return Pearson(colA.Numbers, colB.Numbers)
}
