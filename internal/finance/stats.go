package finance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
	// Obs[i][j] is the number of observations behind Values[i][j].
	Obs [][]int
}

// CorrelationMatrix computes pairwise Pearson correlations of every column
// pair over the rows where both are present. The diagonal is 1 for columns
// with at least one observation; pairs with fewer than two common
// observations or zero variance are NaN.
func CorrelationMatrix(f *Frame) *CorrMatrix {
	n := len(f.Columns)
	m := &CorrMatrix{
		Columns: f.Columns,
		Values:  make([][]float64, n),
		Obs:     make([][]int, n),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.Obs[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			x, y := pairwise(f.Values[i], f.Values[j])
			m.Obs[i][j], m.Obs[j][i] = len(x), len(x)
			var r float64
			switch {
			case i == j && len(x) > 0:
				r = 1
			case i == j:
				r = math.NaN()
			default:
				r = pearson(x, y)
			}
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m
}

// CompleteCorrelationMatrix computes the correlation matrix over rows where
// every column is present.
func CompleteCorrelationMatrix(f *Frame) (*CorrMatrix, error) {
	rows, err := f.CompleteRows(f.Columns...)
	if err != nil {
		return nil, err
	}
	return CorrelationMatrix(f.takeRows(rows)), nil
}

// Get returns the correlation of two named columns.
func (m *CorrMatrix) Get(a, b string) (float64, error) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, fmt.Errorf("correlation pair %s/%s not found", a, b)
	}
	return m.Values[i][j], nil
}

// RollingCorrelation computes the Pearson correlation of x and y over a
// trailing window of the given size. The first window-1 values are NaN, as
// is any window containing a missing value or a constant series.
func RollingCorrelation(x, y []float64, window int) []float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	out := make([]float64, n)
	for t := range out {
		out[t] = math.NaN()
		if window < 2 || t < window-1 {
			continue
		}
		wx, wy := x[t-window+1:t+1], y[t-window+1:t+1]
		if hasNaN(wx) || hasNaN(wy) {
			continue
		}
		out[t] = pearson(wx, wy)
	}
	return out
}

// pairwise keeps the positions where both series are present.
func pairwise(a, b []float64) ([]float64, []float64) {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := 0; i < len(a) && i < len(b); i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	return x, y
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 || stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	return math.Max(-1, math.Min(1, r))
}

func hasNaN(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
