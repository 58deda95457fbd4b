package finance

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundString(t *testing.T) {
	tests := []struct {
		in     float64
		places int32
		want   string
	}{
		{0.123456, 4, "0.1235"},
		{-0.987654, 4, "-0.9877"},
		{1, 4, "1.0"},
		{0.5, 3, "0.5"},
		{-1, 4, "-1.0"},
		{0.00004, 4, "0.0"},
		{nan, 4, ""},
		{math.Inf(1), 4, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundString(tt.in, tt.places), "%v", tt.in)
	}
}

func TestFixedString(t *testing.T) {
	assert.Equal(t, "1.000", fixedString(1, 3))
	assert.Equal(t, "0.500", fixedString(0.5, 3))
	assert.Equal(t, "-0.313", fixedString(-0.3125, 3))
	assert.Equal(t, "NaN", fixedString(nan, 3))
}

func TestCorrMatrix_WriteCSV(t *testing.T) {
	m := &CorrMatrix{
		Columns: []string{"PBR_ret", "Brent_ret", "empty"},
		Values: [][]float64{
			{1, 0.456789, nan},
			{0.456789, 1, nan},
			{nan, nan, nan},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf, 4))
	assert.Equal(t, ",PBR_ret,Brent_ret,empty\nPBR_ret,1.0,0.4568,\nBrent_ret,0.4568,1.0,\nempty,,,\n", buf.String())
}

func TestCorrMatrix_Format(t *testing.T) {
	m := &CorrMatrix{
		Columns: []string{"PBR_ret", "USDBRL_ret"},
		Values:  [][]float64{{1, -0.31249}, {-0.31249, 1}},
	}
	out := m.Format(3)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "USDBRL_ret")
	assert.True(t, strings.HasPrefix(lines[1], "PBR_ret"))
	assert.Contains(t, lines[1], " 1.000")
	assert.Contains(t, lines[1], "-0.312")

	m.Values[0][1], m.Values[1][0] = 0.5, 0.5
	assert.Contains(t, m.Format(3), " 0.500")

	m.Values[0][1] = nan
	assert.Contains(t, m.Format(3), "NaN")
}

func isPNG(b []byte) bool { return bytes.HasPrefix(b, []byte("\x89PNG")) }

func TestMakeRebasedChart(t *testing.T) {
	n := 30
	f := &Frame{Columns: []string{"PBR", "BZ=F", "^BVSP"}, Values: make([][]float64, 3)}
	for i := 0; i < n; i++ {
		f.Dates = append(f.Dates, jan(1).AddDate(0, 0, i))
	}
	for c := range f.Values {
		col := make([]float64, n)
		for i := range col {
			col[i] = 100 + float64(c*i)
		}
		f.Values[c] = col
	}
	f.Values[2][0] = nan

	img, err := MakeRebasedChart(f)
	require.NoError(t, err)
	assert.True(t, isPNG(img))

	_, err = MakeRebasedChart(&Frame{Dates: []time.Time{jan(2)}, Columns: []string{"PBR"}, Values: [][]float64{{100}}})
	assert.Error(t, err)
}

func TestMakeRollingChart(t *testing.T) {
	n := 120
	dates := make([]time.Time, n)
	vals := make([]float64, n)
	for i := range dates {
		dates[i] = jan(1).AddDate(0, 0, i)
		vals[i] = nan
		if i >= 89 {
			vals[i] = math.Sin(float64(i) / 10)
		}
	}
	img, err := MakeRollingChart(dates, 90, []RollingSeries{{Name: "PBR ~ Brent", Values: vals}})
	require.NoError(t, err)
	assert.True(t, isPNG(img))

	_, err = MakeRollingChart(dates, 90, nil)
	assert.Error(t, err)
}

func TestMakeScatterChart(t *testing.T) {
	x := []float64{-0.02, 0.01, nan, 0.03, 0.0, -0.01}
	y := []float64{-0.015, 0.012, 0.02, 0.025, nan, -0.009}
	img, err := MakeScatterChart("Petrobras vs Brent Daily Returns", "Brent returns", "PBR returns", x, y, 0.001, 0.8)
	require.NoError(t, err)
	assert.True(t, isPNG(img))

	_, err = MakeScatterChart("t", "x", "y", []float64{1}, []float64{2}, 0, 1)
	assert.Error(t, err)
}
