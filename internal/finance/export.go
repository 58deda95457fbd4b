package finance

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// roundString formats v rounded half away from zero to places decimals
// with trailing zeros trimmed but at least one decimal kept, as float CSV
// cells usually read (1.0, 0.5, 0.4568). NaN becomes the empty string.
func roundString(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	s := decimal.NewFromFloat(v).Round(places).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// fixedString formats v with exactly places decimals. NaN prints as NaN.
func fixedString(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// WriteCSV writes the matrix as a square CSV table: a header row of column
// names and one row per column, values rounded to places decimals.
func (m *CorrMatrix) WriteCSV(w io.Writer, places int32) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, m.Columns...)); err != nil {
		return err
	}
	for i, name := range m.Columns {
		row := make([]string, 0, len(m.Columns)+1)
		row = append(row, name)
		for j := range m.Columns {
			row = append(row, roundString(m.Values[i][j], places))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Format renders the matrix as an aligned text table with a fixed number
// of decimals.
func (m *CorrMatrix) Format(places int32) string {
	width := 8
	for _, c := range m.Columns {
		if len(c) > width {
			width = len(c)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s", width, "")
	for _, c := range m.Columns {
		fmt.Fprintf(&b, " %*s", width, c)
	}
	b.WriteString("\n")
	for i, name := range m.Columns {
		fmt.Fprintf(&b, "%-*s", width, name)
		for j := range m.Columns {
			fmt.Fprintf(&b, " %*s", width, fixedString(m.Values[i][j], places))
		}
		b.WriteString("\n")
	}
	return b.String()
}
