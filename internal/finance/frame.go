package finance

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frame is a date-indexed table of float columns. Missing cells are NaN.
type Frame struct {
	Dates   []time.Time
	Columns []string
	Values  [][]float64 // Values[col][row]
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Dates) }

// Column returns a column by name.
func (f *Frame) Column(name string) ([]float64, bool) {
	for i, c := range f.Columns {
		if c == name {
			return f.Values[i], true
		}
	}
	return nil, false
}

// MustColumn returns a column by name or an error naming the missing column.
func (f *Frame) MustColumn(name string) ([]float64, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found (have %v)", name, f.Columns)
	}
	return col, nil
}

// Select returns a new frame with the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := &Frame{Dates: f.Dates, Columns: make([]string, 0, len(names)), Values: make([][]float64, 0, len(names))}
	for _, n := range names {
		col, err := f.MustColumn(n)
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, n)
		out.Values = append(out.Values, col)
	}
	return out, nil
}

// Rename returns a copy with columns renamed through mapping; unmapped
// names are kept.
func (f *Frame) Rename(mapping map[string]string) *Frame {
	out := &Frame{Dates: f.Dates, Columns: make([]string, len(f.Columns)), Values: f.Values}
	for i, c := range f.Columns {
		if n, ok := mapping[c]; ok {
			out.Columns[i] = n
		} else {
			out.Columns[i] = c
		}
	}
	return out
}

// SortByDate orders rows by ascending date and keeps the last row of any
// duplicated date.
func (f *Frame) SortByDate() *Frame {
	idx := make([]int, len(f.Dates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return f.Dates[idx[a]].Before(f.Dates[idx[b]]) })

	keep := make([]int, 0, len(idx))
	for _, i := range idx {
		if n := len(keep); n > 0 && f.Dates[keep[n-1]].Equal(f.Dates[i]) {
			keep[n-1] = i
			continue
		}
		keep = append(keep, i)
	}
	return f.takeRows(keep)
}

// DropEmptyRows removes rows in which every column is missing.
func (f *Frame) DropEmptyRows() *Frame {
	keep := make([]int, 0, f.Len())
	for r := 0; r < f.Len(); r++ {
		for c := range f.Values {
			if !math.IsNaN(f.Values[c][r]) {
				keep = append(keep, r)
				break
			}
		}
	}
	return f.takeRows(keep)
}

// ForwardFill carries the last observed value of each column forward.
// Leading gaps stay missing.
func (f *Frame) ForwardFill() *Frame {
	out := &Frame{Dates: f.Dates, Columns: f.Columns, Values: make([][]float64, len(f.Values))}
	for c, col := range f.Values {
		filled := make([]float64, len(col))
		last := math.NaN()
		for r, v := range col {
			if math.IsNaN(v) {
				filled[r] = last
				continue
			}
			last = v
			filled[r] = v
		}
		out.Values[c] = filled
	}
	return out
}

// CompleteRows returns the indexes of rows where all named columns are
// present.
func (f *Frame) CompleteRows(names ...string) ([]int, error) {
	cols := make([][]float64, 0, len(names))
	for _, n := range names {
		col, err := f.MustColumn(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	rows := make([]int, 0, f.Len())
	for r := 0; r < f.Len(); r++ {
		ok := true
		for _, col := range cols {
			if math.IsNaN(col[r]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// DropIncompleteRows keeps only the rows where every column is present.
func (f *Frame) DropIncompleteRows() *Frame {
	rows, _ := f.CompleteRows(f.Columns...)
	return f.takeRows(rows)
}

func (f *Frame) takeRows(rows []int) *Frame {
	out := &Frame{
		Dates:   make([]time.Time, len(rows)),
		Columns: f.Columns,
		Values:  make([][]float64, len(f.Values)),
	}
	for i, r := range rows {
		out.Dates[i] = f.Dates[r]
	}
	for c, col := range f.Values {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = col[r]
		}
		out.Values[c] = vals
	}
	return out
}

// firstValid returns the first non-missing value of col.
func firstValid(col []float64) (float64, bool) {
	for _, v := range col {
		if !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}

func take(col []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = col[r]
	}
	return out
}
