package finance

import (
	"errors"
	"math"
)

// Semantic names of the return columns, keyed by ticker.
var ReturnNames = map[string]string{
	"PBR":   "PBR_ret",
	"BZ=F":  "Brent_ret",
	"BRL=X": "USDBRL_ret",
	"^BVSP": "Bovespa_ret",
}

// PctChange converts price levels into simple returns
// (p[t]-p[t-1])/p[t-1] and drops the first, undefined, row. Zero or
// negative prices are not guarded.
func PctChange(prices *Frame) (*Frame, error) {
	if prices.Len() < 2 {
		return nil, errors.New("need at least 2 price rows to compute returns")
	}
	out := &Frame{
		Dates:   prices.Dates[1:],
		Columns: prices.Columns,
		Values:  make([][]float64, len(prices.Values)),
	}
	for c, col := range prices.Values {
		rets := make([]float64, len(col)-1)
		for t := 1; t < len(col); t++ {
			prev := col[t-1]
			if math.IsNaN(prev) || math.IsNaN(col[t]) {
				rets[t-1] = math.NaN()
				continue
			}
			rets[t-1] = (col[t] - prev) / prev
		}
		out.Values[c] = rets
	}
	return out, nil
}

// Rebase divides each column by its first non-missing value and multiplies
// by 100. Columns without any observation stay missing.
func Rebase(prices *Frame) *Frame {
	out := &Frame{Dates: prices.Dates, Columns: prices.Columns, Values: make([][]float64, len(prices.Values))}
	for c, col := range prices.Values {
		base, ok := firstValid(col)
		vals := make([]float64, len(col))
		for i, v := range col {
			if !ok {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = v / base * 100
		}
		out.Values[c] = vals
	}
	return out
}
