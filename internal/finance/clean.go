package finance

// CleanPrices drops rows with no observation at all and forward-fills each
// column, leaving only leading gaps missing.
func CleanPrices(prices *Frame) *Frame {
	return prices.DropEmptyRows().ForwardFill()
}

// alignBars truncates the timestamp and value arrays of one symbol to a
// common length, keeping them index-aligned.
func alignBars(ts []int64, fields map[string][]*float64) ([]int64, int) {
	n := len(ts)
	for _, vals := range fields {
		if vals != nil && len(vals) < n {
			n = len(vals)
		}
	}
	return ts[:n], n
}
