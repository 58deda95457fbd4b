package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPriceField is returned when a by-field table carries neither a
	// Close nor an Adj Close field.
	ErrNoPriceField = errors.New("neither 'Close' nor 'Adj Close' found in downloaded data")
	// ErrNoTickers is returned when none of the requested tickers is present.
	ErrNoTickers = errors.New("none of the requested tickers found in the price table")
)

// ExtractPrices returns one price column per requested ticker that is
// present in raw, in request order, with rows sorted by date ascending.
// Close is preferred over Adj Close.
func ExtractPrices(raw *RawTable, tickers []string) (*Frame, error) {
	var prices *Frame
	switch raw.Layout {
	case LayoutByField:
		field, ok := priceField(raw)
		if !ok {
			return nil, ErrNoPriceField
		}
		prices = &Frame{Dates: raw.Dates}
		for i, c := range raw.Columns {
			if c.Field == field {
				prices.Columns = append(prices.Columns, c.Ticker)
				prices.Values = append(prices.Values, raw.Values[i])
			}
		}
	case LayoutFlat:
		prices = &Frame{Dates: raw.Dates}
		if field, ok := priceField(raw); ok {
			col, _ := raw.Column(ColumnKey{Field: field})
			if raw.Symbol != "" {
				prices.Columns = []string{raw.Symbol}
				prices.Values = [][]float64{col}
			}
		} else {
			for i, c := range raw.Columns {
				prices.Columns = append(prices.Columns, c.Field)
				prices.Values = append(prices.Values, raw.Values[i])
			}
		}
	default:
		return nil, fmt.Errorf("unknown column layout %d", raw.Layout)
	}

	common := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := prices.Column(t); ok {
			common = append(common, t)
		}
	}
	if len(common) == 0 {
		return nil, fmt.Errorf("%w (requested %v, available %v)", ErrNoTickers, tickers, prices.Columns)
	}
	out, err := prices.Select(common...)
	if err != nil {
		return nil, err
	}
	return out.SortByDate(), nil
}

func priceField(raw *RawTable) (string, bool) {
	switch {
	case raw.HasField(FieldClose):
		return FieldClose, true
	case raw.HasField(FieldAdjClose):
		return FieldAdjClose, true
	}
	return "", false
}
