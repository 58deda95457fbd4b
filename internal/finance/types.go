package finance

import (
	"math"
	"time"
)

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields).
// Price arrays hold pointers so that JSON nulls survive as missing values.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Currency             string `json:"currency"`
				GmtOffset            int    `json:"gmtoffset"`
				Timezone             string `json:"timezone"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Field names used in provider tables.
const (
	FieldOpen     = "Open"
	FieldHigh     = "High"
	FieldLow      = "Low"
	FieldClose    = "Close"
	FieldAdjClose = "Adj Close"
	FieldVolume   = "Volume"
)

// Layout tags the column shape of a RawTable.
type Layout int

const (
	// LayoutByField is a two-level {field × ticker} column hierarchy.
	LayoutByField Layout = iota
	// LayoutFlat is a single level of column names.
	LayoutFlat
)

func (l Layout) String() string {
	switch l {
	case LayoutByField:
		return "by-field"
	case LayoutFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// ColumnKey addresses one RawTable column. Ticker is empty for flat tables.
type ColumnKey struct {
	Field  string
	Ticker string
}

// RawTable is the provider's download as returned, before price extraction.
type RawTable struct {
	Layout Layout
	// Symbol names the single instrument of a flat table of field columns.
	Symbol  string
	Dates   []time.Time
	Columns []ColumnKey
	Values  [][]float64 // Values[col][row], NaN when missing
}

// Column returns the values stored under key.
func (t *RawTable) Column(key ColumnKey) ([]float64, bool) {
	for i, c := range t.Columns {
		if c == key {
			return t.Values[i], true
		}
	}
	return nil, false
}

// HasField reports whether any column carries the given top-level field
// (by-field layout) or column name (flat layout).
func (t *RawTable) HasField(field string) bool {
	for _, c := range t.Columns {
		if c.Field == field {
			return true
		}
	}
	return false
}

// AssetData represents price data for a single asset as fetched.
type AssetData struct {
	Symbol string
	Dates  []time.Time
	Fields map[string][]float64
}

func ptrsToFloats(in []*float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(in) && in[i] != nil {
			out[i] = *in[i]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
