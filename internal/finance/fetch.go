package finance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DownloadRequest describes one multi-symbol historical download.
type DownloadRequest struct {
	Tickers    []string
	Start      time.Time
	End        time.Time // zero means latest available
	AutoAdjust bool
}

// Download fetches daily bars for every ticker and combines them into one
// provider table. Several tickers produce a by-field table, a single
// ticker a flat table of field columns.
func (c *YahooClient) Download(ctx context.Context, req DownloadRequest) (*RawTable, error) {
	if len(req.Tickers) == 0 {
		return nil, errors.New("no symbols provided")
	}
	assets := make([]AssetData, 0, len(req.Tickers))
	for _, s := range req.Tickers {
		sym := strings.TrimSpace(s)
		if sym == "" {
			continue
		}
		yc, err := c.fetchDaily(ctx, sym, req.Start, req.End)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		asset := toAsset(sym, yc, req.AutoAdjust)
		c.log.Info().Str("symbol", sym).Int("bars", len(asset.Dates)).Msg("downloaded daily bars")
		assets = append(assets, asset)
	}
	if len(assets) == 0 {
		return nil, errors.New("no series fetched")
	}
	return combineAssets(assets, req.AutoAdjust), nil
}

// toAsset converts a chart response into per-field columns keyed by
// exchange-local trading date. With autoAdjust the OHLC values are scaled
// by adjclose/close and the adjusted close column is dropped.
func toAsset(symbol string, yc *yahooChartResp, autoAdjust bool) AssetData {
	res := yc.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}
	raw := map[string][]*float64{
		FieldOpen:   quote.Open,
		FieldHigh:   quote.High,
		FieldLow:    quote.Low,
		FieldClose:  quote.Close,
		FieldVolume: quote.Volume,
	}
	if adj != nil {
		raw[FieldAdjClose] = adj
	}
	ts, n := alignBars(res.Timestamp, raw)

	fields := make(map[string][]float64, len(raw))
	for name, vals := range raw {
		fields[name] = ptrsToFloats(vals, n)
	}
	if autoAdjust {
		if adjClose, ok := fields[FieldAdjClose]; ok {
			closes := fields[FieldClose]
			ratio := make([]float64, n)
			for i := range ratio {
				ratio[i] = adjClose[i] / closes[i]
			}
			for _, name := range []string{FieldOpen, FieldHigh, FieldLow} {
				for i, v := range fields[name] {
					fields[name][i] = v * ratio[i]
				}
			}
			fields[FieldClose] = adjClose
		}
		delete(fields, FieldAdjClose)
	}

	loc := exchangeLocation(res.Meta.ExchangeTimezoneName, res.Meta.GmtOffset)
	dates := make([]time.Time, n)
	for i, t := range ts {
		dates[i] = tradingDate(t, loc)
	}
	return AssetData{Symbol: symbol, Dates: dates, Fields: fields}
}

// combineAssets outer-joins the assets on trading date. When a date repeats
// within one asset the later bar wins.
func combineAssets(assets []AssetData, autoAdjust bool) *RawTable {
	fieldOrder := []string{FieldAdjClose, FieldClose, FieldHigh, FieldLow, FieldOpen, FieldVolume}
	if autoAdjust {
		fieldOrder = fieldOrder[1:]
	}

	seen := map[time.Time]struct{}{}
	for _, a := range assets {
		for _, d := range a.Dates {
			seen[d] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	rowOf := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		rowOf[d] = i
	}

	table := &RawTable{Layout: LayoutByField, Dates: dates}
	if len(assets) == 1 {
		table.Layout = LayoutFlat
		table.Symbol = assets[0].Symbol
	}
	for _, field := range fieldOrder {
		for _, a := range assets {
			src, ok := a.Fields[field]
			if !ok {
				continue
			}
			col := make([]float64, len(dates))
			for i := range col {
				col[i] = math.NaN()
			}
			for i, d := range a.Dates {
				col[rowOf[d]] = src[i]
			}
			key := ColumnKey{Field: field, Ticker: a.Symbol}
			if table.Layout == LayoutFlat {
				key.Ticker = ""
			}
			table.Columns = append(table.Columns, key)
			table.Values = append(table.Values, col)
		}
	}
	return table
}
