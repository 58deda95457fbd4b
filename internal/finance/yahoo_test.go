package finance

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jan(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

type bars struct {
	tz    string
	days  []int
	close []any
	adj   []any
}

// chartJSON renders a v8 chart payload. Bars are stamped at 14:30 UTC.
func chartJSON(t *testing.T, sym string, b bars) []byte {
	t.Helper()
	ts := make([]int64, len(b.days))
	for i, d := range b.days {
		ts[i] = time.Date(2024, 1, d, 14, 30, 0, 0, time.UTC).Unix()
	}
	volume := make([]any, len(b.days))
	for i := range volume {
		volume[i] = 1000
	}
	payload := map[string]any{
		"chart": map[string]any{
			"result": []any{map[string]any{
				"meta":      map[string]any{"symbol": sym, "exchangeTimezoneName": b.tz, "gmtoffset": 0},
				"timestamp": ts,
				"indicators": map[string]any{
					"quote": []any{map[string]any{
						"open": b.close, "high": b.close, "low": b.close, "close": b.close, "volume": volume,
					}},
					"adjclose": []any{map[string]any{"adjclose": b.adj}},
				},
			}},
			"error": nil,
		},
	}
	out, err := json.Marshal(payload)
	require.NoError(t, err)
	return out
}

func newTestClient(retries int, hosts ...string) *YahooClient {
	c := NewYahooClient(http.DefaultClient, 0, retries, zerolog.Nop())
	c.Hosts = hosts
	c.Backoffs = []time.Duration{time.Millisecond}
	return c
}

func symbolServer(t *testing.T, payloads map[string]bars) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sym := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		b, ok := payloads[sym]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			return
		}
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "true", r.URL.Query().Get("includeAdjustedClose"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chartJSON(t, sym, b))
	}))
}

func TestYahooClient_DownloadOuterJoin(t *testing.T) {
	srv := symbolServer(t, map[string]bars{
		"PBR":   {tz: "America/New_York", days: []int{2, 3, 4}, close: []any{10, 11, 12}, adj: []any{5, 5.5, 6}},
		"^BVSP": {tz: "America/Sao_Paulo", days: []int{2, 4, 5}, close: []any{100, nil, 104}, adj: []any{100, nil, 104}},
	})
	defer srv.Close()

	c := newTestClient(0, srv.URL)
	raw, err := c.Download(context.Background(), DownloadRequest{
		Tickers:    []string{"PBR", "^BVSP"},
		Start:      jan(1),
		End:        jan(6),
		AutoAdjust: true,
	})
	require.NoError(t, err)

	assert.Equal(t, LayoutByField, raw.Layout)
	assert.Equal(t, []time.Time{jan(2), jan(3), jan(4), jan(5)}, raw.Dates)
	assert.False(t, raw.HasField(FieldAdjClose))

	pbr, ok := raw.Column(ColumnKey{Field: FieldClose, Ticker: "PBR"})
	require.True(t, ok)
	assert.Equal(t, []float64{5, 5.5, 6}, pbr[:3])
	assert.True(t, math.IsNaN(pbr[3]))

	open, _ := raw.Column(ColumnKey{Field: FieldOpen, Ticker: "PBR"})
	assert.InDelta(t, 5.0, open[0], 1e-12)

	bvsp, _ := raw.Column(ColumnKey{Field: FieldClose, Ticker: "^BVSP"})
	assert.Equal(t, 100.0, bvsp[0])
	assert.True(t, math.IsNaN(bvsp[1]))
	assert.True(t, math.IsNaN(bvsp[2]))
	assert.Equal(t, 104.0, bvsp[3])

	prices, err := ExtractPrices(raw, []string{"PBR", "BZ=F", "^BVSP"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PBR", "^BVSP"}, prices.Columns)
}

func TestYahooClient_DownloadUnadjusted(t *testing.T) {
	srv := symbolServer(t, map[string]bars{
		"PBR":  {days: []int{2, 3}, close: []any{10, 11}, adj: []any{5, 5.5}},
		"BZ=F": {days: []int{2, 3}, close: []any{80, 81}, adj: []any{80, 81}},
	})
	defer srv.Close()

	raw, err := newTestClient(0, srv.URL).Download(context.Background(), DownloadRequest{
		Tickers: []string{"PBR", "BZ=F"},
		Start:   jan(1),
	})
	require.NoError(t, err)
	assert.Equal(t, ColumnKey{Field: FieldAdjClose, Ticker: "PBR"}, raw.Columns[0])
	closes, _ := raw.Column(ColumnKey{Field: FieldClose, Ticker: "PBR"})
	assert.Equal(t, []float64{10, 11}, closes)
}

func TestYahooClient_DownloadSingleSymbol(t *testing.T) {
	srv := symbolServer(t, map[string]bars{
		"PBR": {days: []int{2, 3}, close: []any{10, 11}, adj: []any{10, 11}},
	})
	defer srv.Close()

	raw, err := newTestClient(0, srv.URL).Download(context.Background(), DownloadRequest{
		Tickers: []string{"PBR"}, Start: jan(1), AutoAdjust: true,
	})
	require.NoError(t, err)
	assert.Equal(t, LayoutFlat, raw.Layout)
	assert.Equal(t, "PBR", raw.Symbol)

	prices, err := ExtractPrices(raw, []string{"PBR", "BZ=F"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PBR"}, prices.Columns)
	assert.Equal(t, []float64{10, 11}, prices.Values[0])
}

func TestYahooClient_Errors(t *testing.T) {
	html := "<html>" + strings.Repeat("x", 500) + "</html>"
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"rate limited", http.StatusTooManyRequests, "Edge: Too Many Requests", "429"},
		{"server error", http.StatusInternalServerError, html, "yahoo returned 500 for PBR"},
		{"html body", http.StatusOK, html, "non-json body"},
		{"bad json", http.StatusOK, "{not json", "failed to parse yahoo json"},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, "Not Found"},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, "no data for PBR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(0, srv.URL).Download(context.Background(), DownloadRequest{Tickers: []string{"PBR"}, Start: jan(1)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Less(t, len(err.Error()), 250)
		})
	}
}

func TestYahooClient_HostFallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer bad.Close()
	good := symbolServer(t, map[string]bars{"PBR": {days: []int{2}, close: []any{10}, adj: []any{10}}})
	defer good.Close()

	raw, err := newTestClient(0, bad.URL, good.URL).Download(context.Background(), DownloadRequest{Tickers: []string{"PBR"}, Start: jan(1)})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{jan(2)}, raw.Dates)
}

func TestYahooClient_Retries(t *testing.T) {
	var calls atomic.Int32
	payload := bars{days: []int{2}, close: []any{10}, adj: []any{10}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(chartJSON(t, "PBR", payload))
	}))
	defer srv.Close()

	req := DownloadRequest{Tickers: []string{"PBR"}, Start: jan(1)}
	_, err := newTestClient(0, srv.URL).Download(context.Background(), req)
	require.Error(t, err)

	calls.Store(0)
	_, err = newTestClient(1, srv.URL).Download(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTradingDate(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	// 01:00 UTC on Jan 3 is still Jan 2 in São Paulo.
	ts := time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, jan(2), tradingDate(ts, sp))
	assert.Equal(t, jan(3), tradingDate(ts, exchangeLocation("", 0)))
	assert.Equal(t, "EXCH", exchangeLocation("Not/AZone", -10800).String())
}
