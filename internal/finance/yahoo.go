package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// DefaultHosts are tried in order for every request.
var DefaultHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

// YahooClient downloads daily bars from the Yahoo v8 chart endpoint.
type YahooClient struct {
	Hosts    []string
	Retries  int
	Backoffs []time.Duration

	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewYahooClient builds a client that spaces requests by at least interval.
// retries counts extra rounds over all hosts after the first one fails.
func NewYahooClient(httpClient *http.Client, interval time.Duration, retries int, logger zerolog.Logger) *YahooClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &YahooClient{
		Hosts:    DefaultHosts,
		Retries:  retries,
		Backoffs: []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, 1),
		log:      logger.With().Str("component", "yahoo").Logger(),
	}
}

// fetchDaily fetches one symbol's daily bars between start and end. A zero
// end means up to now.
func (c *YahooClient) fetchDaily(ctx context.Context, symbol string, start, end time.Time) (*yahooChartResp, error) {
	if end.IsZero() {
		end = time.Now()
	}
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	q.Set("includeAdjustedClose", "true")
	path := "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + q.Encode()

	var yc yahooChartResp
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			wait := c.Backoffs[len(c.Backoffs)-1]
			if attempt-1 < len(c.Backoffs) {
				wait = c.Backoffs[attempt-1]
			}
			c.log.Warn().Err(lastErr).Str("symbol", symbol).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying download")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		for _, host := range c.Hosts {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			lastErr = c.get(ctx, host+path, symbol, &yc)
			if lastErr == nil {
				return &yc, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Debug().Err(lastErr).Str("host", host).Str("symbol", symbol).Msg("host failed")
		}
	}
	return nil, lastErr
}

func (c *YahooClient) get(ctx context.Context, rawURL, symbol string, out *yahooChartResp) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/history", strings.ToUpper(symbol)))
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read yahoo response: %w", readErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return fmt.Errorf("yahoo returned 429 for %s: Edge: Too Many Requests", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo returned %d for %s: %s", resp.StatusCode, symbol, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	*out = yahooChartResp{}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	if out.Chart.Error != nil {
		return fmt.Errorf("yahoo error for %s: %s: %s", symbol, out.Chart.Error.Code, out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 || len(out.Chart.Result[0].Indicators.Quote) == 0 {
		return errors.New("no data for " + symbol)
	}
	return nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
