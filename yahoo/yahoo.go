// Package yahoo fetches daily close history from the Yahoo Finance chart
// API. Responses are cached on disk with a daily expiry; per-ticker failures
// are reported alongside the successful series rather than failing the call.
package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/okutan/trackfolio"
)

// DefaultBaseURL is the Yahoo Finance chart API endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// MaxTickers bounds one History call.
const MaxTickers = 25

// defaultSuffix is appended to bare tickers; the tracked exchange is Borsa
// Istanbul.
const defaultSuffix = ".IS"

// Symbol maps a normalized ticker to its Yahoo symbol. Tickers that already
// carry an exchange suffix are passed through.
func Symbol(ticker string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + defaultSuffix
}

// Client fetches history from one Yahoo-compatible endpoint.
type Client struct {
	BaseURL string

	client *http.Client
	log    *zap.Logger
}

// NewClient returns a client against the public endpoint, with the
// daily-expiring disk cache.
func NewClient(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{BaseURL: DefaultBaseURL, client: cached(log), log: log}
}

// NewClientWith returns a client against a custom endpoint with a custom
// http client, uncached. Used by tests and by callers that manage their own
// transport.
func NewClientWith(baseURL string, hc *http.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, client: hc, log: log}
}

// History is the result of one multi-ticker fetch. Errors maps each failed
// ticker to its cause; a ticker appears in exactly one of the two maps.
type History struct {
	Series map[string]trackfolio.PriceSeries
	Errors map[string]string
}

// Book converts the fetched series into the engine's price book.
func (h *History) Book() trackfolio.PriceBook {
	book := make(trackfolio.PriceBook, len(h.Series))
	for t, s := range h.Series {
		book[t] = s
	}
	return book
}

// History fetches the daily close series of every ticker between start and
// end inclusive. Tickers are fetched concurrently; an individual failure is
// recorded in Errors without failing the call. The call itself fails only on
// invalid arguments or a cancelled context.
func (c *Client) History(ctx context.Context, tickers []string, start, end trackfolio.Date) (*History, error) {
	tickers = trackfolio.NormalizeTickers(strings.Join(tickers, ","), 0)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers requested")
	}
	if len(tickers) > MaxTickers {
		return nil, fmt.Errorf("too many tickers: %d > %d", len(tickers), MaxTickers)
	}

	h := &History{
		Series: make(map[string]trackfolio.PriceSeries),
		Errors: make(map[string]string),
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			series, err := c.fetchOne(ctx, ticker, start, end)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.log.Warn("history fetch failed", zap.String("ticker", ticker), zap.Error(err))
				h.Errors[ticker] = err.Error()
				return
			}
			h.Series[ticker] = series
		}(ticker)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

func (c *Client) fetchOne(ctx context.Context, ticker string, start, end trackfolio.Date) (trackfolio.PriceSeries, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.BaseURL, Symbol(ticker), start.Unix()/1000, end.Add(1).Unix()/1000)

	jobj, err := c.jget(ctx, addr)
	if err != nil {
		return trackfolio.PriceSeries{}, fmt.Errorf("error retrieving %q: %w", ticker, err)
	}

	if desc, err := jsonpath.Get("$.chart.error.description", jobj); err == nil && desc != nil {
		return trackfolio.PriceSeries{}, fmt.Errorf("provider error for %q: %v", ticker, desc)
	}

	timestamps, err := jlist(jobj, "$.chart.result[0].timestamp")
	if err != nil {
		return trackfolio.PriceSeries{}, fmt.Errorf("no timestamps for %q: %w", ticker, err)
	}
	// Adjusted close accounts for splits and dividends; prefer it, fall back
	// to the raw close.
	closes, err := jlist(jobj, "$.chart.result[0].indicators.adjclose[0].adjclose")
	if err != nil {
		closes, err = jlist(jobj, "$.chart.result[0].indicators.quote[0].close")
	}
	if err != nil {
		return trackfolio.PriceSeries{}, fmt.Errorf("no closes for %q: %w", ticker, err)
	}

	n := len(timestamps)
	if len(closes) < n {
		n = len(closes)
	}
	series := trackfolio.PriceSeries{}
	for i := 0; i < n; i++ {
		ts, ok := toInt64(timestamps[i])
		if !ok {
			continue
		}
		// The provider emits null for days without a close (holidays,
		// suspended trading); those samples are skipped, not zeroed.
		close, ok := toFloat(closes[i])
		if !ok {
			continue
		}
		series.Timestamps = append(series.Timestamps, ts)
		series.Close = append(series.Close, close)
	}
	if len(series.Timestamps) == 0 {
		return trackfolio.PriceSeries{}, fmt.Errorf("empty series for %q", ticker)
	}
	return series, nil
}

// jget performs a GET and decodes the JSON body, keeping numbers exact.
func (c *Client) jget(ctx context.Context, addr string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "trackfolio/1.0")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return jobj, nil
}

func jlist(jobj any, path string) ([]any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, err
	}
	list, ok := jval.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%q is not a list", path)
	}
	return list, nil
}

func toInt64(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

// toFloat parses a decoded JSON number through decimal, so provider values
// like 123.4500000001 round-trip the way they were quoted.
func toFloat(v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
