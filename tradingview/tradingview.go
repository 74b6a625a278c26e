// Package tradingview fetches live quotes from the TradingView scanner.
// Quotes are intraday data: never cached, and a failure fails the whole
// call (the poller degrades and retries).
package tradingview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/okutan/trackfolio"
)

// DefaultBaseURL is the public scanner endpoint.
const DefaultBaseURL = "https://scanner.tradingview.com"

// MaxTickers bounds one Quotes call.
const MaxTickers = 50

// exchangePrefix is prepended to bare tickers; the tracked exchange is Borsa
// Istanbul.
const exchangePrefix = "BIST:"

// scanColumns is the column order requested from the scanner; the response
// rows index into it.
var scanColumns = []string{"close", "change", "change_abs", "volume", "description", "name"}

// Symbol maps a normalized ticker to its scanner symbol.
func Symbol(ticker string) string {
	if strings.Contains(ticker, ":") {
		return ticker
	}
	return exchangePrefix + ticker
}

// Quote is one live quote. Pointer fields are nil when the scanner returned
// null for the column.
type Quote struct {
	Price       *float64 `json:"price"`
	ChangePct   *float64 `json:"changePct"`
	ChangeAbs   *float64 `json:"changeAbs"`
	Volume      *float64 `json:"volume,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Snapshot is the result of one Quotes call.
type Snapshot struct {
	Source    string           `json:"source"`
	AsOf      time.Time        `json:"asOf"`
	Quotes    map[string]Quote `json:"quotes"`
	Requested int              `json:"requested"`
	Returned  int              `json:"returned"`
}

// Book converts the snapshot into the engine's quote book, dropping quotes
// without a price.
func (s *Snapshot) Book() trackfolio.QuoteBook {
	book := make(trackfolio.QuoteBook, len(s.Quotes))
	for t, q := range s.Quotes {
		if q.Price == nil {
			continue
		}
		b := trackfolio.Quote{Price: *q.Price}
		if q.ChangePct != nil {
			b.ChangePct = *q.ChangePct
		}
		if q.ChangeAbs != nil {
			b.ChangeAbs = *q.ChangeAbs
		}
		book[t] = b
	}
	return book
}

// Client fetches quotes from one scanner endpoint.
type Client struct {
	BaseURL string

	client *http.Client
	log    *zap.Logger
}

// NewClient returns a client against the public scanner.
func NewClient(log *zap.Logger) *Client {
	return NewClientWith(DefaultBaseURL, nil, log)
}

// NewClientWith returns a client against a custom endpoint, for tests and
// callers managing their own transport.
func NewClientWith(baseURL string, hc *http.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, client: hc, log: log}
}

type scanRequest struct {
	Symbols struct {
		Tickers []string `json:"tickers"`
		Query   struct {
			Types []string `json:"types"`
		} `json:"query"`
	} `json:"symbols"`
	Columns []string `json:"columns"`
}

type scanResponse struct {
	TotalCount int `json:"totalCount"`
	Data       []struct {
		Symbol string            `json:"s"`
		Row    []json.RawMessage `json:"d"`
	} `json:"data"`
}

func numAt(row []json.RawMessage, i int) *float64 {
	if i >= len(row) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(row[i], &f); err != nil {
		return nil
	}
	return &f
}

func strAt(row []json.RawMessage, i int) string {
	if i >= len(row) {
		return ""
	}
	var s string
	if err := json.Unmarshal(row[i], &s); err != nil {
		return ""
	}
	return s
}

// Quotes fetches live quotes for the tickers in one scanner call. Unlike
// history, any failure fails the whole call.
func (c *Client) Quotes(ctx context.Context, tickers []string) (*Snapshot, error) {
	tickers = trackfolio.NormalizeTickers(strings.Join(tickers, ","), 0)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers requested")
	}
	if len(tickers) > MaxTickers {
		return nil, fmt.Errorf("too many tickers: %d > %d", len(tickers), MaxTickers)
	}

	var reqBody scanRequest
	for _, t := range tickers {
		reqBody.Symbols.Tickers = append(reqBody.Symbols.Tickers, Symbol(t))
	}
	reqBody.Columns = scanColumns
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/turkey/scan", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "trackfolio/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote scan failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote scan failed: %s", resp.Status)
	}

	var sr scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("invalid scan response: %w", err)
	}

	snap := &Snapshot{
		Source:    "tradingview",
		AsOf:      time.Now().UTC(),
		Quotes:    make(map[string]Quote, len(sr.Data)),
		Requested: len(tickers),
	}
	for _, row := range sr.Data {
		ticker := strings.TrimPrefix(row.Symbol, exchangePrefix)
		// The row indexes into scanColumns.
		snap.Quotes[ticker] = Quote{
			Price:       numAt(row.Row, 0),
			ChangePct:   numAt(row.Row, 1),
			ChangeAbs:   numAt(row.Row, 2),
			Volume:      numAt(row.Row, 3),
			Description: strAt(row.Row, 4),
		}
	}
	snap.Returned = len(snap.Quotes)
	c.log.Debug("quotes fetched",
		zap.Int("requested", snap.Requested),
		zap.Int("returned", snap.Returned))
	return snap, nil
}
