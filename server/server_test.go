package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okutan/trackfolio"
	"github.com/okutan/trackfolio/tradingview"
	"github.com/okutan/trackfolio/yahoo"
)

type fakeHistory struct {
	h   *yahoo.History
	err error
}

func (f fakeHistory) History(ctx context.Context, tickers []string, start, end trackfolio.Date) (*yahoo.History, error) {
	return f.h, f.err
}

type fakeQuotes struct {
	snap *tradingview.Snapshot
	err  error
}

func (f fakeQuotes) Quotes(ctx context.Context, tickers []string) (*tradingview.Snapshot, error) {
	return f.snap, f.err
}

const positionsJSON = `{
  "currency": "TRY",
  "positions": [
    {"symbol": "AAA", "buyDate": "2025-01-01", "unitCost": 10, "total": 1000}
  ]
}`

func testServer(t *testing.T) *Server {
	t.Helper()
	dataFile := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, os.WriteFile(dataFile, []byte(positionsJSON), 0o644))

	history := fakeHistory{h: &yahoo.History{
		Series: map[string]trackfolio.PriceSeries{
			"AAA": {
				Timestamps: []int64{
					trackfolio.MustParseDay("2025-01-01").Unix() / 1000,
					trackfolio.MustParseDay("2025-01-03").Unix() / 1000,
				},
				Close: []float64{10, 11},
			},
		},
		Errors: map[string]string{},
	}}
	price := 12.0
	quotes := fakeQuotes{snap: &tradingview.Snapshot{
		Source: "test",
		AsOf:   time.Now().UTC(),
		Quotes: map[string]tradingview.Quote{"AAA": {Price: &price}},
	}}

	cfg := Config{
		DataFile:        dataFile,
		StaticDir:       t.TempDir(),
		Currency:        "TRY",
		ProviderTimeout: time.Second,
		Poll:            PollConfig{Healthy: 10 * time.Second, Degraded: 30 * time.Second},
	}
	return NewWith(cfg, nil, history, quotes)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := get(t, testServer(t), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, string(PollHealthy), body["poller"])
}

func TestServer_CommonHeaders(t *testing.T) {
	rec := get(t, testServer(t), "/api/health")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_Series(t *testing.T) {
	rec := get(t, testServer(t), "/api/series")
	require.Equal(t, http.StatusOK, rec.Code)

	var points []trackfolio.Point
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.NotEmpty(t, points)

	first := points[0]
	assert.Equal(t, "2025-01-01", first.Day.String())
	assert.Equal(t, 1000.0, first.Value)
	assert.Equal(t, 0.0, first.Pct)
	assert.Equal(t, 1000.0, first.External)
}

func TestServer_SeriesWithBadDataFile(t *testing.T) {
	s := testServer(t)
	s.cfg.DataFile = "/nonexistent/positions.json"
	rec := get(t, s, "/api/series")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_Quotes(t *testing.T) {
	s := testServer(t)

	// No poll has run yet: the cached path has nothing to serve.
	rec := get(t, s, "/api/quotes")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// An explicit ticker list goes straight to the provider.
	rec = get(t, s, "/api/quotes?tickers=aaa")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap tradingview.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Contains(t, snap.Quotes, "AAA")
	assert.Equal(t, 12.0, *snap.Quotes["AAA"].Price)
}

func TestServer_History(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/api/history")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "tickers are required")

	rec = get(t, s, "/api/history?tickers=AAA&start=2025-01-01&end=2025-01-05")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Series map[string]trackfolio.PriceSeries `json:"series"`
		Errors map[string]string                 `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Series, "AAA")

	rec = get(t, s, "/api/history?tickers=AAA&start=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ChartSVG(t *testing.T) {
	rec := get(t, testServer(t), "/api/chart.svg?range=ALL&metric=pct")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))
}

func TestServer_ExportCSV(t *testing.T) {
	rec := get(t, testServer(t), "/api/export.csv?range=ALL")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "day,pct,value,dayReturnPct\n"))
}

func TestServer_Report(t *testing.T) {
	rec := get(t, testServer(t), "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	var rep trackfolio.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 1, rep.Open)
	assert.Equal(t, "TRY", rep.Currency)
	assert.Equal(t, 1000.0, rep.Invested)
}

func TestServer_Refresh(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/quotes/refresh", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8787", cfg.Addr)
	assert.Equal(t, 8*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 10*time.Second, cfg.Poll.Healthy)
	assert.Equal(t, 30*time.Second, cfg.Poll.Degraded)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9000\"\npoll:\n  healthy: 5s\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.Poll.Healthy)
	assert.Equal(t, 30*time.Second, cfg.Poll.Degraded, "defaults fill unset keys")
}
