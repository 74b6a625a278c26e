// Package server exposes the performance engine over HTTP: JSON endpoints
// for quotes, history and the computed series, rendered chart and CSV
// exports, a websocket quote feed, and the static dashboard.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/okutan/trackfolio"
	"github.com/okutan/trackfolio/chart"
	"github.com/okutan/trackfolio/tradingview"
	"github.com/okutan/trackfolio/yahoo"
)

// HistoryProvider is the history edge of the server, satisfied by
// *yahoo.Client.
type HistoryProvider interface {
	History(ctx context.Context, tickers []string, start, end trackfolio.Date) (*yahoo.History, error)
}

// QuoteProvider is the live-quote edge of the server, satisfied by
// *tradingview.Client.
type QuoteProvider interface {
	Quotes(ctx context.Context, tickers []string) (*tradingview.Snapshot, error)
}

// Server wires the engine, the providers and the poller behind one router.
type Server struct {
	cfg     Config
	log     *zap.Logger
	history HistoryProvider
	quotes  QuoteProvider
	poller  *Poller
	hub     *Hub
	router  *mux.Router
}

// New builds a server against the real providers.
func New(cfg Config, log *zap.Logger) *Server {
	return NewWith(cfg, log, yahoo.NewClient(log), tradingview.NewClient(log))
}

// NewWith builds a server with explicit providers, for tests.
func NewWith(cfg Config, log *zap.Logger, history HistoryProvider, quotes QuoteProvider) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		log:     log,
		history: history,
		quotes:  quotes,
		hub:     NewHub(log),
	}
	s.poller = NewPoller(quotes.Quotes, s.trackedTickers, cfg, func(snap *tradingview.Snapshot) {
		s.hub.Broadcast(snap)
	}, log)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.withRequestID, s.withLogging, withCORS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/quotes", s.handleQuotes).Methods(http.MethodGet)
	api.HandleFunc("/quotes/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/series", s.handleSeries).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/chart.svg", s.handleChartSVG).Methods(http.MethodGet)
	api.HandleFunc("/export.csv", s.handleExportCSV).Methods(http.MethodGet)

	r.Handle("/ws/quotes", s.hub)
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.StaticDir)))
	return r
}

// ServeHTTP makes the server usable under httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts the poller and the HTTP listener, and shuts both down when the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.poller.Run(ctx)

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// trackedTickers lists the symbols of the loaded positions; the poller polls
// these.
func (s *Server) trackedTickers() []string {
	doc, err := trackfolio.LoadPositions(s.cfg.DataFile)
	if err != nil {
		s.log.Warn("cannot load positions", zap.Error(err))
		return nil
	}
	return trackfolio.Tickers(doc.Positions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"poller":  s.poller.State(),
		"clients": s.hub.Clients(),
	}
	if snap := s.poller.Snapshot(); snap != nil {
		resp["quotesAsOf"] = snap.AsOf
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleQuotes serves the latest polled snapshot, or fetches live when an
// explicit ticker list is given.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		tickers := trackfolio.NormalizeTickers(raw, tradingview.MaxTickers)
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ProviderTimeout)
		defer cancel()
		snap, err := s.quotes.Quotes(ctx, tickers)
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Errorf("quote provider: %w", err))
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}
	snap := s.poller.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no quote snapshot yet"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleRefresh cancels any in-flight poll and triggers a fresh one.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.poller.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tickers := trackfolio.NormalizeTickers(q.Get("tickers"), yahoo.MaxTickers)
	if len(tickers) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("missing tickers parameter"))
		return
	}
	end := trackfolio.Today()
	start := end.AddMonths(-12)
	var err error
	if v := q.Get("start"); v != "" {
		if start, err = trackfolio.ParseDay(v); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad start: %w", err))
			return
		}
	}
	if v := q.Get("end"); v != "" {
		if end, err = trackfolio.ParseDay(v); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad end: %w", err))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ProviderTimeout)
	defer cancel()
	h, err := s.history.History(ctx, tickers, start, end)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("history provider: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": h.Series, "errors": h.Errors})
}

// computeSeries runs the engine for the configured data file: positions,
// their full history, and the latest live snapshot for today.
func (s *Server) computeSeries(ctx context.Context) ([]trackfolio.Point, *trackfolio.Document, error) {
	doc, err := trackfolio.LoadPositions(s.cfg.DataFile)
	if err != nil {
		return nil, nil, err
	}
	tickers := trackfolio.Tickers(doc.Positions)
	today := trackfolio.Today()
	if len(tickers) == 0 {
		return nil, doc, nil
	}

	start := today
	for _, p := range doc.Positions {
		if day, err := trackfolio.ParseDay(p.BuyDate); err == nil && day.Before(start) {
			start = day
		}
	}

	hctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	h, err := s.history.History(hctx, tickers, start.Add(-7), today)
	if err != nil {
		return nil, nil, fmt.Errorf("history provider: %w", err)
	}

	var quotes trackfolio.QuoteBook
	if snap := s.poller.Snapshot(); snap != nil {
		quotes = snap.Book()
	}
	return trackfolio.ComputeSeries(doc.Positions, h.Book(), quotes, today), doc, nil
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	points, _, err := s.computeSeries(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if points == nil {
		points = []trackfolio.Point{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	points, doc, err := s.computeSeries(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, trackfolio.NewReport(doc.Positions, points, doc.Currency))
}

// visibleWindow applies the requested range preset to the series.
func visibleWindow(points []trackfolio.Point, rng string) ([]trackfolio.Point, chart.View) {
	c := chart.NewController(800)
	c.SetData(points)
	c.SetRange(chart.ParseRange(rng))
	return c.Visible(), c.View()
}

func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	points, doc, err := s.computeSeries(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	q := r.URL.Query()
	width := intParam(q.Get("w"), 800)
	height := intParam(q.Get("h"), 400)
	_, view := visibleWindow(points, q.Get("range"))

	model := chart.BuildModel(points, view, chart.ParseMetric(q.Get("metric")), width, height, -1, doc.Currency)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(chart.RenderSVG(model))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	points, _, err := s.computeSeries(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	visible, _ := visibleWindow(points, r.URL.Query().Get("range"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="performance.csv"`)
	if err := chart.WriteCSV(w, visible); err != nil {
		s.log.Error("csv export failed", zap.Error(err))
	}
}

func intParam(raw string, def int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type ctxKey string

const requestIDKey ctxKey = "requestID"

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps the websocket upgrade working through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		id, _ := r.Context().Value(requestIDKey).(string)
		s.log.Info("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

// withCORS opens the API to the dashboard origin and keeps responses out of
// intermediary caches; quotes and series go stale within seconds.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Cache-Control", "no-store")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
