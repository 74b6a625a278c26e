package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/okutan/trackfolio/tradingview"
)

// PollState is the scheduler state of the quote poller.
type PollState string

const (
	// PollHealthy follows a successful attempt; the short interval applies.
	PollHealthy PollState = "healthy"
	// PollDegraded follows a failed attempt; the long interval applies
	// until a poll succeeds again.
	PollDegraded PollState = "degraded"
)

// nextState is the single transition rule: success goes healthy, failure
// goes degraded.
func nextState(err error) PollState {
	if err != nil {
		return PollDegraded
	}
	return PollHealthy
}

// QuoteFunc fetches one quote snapshot.
type QuoteFunc func(ctx context.Context, tickers []string) (*tradingview.Snapshot, error)

// Poller runs the live-quote loop: one attempt at a time, the next one
// scheduled only after the previous fully completes, with the interval
// picked by the current state. A manual Refresh cancels the in-flight
// attempt so the newest request always wins.
type Poller struct {
	fetch    QuoteFunc
	tickers  func() []string
	timeout  time.Duration
	interval map[PollState]time.Duration
	onSnap   func(*tradingview.Snapshot)
	log      *zap.Logger

	refresh chan struct{}

	mu     sync.Mutex
	state  PollState
	last   *tradingview.Snapshot
	cancel context.CancelFunc
}

// NewPoller wires a poller. onSnap is invoked after every successful attempt
// (may be nil).
func NewPoller(fetch QuoteFunc, tickers func() []string, cfg Config, onSnap func(*tradingview.Snapshot), log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		fetch:   fetch,
		tickers: tickers,
		timeout: cfg.ProviderTimeout,
		interval: map[PollState]time.Duration{
			PollHealthy:  cfg.Poll.Healthy,
			PollDegraded: cfg.Poll.Degraded,
		},
		onSnap:  onSnap,
		log:     log,
		refresh: make(chan struct{}, 1),
		state:   PollHealthy,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		p.attempt(ctx)

		timer := time.NewTimer(p.interval[p.State()])
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-p.refresh:
			timer.Stop()
		}
	}
}

func (p *Poller) attempt(ctx context.Context) {
	tickers := p.tickers()
	if len(tickers) == 0 {
		return
	}

	actx, cancel := context.WithTimeout(ctx, p.timeout)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	snap, err := p.fetch(actx, tickers)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel = nil
	prev := p.state
	p.state = nextState(err)
	if err != nil {
		p.log.Warn("quote poll failed", zap.Error(err), zap.String("state", string(p.state)))
		return
	}
	if prev == PollDegraded {
		p.log.Info("quote poll recovered")
	}
	p.last = snap
	if p.onSnap != nil {
		p.onSnap(snap)
	}
}

// Refresh triggers an immediate poll, cancelling any attempt in flight: the
// stale response can then never overwrite the fresh one.
func (p *Poller) Refresh() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// State returns the current scheduler state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns the most recent successful snapshot, or nil.
func (p *Poller) Snapshot() *tradingview.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
