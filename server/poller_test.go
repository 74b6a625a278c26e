package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okutan/trackfolio/tradingview"
)

func pollConfig() Config {
	return Config{
		ProviderTimeout: time.Second,
		Poll:            PollConfig{Healthy: 10 * time.Second, Degraded: 30 * time.Second},
	}
}

func TestNextState(t *testing.T) {
	assert.Equal(t, PollHealthy, nextState(nil))
	assert.Equal(t, PollDegraded, nextState(errors.New("boom")))
}

func TestPoller_Transitions(t *testing.T) {
	var fail bool
	fetch := func(ctx context.Context, tickers []string) (*tradingview.Snapshot, error) {
		if fail {
			return nil, errors.New("provider down")
		}
		return &tradingview.Snapshot{Source: "test", AsOf: time.Now()}, nil
	}
	var published int
	p := NewPoller(fetch, func() []string { return []string{"ALARK"} }, pollConfig(),
		func(*tradingview.Snapshot) { published++ }, nil)

	p.attempt(context.Background())
	assert.Equal(t, PollHealthy, p.State())
	require.NotNil(t, p.Snapshot())
	assert.Equal(t, 1, published)

	fail = true
	p.attempt(context.Background())
	assert.Equal(t, PollDegraded, p.State())
	assert.NotNil(t, p.Snapshot(), "a failed poll keeps the last good snapshot")
	assert.Equal(t, 1, published, "a failed poll publishes nothing")

	fail = false
	p.attempt(context.Background())
	assert.Equal(t, PollHealthy, p.State())
	assert.Equal(t, 2, published)
}

func TestPoller_NoTickersIsIdle(t *testing.T) {
	fetch := func(ctx context.Context, tickers []string) (*tradingview.Snapshot, error) {
		t.Fatal("fetch must not run without tickers")
		return nil, nil
	}
	p := NewPoller(fetch, func() []string { return nil }, pollConfig(), nil, nil)
	p.attempt(context.Background())
	assert.Equal(t, PollHealthy, p.State())
	assert.Nil(t, p.Snapshot())
}

func TestPoller_RefreshCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	fetch := func(ctx context.Context, tickers []string) (*tradingview.Snapshot, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	p := NewPoller(fetch, func() []string { return []string{"ALARK"} }, pollConfig(), nil, nil)

	done := make(chan struct{})
	go func() {
		p.attempt(context.Background())
		close(done)
	}()

	<-started
	p.Refresh()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not cancel the in-flight attempt")
	}
	assert.Equal(t, PollDegraded, p.State(), "the cancelled attempt counts as a failure")
	assert.Nil(t, p.Snapshot(), "the stale attempt must not publish a snapshot")
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	fetch := func(ctx context.Context, tickers []string) (*tradingview.Snapshot, error) {
		return &tradingview.Snapshot{}, nil
	}
	p := NewPoller(fetch, func() []string { return []string{"ALARK"} }, pollConfig(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
