// Package trackfolio computes the performance of a list of buy/sell stock
// positions as a single chain-linked, cash-flow-adjusted daily return series
// (a time-weighted return curve).
//
// The package is organized leaf first: positions are resolved into implied
// quantities and exit prices (position.go), turned into a sparse per-day
// event calendar merged with the price history days (calendar.go), and walked
// day by day by the valuation engine (series.go) which forward-fills prices,
// maintains a cash ledger, classifies net cash injections as external flows,
// and chain-links daily returns into a cumulative index. Range returns and
// maximum drawdown are derived from the chained index (analyzer.go).
//
// The engine is a pure function: it holds no state between calls and is
// recomputed from scratch whenever its inputs change. Market data enters
// through the yahoo (daily close history) and tradingview (live quotes)
// packages, and the chart package turns the series into a drawable model.
package trackfolio
