package cmd

import (
	"context"
	"fmt"

	"github.com/okutan/trackfolio"
	"github.com/okutan/trackfolio/yahoo"
)

// computeSeries loads the positions, fetches their full price history and
// runs the engine. The CLI runs from history alone; live quotes only matter
// to the long-running server.
func computeSeries(ctx context.Context) ([]trackfolio.Point, *trackfolio.Document, error) {
	doc, err := loadDocument()
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

	h, err := yahoo.NewClient(nil).History(ctx, tickers, start.Add(-7), today)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot fetch history: %w", err)
	}
	return trackfolio.ComputeSeries(doc.Positions, h.Book(), nil, today), doc, nil
}
