package trackfolio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is the persisted shape of a portfolio data file: the position
// list plus a few optional presentation hints.
type Document struct {
	Positions []Position `json:"positions"`
	Currency  string     `json:"currency,omitempty"`
	Title     string     `json:"title,omitempty"`
}

// DefaultCurrency is the account currency assumed when the data file does
// not name one. The tracked exchange is Borsa Istanbul, so the account runs
// in Turkish lira.
const DefaultCurrency = "TRY"

// DecodePositions reads a portfolio document from r. Unknown fields are
// ignored; a position with invalid fields still loads, it is excluded from
// aggregates later by the resolver.
func DecodePositions(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot decode portfolio document: %w", err)
	}
	if doc.Currency == "" {
		doc.Currency = DefaultCurrency
	}
	return &doc, nil
}

// LoadPositions reads a portfolio document from a file.
func LoadPositions(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open portfolio file: %w", err)
	}
	defer f.Close()
	doc, err := DecodePositions(f)
	if err != nil {
		return nil, fmt.Errorf("in %q: %w", path, err)
	}
	return doc, nil
}
