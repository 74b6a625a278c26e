// Package cmd implements the CLI application to track position performance.
package cmd

import (
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/okutan/trackfolio"
)

// Commands lists every subcommand for registration by the main package.
var Commands = []subcommands.Command{
	&serveCmd{},
	&twrCmd{},
	&reportCmd{},
	&chartCmd{},
	&exportCmd{},
}

// As a CLI application it is short lived, so shared flags live in globals.

var dataFile = flag.String("data", "positions.json", "path to the positions JSON file")

// loadDocument reads the positions file named by the shared -data flag.
func loadDocument() (*trackfolio.Document, error) {
	doc, err := trackfolio.LoadPositions(*dataFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load positions: %w", err)
	}
	return doc, nil
}
