package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/okutan/trackfolio/chart"
)

type exportCmd struct {
	rng string
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the performance series as CSV" }
func (*exportCmd) Usage() string {
	return `export [-range 1W|1M|3M|6M|YTD|1Y|ALL] [-o <file>]

  Writes the series points of the selected range as CSV (stdout by default).
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rng, "range", "ALL", "time range preset")
	f.StringVar(&c.out, "o", "", "output file, stdout when empty")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	points, _, err := computeSeries(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing series: %v\n", err)
		return subcommands.ExitFailure
	}

	ctrl := chart.NewController(800)
	ctrl.SetData(points)
	ctrl.SetRange(chart.ParseRange(c.rng))

	var w io.Writer = os.Stdout
	if c.out != "" {
		f, err := os.Create(c.out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.out, err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		w = f
	}
	if err := chart.WriteCSV(w, ctrl.Visible()); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing csv: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
