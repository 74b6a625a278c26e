package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/okutan/trackfolio"
)

type reportCmd struct {
	plain bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display the performance overview" }
func (*reportCmd) Usage() string {
	return `report [-plain]

  Prints the performance report: open/closed counts, win rate, invested and
  realized amounts, preset range returns and max drawdown.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "print raw markdown without terminal styling")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	points, doc, err := computeSeries(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing series: %v\n", err)
		return subcommands.ExitFailure
	}

	md := trackfolio.NewReport(doc.Positions, points, doc.Currency).Markdown()
	if c.plain {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}

	out, err := glamour.Render(md, "dark")
	if err != nil {
		// Styling is cosmetic; fall back to the raw markdown.
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}
