package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/okutan/trackfolio"
)

type twrCmd struct {
	from string
}

func (*twrCmd) Name() string     { return "twr" }
func (*twrCmd) Synopsis() string { return "display the daily time-weighted return series" }
func (*twrCmd) Usage() string {
	return `twr [-from <YYYY-MM-DD>]

  Computes the chain-linked daily return series from the positions file and
  prints one row per day.
`
}

func (c *twrCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "only print days on or after this date")
}

func (c *twrCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	points, _, err := computeSeries(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing series: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.from != "" {
		day, err := trackfolio.ParseDay(c.from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -from date: %v\n", err)
			return subcommands.ExitUsageError
		}
		if p, ok := trackfolio.FirstOnOrAfter(points, day); ok {
			for i := range points {
				if points[i].Day == p.Day {
					points = points[i:]
					break
				}
			}
		} else {
			points = nil
		}
	}

	fmt.Printf("Date\t\tTWR\tDay\tValue\n")
	for _, p := range points {
		fmt.Printf("%s\t%s\t%s\t%.2f\n", p.Day,
			trackfolio.Percent(p.Pct).SignedString(),
			trackfolio.Percent(p.DayReturnPct).SignedString(),
			p.Value)
	}
	return subcommands.ExitSuccess
}
