package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quiz-progress-service/internal/economy"
)

// NewPriceCmd prints the reset price for the given durations, or the whole tier table.
func NewPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price [seconds...]",
		Short: "Show the coin cost of resetting a timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			table := economy.DefaultTable
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if len(args) == 0 {
				fmt.Fprintln(w, "RANGE\tCOINS\tLABEL")
				for _, tier := range table {
					upper := strconv.Itoa(tier.UpperBoundSeconds)
					if tier.UpperBoundSeconds == economy.Unbounded {
						upper = ""
					}
					fmt.Fprintf(w, "%d-%s\t%d\t%s\n", tier.LowerBoundSeconds, upper, tier.CoinCost, tier.Label)
				}
				return nil
			}

			fmt.Fprintln(w, "SECONDS\tCOINS\tLABEL")
			for _, arg := range args {
				seconds, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid seconds %q: %w", arg, err)
				}
				q := table.Quote(seconds)
				fmt.Fprintf(w, "%d\t%d\t%s\n", q.Seconds, q.CoinCost, q.Label)
			}
			return nil
		},
	}
}
