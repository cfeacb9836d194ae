package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/optsignals/internal/greeks"
)

// greeksCmd represents the greeks command
var greeksCmd = &cobra.Command{
	Use:   "greeks <spot> <strike> <iv>",
	Short: "Compute Black-Scholes Greeks",
	Long: `Prints delta, gamma, theta (per trading day) and vega (per 1% IV)
for a call, using r=5% and the default 0.038y time to expiry.

Example:
  go run ./cmd/signals greeks 20000 20000 0.25
  go run ./cmd/signals greeks 20000 20100 0.18 --t 0.02`,
	Args: cobra.ExactArgs(3),
	RunE: runGreeks,
}

var greeksT float64

func init() {
	rootCmd.AddCommand(greeksCmd)

	greeksCmd.Flags().Float64Var(&greeksT, "t", greeks.DefaultTimeToExpiry, "time to expiry in years")
}

func runGreeks(cmd *cobra.Command, args []string) error {
	names := []string{"spot", "strike", "iv"}
	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", names[i], arg, err)
		}
		values[i] = v
	}

	g := greeks.Compute(values[0], values[1], values[2], greeksT)

	PrintDoubleSeparator()
	fmt.Printf("  Greeks  spot=%g strike=%g iv=%g t=%g\n", values[0], values[1], values[2], greeksT)
	PrintSeparator()
	PrintKeyValue("Delta", fmt.Sprintf("%.4f", g.Delta), 6)
	PrintKeyValue("Gamma", fmt.Sprintf("%.6f", g.Gamma), 6)
	PrintKeyValue("Theta", fmt.Sprintf("%.4f", g.Theta), 6)
	PrintKeyValue("Vega", fmt.Sprintf("%.4f", g.Vega), 6)

	if g.IsZero() {
		PrintWarning("Degenerate inputs: all Greeks are zero")
	}
	return nil
}
