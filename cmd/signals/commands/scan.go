package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/optsignals/internal/contracts"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze symbols once and print signals",
	Long: `Runs one analysis pass and prints every STRONG BUY signal found.

Thresholds default to the symbol profile; flags override them.
The default gates are calibrated for single-stock options and rarely pass
at index level; try --vega-min 10 --gamma-min 0.0003 for index chains.

Example:
  go run ./cmd/signals scan
  go run ./cmd/signals scan --symbols NIFTY --count 3 --json
  go run ./cmd/signals scan --vega-min 10 --gamma-min 0.0003`,
	RunE: runScan,
}

var (
	scanSymbols string
	scanCount   int
	scanJSON    bool
	scanTimeout time.Duration

	scanVegaMin       float64
	scanGammaMin      float64
	scanThetaMax      float64
	scanDeltaMin      float64
	scanOIMin         int64
	scanIVMin         float64
	scanConfidenceMin float64
)

func init() {
	rootCmd.AddCommand(scanCmd)

	// Flags
	scanCmd.Flags().StringVar(&scanSymbols, "symbols", "", "comma separated symbols (default: all configured)")
	scanCmd.Flags().IntVar(&scanCount, "count", 1, "analyses per symbol (1-10)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print JSON instead of a table")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 30*time.Second, "overall timeout")

	scanCmd.Flags().Float64Var(&scanVegaMin, "vega-min", 0, "minimum |vega|")
	scanCmd.Flags().Float64Var(&scanGammaMin, "gamma-min", 0, "minimum gamma")
	scanCmd.Flags().Float64Var(&scanThetaMax, "theta-max", 0, "maximum theta (per day)")
	scanCmd.Flags().Float64Var(&scanDeltaMin, "delta-min", 0, "minimum |delta|")
	scanCmd.Flags().Int64Var(&scanOIMin, "oi-min", 0, "minimum open interest")
	scanCmd.Flags().Float64Var(&scanIVMin, "iv-min", 0, "minimum implied volatility")
	scanCmd.Flags().Float64Var(&scanConfidenceMin, "confidence-min", 0, "minimum confidence [0,1]")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanCount < 1 || scanCount > 10 {
		return fmt.Errorf("--count must be between 1 and 10")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	th := scanThresholds(cmd, a.analyzer.DefaultThresholds())
	if err := th.Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}

	names := a.registry.Names()
	if scanSymbols != "" {
		names = nil
		for _, part := range strings.Split(scanSymbols, ",") {
			if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
				names = append(names, part)
			}
		}
	}
	for _, name := range names {
		if !a.registry.Has(name) {
			return fmt.Errorf("unknown symbol %q (configured: %s)", name, strings.Join(a.registry.Names(), ", "))
		}
	}

	signals, err := a.analyzer.AnalyzeMany(ctx, names, th, scanCount)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if scanJSON {
		if signals == nil {
			signals = []*contracts.Signal{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(signals)
	}

	PrintDoubleSeparator()
	fmt.Printf("  Signal scan: %s\n", strings.Join(names, ", "))
	PrintSeparator()
	PrintKeyValue("Data source", string(a.analyzer.DataSource()), 12)
	PrintKeyValue("Thresholds", fmt.Sprintf("vega>=%g gamma>=%g theta<=%g delta>=%g oi>=%d iv>=%g conf>=%g",
		th.VegaMin, th.GammaMin, th.ThetaMax, th.DeltaMin, th.OIMin, th.IVMin, th.ConfidenceMin), 12)
	PrintSeparator()

	if len(signals) == 0 {
		PrintWarning("No STRONG BUY signal, criteria not met")
		return nil
	}

	PrintSignals(signals)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d signal(s)", len(signals)))
	return nil
}

// scanThresholds overlays the flags the user actually set
func scanThresholds(cmd *cobra.Command, th contracts.Thresholds) contracts.Thresholds {
	flags := cmd.Flags()
	if flags.Changed("vega-min") {
		th.VegaMin = scanVegaMin
	}
	if flags.Changed("gamma-min") {
		th.GammaMin = scanGammaMin
	}
	if flags.Changed("theta-max") {
		th.ThetaMax = scanThetaMax
	}
	if flags.Changed("delta-min") {
		th.DeltaMin = scanDeltaMin
	}
	if flags.Changed("oi-min") {
		th.OIMin = scanOIMin
	}
	if flags.Changed("iv-min") {
		th.IVMin = scanIVMin
	}
	if flags.Changed("confidence-min") {
		th.ConfidenceMin = scanConfidenceMin
	}
	return th
}
