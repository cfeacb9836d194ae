package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	symbolsFile string
	logLevel    string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signals",
	Short: "Index option STRONG BUY signal engine",
	Long: `Market Signals CLI

Scores the near-ATM weekly options of NIFTY, BANKNIFTY and SENSEX with
Black-Scholes Greeks and reports STRONG BUY candidates.
Live quotes come from Zerodha Kite Connect; simulated chains are used
whenever the broker session is unavailable.

Usage:
  go run ./cmd/signals [command]

Examples:
  go run ./cmd/signals api
  go run ./cmd/signals scan --symbols NIFTY,BANKNIFTY
  go run ./cmd/signals greeks 20000 20000 0.25
  go run ./cmd/signals login
  go run ./cmd/signals worker start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&symbolsFile, "symbols-file", "", "symbol profile YAML (default: built-in NIFTY/BANKNIFTY/SENSEX)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
