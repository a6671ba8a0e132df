// Package cmd implements the bot's command-line surface.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "Binary crypto Up/Down prediction market bot",
	Long: `A dry-run trading bot for binary crypto Up/Down prediction markets.

Discovers active markets, scans them for single-market spread arbitrage,
cross-venue arbitrage, momentum-driven directional edge, and short-horizon
spot-price mispricing, and opens paper positions in a budgeted session. Also
ships a standalone backtest simulator that replays resolved markets against
a chosen strategy.`,
}

// Execute adds all child commands to the root command and runs it. This is
// called by main.main().
func Execute() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
