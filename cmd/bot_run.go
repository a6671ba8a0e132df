package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cryptoedge/bot/internal/app"
	"github.com/cryptoedge/bot/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var botRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scan loop continuously",
	Long: `Starts the bot's scan loop, which on every tick:
1. Discovers active markets and refreshes their prices.
2. Settles any position whose market has expired and resolved.
3. Runs every configured detector (spread, cross-venue, edge, mispricing).
4. Opens at most one new position for the highest-ranked opportunity.

Runs until interrupted (SIGINT/SIGTERM).`,
	RunE: runBotRun,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(botRunCmd)
	botRunCmd.Flags().Bool("fresh", false, "force a market-discovery cache refresh before the first tick")
}

func runBotRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	fresh, _ := cmd.Flags().GetBool("fresh")

	application, err := app.New(cfg, logger, &app.Options{Fresh: fresh})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}
