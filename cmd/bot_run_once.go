package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cryptoedge/bot/internal/app"
	"github.com/cryptoedge/bot/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var botRunOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Run exactly one scan loop tick and exit",
	RunE:  runBotRunOnce,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(botRunOnceCmd)
	botRunOnceCmd.Flags().Bool("fresh", false, "force a market-discovery cache refresh for this tick")
}

func runBotRunOnce(cmd *cobra.Command, args []string) error {
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

	application, err := app.New(cfg, logger, &app.Options{})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.RunOnce(fresh); err != nil {
		return fmt.Errorf("run tick: %w", err)
	}
	return nil
}
