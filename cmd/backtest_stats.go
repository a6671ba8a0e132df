package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cryptoedge/bot/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var backtestStatsCmd = &cobra.Command{
	Use:   "stats <run-id>",
	Short: "Print the metrics of one persisted backtest run",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktestStats,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	backtestCmd.AddCommand(backtestStatsCmd)
}

func runBacktestStats(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parse run id: %w", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	repo, err := newRepositoryFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer func() { _ = repo.Close() }()

	run, err := repo.LoadBacktestRun(context.Background(), id)
	if err != nil {
		return fmt.Errorf("load backtest run: %w", err)
	}

	printMetrics(id, run)
	return nil
}
