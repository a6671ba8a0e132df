package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var backtestCompareCmd = &cobra.Command{
	Use:   "compare <run-id> <run-id> [run-id...]",
	Short: "Diff the metrics of two or more persisted backtest runs",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBacktestCompare,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	backtestCmd.AddCommand(backtestCompareCmd)
}

func runBacktestCompare(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	runs := make([]model.BacktestRun, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("parse run id %q: %w", arg, err)
		}
		run, err := repo.LoadBacktestRun(ctx, id)
		if err != nil {
			return fmt.Errorf("load backtest run %d: %w", id, err)
		}
		runs = append(runs, run)
	}

	fmt.Printf("%-6s %-20s %10s %10s %10s %12s\n", "id", "strategy", "win_rate", "roi", "profit_f", "net_pnl")
	for _, run := range runs {
		m := run.Metrics
		fmt.Printf("%-6d %-20s %10s %10s %10s %12s\n",
			run.ID, run.StrategyName, m.WinRate.StringFixed(4), m.ROI.StringFixed(4), m.ProfitFactor.StringFixed(4), m.NetPnL.StringFixed(2))
	}
	return nil
}
