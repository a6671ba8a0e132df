package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cryptoedge/bot/internal/backtest"
	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var backtestOptimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search a strategy's threshold parameter and rank the results by ROI",
	Long: `Runs "backtest run" repeatedly over a grid of threshold values for the
chosen strategy (expiry or contrarian; both are parameterised by a single
skew threshold) and prints every run's metrics ranked by ROI descending. It
does not persist any of the grid's runs.`,
	RunE: runBacktestOptimize,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	backtestCmd.AddCommand(backtestOptimizeCmd)
	backtestOptimizeCmd.Flags().String("strategy", "expiry", "expiry or contrarian")
	backtestOptimizeCmd.Flags().Int("days", 30, "how many days back to replay")
	backtestOptimizeCmd.Flags().Duration("expiry-window", time.Hour, "how far back from resolution to load price history")
	backtestOptimizeCmd.Flags().String("position-size", "25", "dollar size of every simulated position")
	backtestOptimizeCmd.Flags().String("threshold-min", "0.70", "lower bound of the threshold grid")
	backtestOptimizeCmd.Flags().String("threshold-max", "0.95", "upper bound of the threshold grid")
	backtestOptimizeCmd.Flags().String("threshold-step", "0.05", "step size of the threshold grid")
}

type optimizeResult struct {
	threshold decimal.Decimal
	run       model.BacktestRun
}

func runBacktestOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	strategyName, _ := cmd.Flags().GetString("strategy")
	days, _ := cmd.Flags().GetInt("days")
	expiryWindow, _ := cmd.Flags().GetDuration("expiry-window")
	positionSizeStr, _ := cmd.Flags().GetString("position-size")
	minStr, _ := cmd.Flags().GetString("threshold-min")
	maxStr, _ := cmd.Flags().GetString("threshold-max")
	stepStr, _ := cmd.Flags().GetString("threshold-step")

	if strategyName != "expiry" && strategyName != "contrarian" {
		return model.NewError(model.ErrConfig, "backtest.optimize", fmt.Errorf("--strategy must be expiry or contrarian, got %q", strategyName))
	}

	positionSize, err := decimal.NewFromString(positionSizeStr)
	if err != nil {
		return fmt.Errorf("parse --position-size: %w", err)
	}
	min, err := decimal.NewFromString(minStr)
	if err != nil {
		return fmt.Errorf("parse --threshold-min: %w", err)
	}
	max, err := decimal.NewFromString(maxStr)
	if err != nil {
		return fmt.Errorf("parse --threshold-max: %w", err)
	}
	step, err := decimal.NewFromString(stepStr)
	if err != nil {
		return fmt.Errorf("parse --threshold-step: %w", err)
	}
	if step.LessThanOrEqual(decimal.Zero) {
		return model.NewError(model.ErrConfig, "backtest.optimize", fmt.Errorf("--threshold-step must be positive"))
	}

	repo, err := newRepositoryFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer func() { _ = repo.Close() }()

	ctx := context.Background()
	end := time.Now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	var results []optimizeResult
	for threshold := min; threshold.LessThanOrEqual(max); threshold = threshold.Add(step) {
		strategy, buildErr := buildStrategy(strategyName, threshold, cfg)
		if buildErr != nil {
			return buildErr
		}
		sim := backtest.New(backtest.Config{
			Repository:             repo,
			Strategy:               strategy,
			ExpiryWindow:           expiryWindow,
			PositionSize:           positionSize,
			AllowSyntheticSnapshot: cfg.BacktestAllowSyntheticSnapshot,
			Logger:                 logger,
		})
		run, runErr := sim.Run(ctx, cfg.Assets, model.TimeframeHourly, start, end)
		if runErr != nil {
			return fmt.Errorf("run backtest at threshold %s: %w", threshold.String(), runErr)
		}
		results = append(results, optimizeResult{threshold: threshold, run: run})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].run.Metrics.ROI.GreaterThan(results[j].run.Metrics.ROI)
	})

	fmt.Printf("%-10s %10s %10s %10s %12s\n", "threshold", "win_rate", "roi", "profit_f", "net_pnl")
	for _, r := range results {
		m := r.run.Metrics
		fmt.Printf("%-10s %10s %10s %10s %12s\n",
			r.threshold.StringFixed(2), m.WinRate.StringFixed(4), m.ROI.StringFixed(4), m.ProfitFactor.StringFixed(4), m.NetPnL.StringFixed(2))
	}
	return nil
}
