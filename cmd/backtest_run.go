package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goccyjson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cryptoedge/bot/internal/backtest"
	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var backtestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest and persist the result",
	Long: `Replays resolutions already loaded into the repository (see
"backtest fetch-data") against the chosen strategy and prints/persists the
resulting metrics.`,
	RunE: runBacktestRun,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	backtestCmd.AddCommand(backtestRunCmd)
	backtestRunCmd.Flags().String("strategy", "expiry", "expiry, contrarian, probability_gap, mispricing, or momentum_contrarian")
	backtestRunCmd.Flags().Int("days", 30, "how many days back to replay")
	backtestRunCmd.Flags().String("threshold", "0.85", "skew threshold used by expiry/contrarian strategies")
	backtestRunCmd.Flags().Duration("expiry-window", time.Hour, "how far back from resolution to load price history")
	backtestRunCmd.Flags().String("position-size", "25", "dollar size of every simulated position")
	backtestRunCmd.Flags().String("export-csv", "", "optional path to write per-trade CSV output")
}

func runBacktestRun(cmd *cobra.Command, args []string) error {
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
	thresholdStr, _ := cmd.Flags().GetString("threshold")
	expiryWindow, _ := cmd.Flags().GetDuration("expiry-window")
	positionSizeStr, _ := cmd.Flags().GetString("position-size")
	exportCSV, _ := cmd.Flags().GetString("export-csv")

	threshold, err := decimal.NewFromString(thresholdStr)
	if err != nil {
		return fmt.Errorf("parse --threshold: %w", err)
	}
	positionSize, err := decimal.NewFromString(positionSizeStr)
	if err != nil {
		return fmt.Errorf("parse --position-size: %w", err)
	}

	strategy, err := buildStrategy(strategyName, threshold, cfg)
	if err != nil {
		return err
	}

	repo, err := newRepositoryFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer func() { _ = repo.Close() }()

	sim := backtest.New(backtest.Config{
		Repository:             repo,
		Strategy:               strategy,
		ExpiryWindow:           expiryWindow,
		PositionSize:           positionSize,
		AllowSyntheticSnapshot: cfg.BacktestAllowSyntheticSnapshot,
		Logger:                 logger,
	})

	ctx := context.Background()
	end := time.Now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	run, err := sim.Run(ctx, cfg.Assets, model.TimeframeHourly, start, end)
	if err != nil {
		return fmt.Errorf("run backtest: %w", err)
	}

	id, err := repo.SaveBacktestRun(ctx, run)
	if err != nil {
		return fmt.Errorf("save backtest run: %w", err)
	}

	printMetrics(id, run)

	if exportCSV != "" {
		if err := exportTradesCSV(exportCSV, run); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}
	return nil
}

func buildStrategy(name string, threshold decimal.Decimal, cfg *config.Config) (backtest.Strategy, error) {
	switch name {
	case "expiry":
		return backtest.ExpiryScalper{Threshold: threshold}, nil
	case "contrarian":
		return backtest.ContrarianScalper{Threshold: threshold, LimitPrice: decimal.NewFromFloat(0.5)}, nil
	case "probability_gap":
		return backtest.ProbabilityGap{MinEdge: cfg.MinEdge}, nil
	case "momentum_contrarian":
		return backtest.MomentumContrarian{ReversalThreshold: decimal.NewFromFloat(0.1)}, nil
	case "mispricing":
		return backtest.BinanceMispricing{
			AllowCheapSideFallback: cfg.MispricingAllowCheapSideFallback,
			MaxMarketPrice:         cfg.MispricingMaxMarketPrice,
		}, nil
	default:
		return nil, model.NewError(model.ErrConfig, "backtest.build_strategy", fmt.Errorf("unknown --strategy %q", name))
	}
}

func printMetrics(id int64, run model.BacktestRun) {
	m := run.Metrics
	fmt.Printf("backtest run #%d (%s)\n", id, run.StrategyName)
	fmt.Printf("  signals=%d orders_placed=%d orders_filled=%d\n", m.TotalSignals, m.OrdersPlaced, m.OrdersFilled)
	fmt.Printf("  win_rate=%s fill_rate=%s\n", m.WinRate.StringFixed(4), m.FillRate.StringFixed(4))
	fmt.Printf("  total_invested=%s total_payout=%s net_pnl=%s\n", m.TotalInvested.StringFixed(2), m.TotalPayout.StringFixed(2), m.NetPnL.StringFixed(2))
	fmt.Printf("  roi=%s profit_factor=%s max_drawdown=%s\n", m.ROI.StringFixed(4), m.ProfitFactor.StringFixed(4), m.MaxDrawdown.StringFixed(4))
}

func exportTradesCSV(path string, run model.BacktestRun) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"condition_id", "side", "order_type", "fill_price", "shares", "cost", "payout", "pnl", "won"}); err != nil {
		return err
	}
	for _, t := range run.Trades {
		row := []string{
			t.ConditionID,
			string(t.Side),
			string(t.OrderType),
			t.FillPrice.String(),
			t.Shares.String(),
			t.Cost.String(),
			t.Payout.String(),
			t.PnL.String(),
			strconv.FormatBool(t.Won),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()

	return writeMetricsCompanion(path, run.Metrics)
}

// writeMetricsCompanion writes run.Metrics alongside the CSV export as
// "<path>.metrics.json" — the CSV holds per-trade rows, the JSON companion
// holds the run-level aggregate a spreadsheet import would otherwise drop.
func writeMetricsCompanion(csvPath string, metrics model.BacktestMetrics) error {
	companionPath := strings.TrimSuffix(csvPath, ".csv") + ".metrics.json"
	data, err := goccyjson.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(companionPath, data, 0o644)
}
