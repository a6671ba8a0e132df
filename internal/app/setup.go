package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/edge"
	"github.com/cryptoedge/bot/internal/execution"
	"github.com/cryptoedge/bot/internal/matcher"
	"github.com/cryptoedge/bot/internal/mispricing"
	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/momentum"
	"github.com/cryptoedge/bot/internal/monitor"
	"github.com/cryptoedge/bot/internal/repository"
	"github.com/cryptoedge/bot/internal/scanloop"
	"github.com/cryptoedge/bot/internal/spread"
	"github.com/cryptoedge/bot/pkg/cache"
	"github.com/cryptoedge/bot/pkg/config"
	"github.com/cryptoedge/bot/pkg/healthprobe"
	"github.com/cryptoedge/bot/pkg/httpserver"
	"github.com/cryptoedge/bot/pkg/wallet"
	"github.com/cryptoedge/bot/pkg/wsfeed"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	repo, err := setupRepository(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup repository: %w", err)
	}

	signer := setupSigner(cfg, logger)

	mon := monitor.New(monitor.Config{
		Repository:      repo,
		Cache:           marketCache,
		Assets:          cfg.Assets,
		MaxTimeToExpiry: cfg.MaxTimeToExpiry,
		MaxSnapshotAge:  cfg.MaxOrderbookAge,
		Logger:          logger,
	})

	mtch := matcher.New(cfg.MatcherMinConfidence, logger)
	spreadDet := setupSpreadDetector(cfg, logger)
	edgeDet := setupEdgeDetector(cfg)
	mispriceDet := setupMispricingDetector(cfg)
	momentumCalc := momentum.NewCalculator(0.6, 5)

	session := model.NewBotSession(cfg.StartingBalance)
	executor := execution.New(execution.Config{
		Repository:       repo,
		Session:          session,
		MaxPositionSize:  cfg.MaxPositionSize,
		MaxTotalExposure: cfg.MaxTotalExposure,
		MinTradeSize:     decimal.NewFromInt(10),
		FeeRate:          cfg.FeeRate,
		DryRun:           cfg.DryRun,
		Logger:           logger,
	})

	hub := wsfeed.NewHub(logger)

	loop := scanloop.New(scanloop.Config{
		Repository:           repo,
		Monitor:              mon,
		SpreadDetector:       spreadDet,
		EdgeDetector:         edgeDet,
		MispricingDetector:   mispriceDet,
		MomentumCalculator:   momentumCalc,
		Matcher:              mtch,
		Executor:             executor,
		MomentumLookback:     cfg.MispricingMomentumLookback,
		PollInterval:         cfg.PollInterval,
		ErrorBackoff:         cfg.ErrorBackoff,
		CrossVenueMinProfit:  cfg.MinCrossPlatformArbProfit,
		CrossVenueFeeRate:    cfg.DefaultFeeRate,
		CrossVenueInvestment: cfg.CrossVenueInvestment,
		Sink:                 hub,
		Logger:               logger,
	})

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Opportunities: loop,
		Session:       executor,
		Hub:           hub,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		cache:         marketCache,
		repo:          repo,
		executor:      executor,
		loop:          loop,
		hub:           hub,
		signer:        signer,
		fresh:         opts.Fresh,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupRepository(cfg *config.Config, logger *zap.Logger) (repository.Repository, error) {
	if cfg.StorageMode == "postgres" {
		return repository.NewPostgresRepository(&repository.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return repository.NewConsoleRepository(logger), nil
}

// setupSigner derives a trading address for order signing when a private
// key is configured. It never dials a node; a missing key simply means
// signed orders are unavailable in this run, which is fine since order
// submission transport is out of scope regardless.
func setupSigner(cfg *config.Config, logger *zap.Logger) *wallet.Signer {
	if cfg.WalletPrivateKey == "" {
		return nil
	}
	signer, err := wallet.NewSigner(cfg.WalletPrivateKey)
	if err != nil {
		logger.Warn("wallet-signer-disabled-invalid-key", zap.Error(err))
		return nil
	}
	logger.Info("wallet-signer-ready", zap.String("address", signer.Address().Hex()))
	return signer
}

func setupSpreadDetector(cfg *config.Config, logger *zap.Logger) *spread.Detector {
	return spread.New(spread.Config{
		MinProfit:          cfg.MinInternalArbProfit,
		DefaultFeeRate:     cfg.DefaultFeeRate,
		FeeRates:           cfg.FeeRates,
		MaxSnapshotAge:     cfg.MaxOrderbookAge,
		InvestmentPerTrade: cfg.MaxPositionSize,
		Logger:             logger,
	})
}

func setupEdgeDetector(cfg *config.Config) *edge.Detector {
	return edge.New(edge.Config{
		MinEdge:        cfg.MinEdge,
		MinConfidence:  cfg.MinConfidence,
		FeeRate:        cfg.FeeRate,
		KellyFraction:  cfg.KellyFraction,
		MaxPositionPct: cfg.MaxPositionPct,
	})
}

func setupMispricingDetector(cfg *config.Config) *mispricing.Detector {
	return mispricing.New(mispricing.Config{
		MomentumLookback:       cfg.MispricingMomentumLookback,
		MinBTCChange:           cfg.MispricingMinBTCChange,
		MaxMarketPrice:         cfg.MispricingMaxMarketPrice,
		MinEdge:                cfg.MispricingMinEdge,
		ScaleSizeWithEdge:      cfg.MispricingScaleSizeWithEdge,
		BaseSize:               cfg.MispricingBaseSize,
		AllowCheapSideFallback: cfg.MispricingAllowCheapSideFallback,
	})
}
