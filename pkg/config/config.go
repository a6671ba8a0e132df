package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptoedge/bot/internal/model"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel    string
	LogEncoding string
	LogFile     string
	HTTPPort    string
	DatabaseURL string
	StorageMode string // "postgres" or "console"

	// Scan loop
	ScanInterval          time.Duration
	PollInterval          time.Duration
	MaxConcurrentRequests int
	ErrorBackoff          time.Duration

	// Detection thresholds
	MinInternalArbProfit      decimal.Decimal
	MinCrossPlatformArbProfit decimal.Decimal
	MinHedgingArbProfit       decimal.Decimal
	MaxPriceAge               time.Duration
	MaxOrderbookAge           time.Duration
	DefaultFeeRate            decimal.Decimal
	FeeRates                  map[model.Venue]decimal.Decimal

	// Spread bot and dry-run executor
	DryRun          bool
	MinProfit       decimal.Decimal
	MaxPositionSize decimal.Decimal
	MaxTotalExposure decimal.Decimal
	StartingBalance decimal.Decimal
	Assets          []model.Asset
	MaxTimeToExpiry time.Duration

	// Edge trader
	MinEdge        decimal.Decimal
	MinConfidence  decimal.Decimal
	KellyFraction  decimal.Decimal
	MaxPositionPct decimal.Decimal
	FeeRate        decimal.Decimal

	// Mispricing detector
	MispricingMomentumLookback      time.Duration
	MispricingMinBTCChange          decimal.Decimal
	MispricingMaxMarketPrice        decimal.Decimal
	MispricingMinEdge               decimal.Decimal
	MispricingScaleSizeWithEdge     bool
	MispricingBaseSize              decimal.Decimal
	MispricingAllowCheapSideFallback bool // disabled by default: using the winning side as an oracle is not a true test

	// Backtest simulator
	BacktestAllowSyntheticSnapshot bool // disabled by default: skip resolutions with no price history instead of faking one

	// Cross-venue matcher/arbitrage
	MatcherMinConfidence float64
	CrossVenueInvestment decimal.Decimal

	// Wallet (order signing only, no live transport)
	WalletPrivateKey string

	// Postgres (used when StorageMode == "postgres")
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
// Call godotenv.Load() before this to pick up an optional .env file, as
// cmd/root.go does.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogEncoding: getEnvOrDefault("LOG_ENCODING", "json"),
		LogFile:     getEnvOrDefault("LOG_FILE", ""),
		HTTPPort:    getEnvOrDefault("HTTP_PORT", "8080"),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
		StorageMode: getEnvOrDefault("STORAGE_MODE", "console"),

		ScanInterval:          getDurationOrDefault("SCAN_INTERVAL", 30*time.Second),
		PollInterval:          getDurationOrDefault("POLL_INTERVAL", 30*time.Second),
		MaxConcurrentRequests: getIntOrDefault("MAX_CONCURRENT_REQUESTS", 10),
		ErrorBackoff:          getDurationOrDefault("ERROR_BACKOFF", 5*time.Second),

		MinInternalArbProfit:      getDecimalOrDefault("MIN_INTERNAL_ARB_PROFIT", decimal.NewFromFloat(0.01)),
		MinCrossPlatformArbProfit: getDecimalOrDefault("MIN_CROSS_PLATFORM_ARB_PROFIT", decimal.NewFromFloat(0.02)),
		MinHedgingArbProfit:       getDecimalOrDefault("MIN_HEDGING_ARB_PROFIT", decimal.NewFromFloat(0.02)),
		MaxPriceAge:               getDurationOrDefault("MAX_PRICE_AGE_SECONDS", 30*time.Second),
		MaxOrderbookAge:           getDurationOrDefault("MAX_ORDERBOOK_AGE", 60*time.Second),
		DefaultFeeRate:            getDecimalOrDefault("DEFAULT_FEE_RATE", decimal.NewFromFloat(0.02)),
		FeeRates: map[model.Venue]decimal.Decimal{
			model.Venue("polymarket"): getDecimalOrDefault("POLYMARKET_FEE_RATE", decimal.NewFromFloat(0.02)),
			model.Venue("kalshi"):     getDecimalOrDefault("KALSHI_FEE_RATE", decimal.NewFromFloat(0.01)),
		},

		DryRun:           getBoolOrDefault("DRY_RUN", true),
		MinProfit:        getDecimalOrDefault("MIN_PROFIT", decimal.NewFromFloat(0.01)),
		MaxPositionSize:  getDecimalOrDefault("MAX_POSITION_SIZE", decimal.NewFromInt(100)),
		MaxTotalExposure: getDecimalOrDefault("MAX_TOTAL_EXPOSURE", decimal.NewFromInt(500)),
		StartingBalance:  getDecimalOrDefault("STARTING_BALANCE", decimal.NewFromInt(1000)),
		Assets:           getAssetsOrDefault("ASSETS", []model.Asset{model.AssetBTC, model.AssetETH}),
		MaxTimeToExpiry:  getDurationOrDefault("MAX_TIME_TO_EXPIRY", 24*time.Hour),

		MinEdge:        getDecimalOrDefault("MIN_EDGE", decimal.NewFromFloat(0.05)),
		MinConfidence:  getDecimalOrDefault("MIN_CONFIDENCE", decimal.NewFromFloat(0.6)),
		KellyFraction:  getDecimalOrDefault("KELLY_FRACTION", decimal.NewFromFloat(0.25)),
		MaxPositionPct: getDecimalOrDefault("MAX_POSITION_PCT", decimal.NewFromFloat(0.1)),
		FeeRate:        getDecimalOrDefault("FEE_RATE", decimal.NewFromFloat(0.02)),

		MispricingMomentumLookback:       getDurationOrDefault("MISPRICING_MOMENTUM_LOOKBACK", 5*time.Minute),
		MispricingMinBTCChange:           getDecimalOrDefault("MISPRICING_MIN_BTC_CHANGE", decimal.NewFromFloat(0.003)),
		MispricingMaxMarketPrice:         getDecimalOrDefault("MISPRICING_MAX_MARKET_PRICE", decimal.NewFromFloat(0.4)),
		MispricingMinEdge:                getDecimalOrDefault("MISPRICING_MIN_EDGE", decimal.NewFromFloat(0.05)),
		MispricingScaleSizeWithEdge:      getBoolOrDefault("MISPRICING_SCALE_SIZE_WITH_EDGE", true),
		MispricingBaseSize:               getDecimalOrDefault("MISPRICING_BASE_SIZE", decimal.NewFromInt(25)),
		MispricingAllowCheapSideFallback: getBoolOrDefault("MISPRICING_ALLOW_CHEAP_SIDE_FALLBACK", false),

		BacktestAllowSyntheticSnapshot: getBoolOrDefault("BACKTEST_ALLOW_SYNTHETIC_SNAPSHOT", false),

		MatcherMinConfidence: getFloat64OrDefault("MATCHER_MIN_CONFIDENCE", 0.9),
		CrossVenueInvestment: getDecimalOrDefault("CROSS_VENUE_INVESTMENT", decimal.NewFromInt(50)),

		WalletPrivateKey: os.Getenv("WALLET_PRIVATE_KEY"),

		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "bot"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "bot"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "bot"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are coherent, returning a
// Config-kind DomainError (fatal at startup) on the first violation found.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("HTTP_PORT cannot be empty"))
	}
	if c.StorageMode == "postgres" && c.DatabaseURL == "" && c.PostgresHost == "" {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("postgres storage requires DATABASE_URL or POSTGRES_HOST"))
	}
	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode))
	}
	if c.MaxPositionSize.LessThanOrEqual(decimal.Zero) {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("MAX_POSITION_SIZE must be positive"))
	}
	if c.MaxTotalExposure.LessThan(c.MaxPositionSize) {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("MAX_TOTAL_EXPOSURE must be >= MAX_POSITION_SIZE"))
	}
	if c.StartingBalance.LessThanOrEqual(decimal.Zero) {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("STARTING_BALANCE must be positive"))
	}
	if c.KellyFraction.LessThan(decimal.Zero) || c.KellyFraction.GreaterThan(decimal.NewFromInt(1)) {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("KELLY_FRACTION must be in [0,1]"))
	}
	if c.MaxPositionPct.LessThanOrEqual(decimal.Zero) || c.MaxPositionPct.GreaterThan(decimal.NewFromInt(1)) {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("MAX_POSITION_PCT must be in (0,1]"))
	}
	if len(c.Assets) == 0 {
		return model.NewError(model.ErrConfig, "config.validate", fmt.Errorf("ASSETS must list at least one asset"))
	}
	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

func getDecimalOrDefault(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

func getAssetsOrDefault(key string, defaultValue []model.Asset) []model.Asset {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	assets := make([]model.Asset, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		assets = append(assets, model.ParseAsset(strings.ToUpper(p)))
	}
	if len(assets) == 0 {
		return defaultValue
	}
	return assets
}
