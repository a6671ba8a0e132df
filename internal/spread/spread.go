// Package spread finds risk-free internal arbitrage: a single binary
// market whose yes+no ask prices sum to less than 1 after fees.
package spread

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/quant"
)

var (
	zero           = decimal.Zero
	pointZeroFive  = decimal.NewFromFloat(0.05)
	thousand       = decimal.NewFromInt(1000)
	hundred        = decimal.NewFromInt(100)
	confFloor      = decimal.NewFromFloat(0.1)
	confCeil       = decimal.NewFromFloat(1.0)
)

// Config configures a Detector.
type Config struct {
	MinProfit          decimal.Decimal
	DefaultFeeRate     decimal.Decimal
	FeeRates           map[model.Venue]decimal.Decimal
	MinTimeToExpiry    time.Duration // markets closer to expiry than this are skipped
	MaxSnapshotAge     time.Duration
	InvestmentPerTrade decimal.Decimal
	Logger             *zap.Logger
}

// Detector finds spread opportunities over a slice of markets.
type Detector struct {
	cfg Config
}

// New creates a Detector.
func New(cfg Config) *Detector {
	if cfg.MinTimeToExpiry == 0 {
		cfg.MinTimeToExpiry = time.Hour
	}
	return &Detector{cfg: cfg}
}

func (d *Detector) feeRate(venue model.Venue) decimal.Decimal {
	if rate, ok := d.cfg.FeeRates[venue]; ok {
		return rate
	}
	return d.cfg.DefaultFeeRate
}

// Detect evaluates every eligible market and returns opportunities sorted
// by net profit descending, ties broken by higher liquidity.
func (d *Detector) Detect(now time.Time, markets []model.Market) []model.Opportunity {
	start := time.Now()
	defer func() { scanDurationSeconds.Observe(time.Since(start).Seconds()) }()

	var out []model.Opportunity
	for _, m := range markets {
		marketsScannedTotal.Inc()
		if opp, ok := d.evaluate(now, m); ok {
			out = append(out, opp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].NetProfit.Equal(out[j].NetProfit) {
			return out[i].NetProfit.GreaterThan(out[j].NetProfit)
		}
		return out[i].Market.Liquidity.GreaterThan(out[j].Market.Liquidity)
	})

	opportunitiesFoundTotal.Add(float64(len(out)))
	return out
}

func (d *Detector) evaluate(now time.Time, m model.Market) (model.Opportunity, bool) {
	if !m.IsBinary() || m.Resolved {
		return model.Opportunity{}, false
	}
	if m.TimeToExpiry(now) < d.cfg.MinTimeToExpiry {
		return model.Opportunity{}, false
	}
	if m.IsStale(now, d.cfg.MaxSnapshotAge) {
		return model.Opportunity{}, false
	}

	y, n := m.YesAsk, m.NoAsk
	if y.LessThanOrEqual(zero) || n.LessThanOrEqual(zero) {
		return model.Opportunity{}, false
	}

	gross := decimal.NewFromInt(1).Sub(y.Add(n))
	if gross.LessThanOrEqual(zero) {
		return model.Opportunity{}, false
	}

	rate := d.feeRate(m.Venue)
	fees := y.Add(n).Mul(rate)
	net := gross.Sub(fees)
	if net.LessThan(d.cfg.MinProfit) {
		return model.Opportunity{}, false
	}

	confidence := decimal.NewFromFloat(0.8)
	if gross.GreaterThan(pointZeroFive) {
		confidence = confidence.Sub(decimal.NewFromFloat(0.2))
	}
	if m.Liquidity.LessThan(thousand) {
		confidence = confidence.Sub(decimal.NewFromFloat(0.1))
	}
	if m.Volume24h.LessThan(hundred) {
		confidence = confidence.Sub(decimal.NewFromFloat(0.1))
	}
	confidence = quant.Clamp(confidence, confFloor, confCeil)

	// NetProfit/GrossProfit/EstimatedFees stay on the same [0,1] price scale
	// as YesPrice/NoPrice (the unscaled net/gross/fees computed above,
	// i.e. investment=1), so spec.md §8's
	// yes_price+no_price+net_profit+estimated_fees=1 invariant holds
	// regardless of trade size, and so NetProfit compares apples-to-apples
	// with edge/mispricing opportunities' EV/Edge when the scan loop ranks
	// opportunities across kinds. The dollar fill is sized separately at
	// the configured investment.
	investment := d.cfg.InvestmentPerTrade
	_, yesAlloc, noAlloc, _ := quant.ProportionalArb(y, n, investment, rate)

	opp := model.NewSpreadOpportunity(m, y, n, investment, net, gross, fees, yesAlloc, noAlloc, confidence)
	return opp, true
}
