// Package scanloop drives the bot's tick-based state machine: discover
// markets, settle what has expired, run every detector, and place at most
// one new position per tick.
package scanloop

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/edge"
	"github.com/cryptoedge/bot/internal/execution"
	"github.com/cryptoedge/bot/internal/matcher"
	"github.com/cryptoedge/bot/internal/mispricing"
	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/momentum"
	"github.com/cryptoedge/bot/internal/monitor"
	"github.com/cryptoedge/bot/internal/quant"
	"github.com/cryptoedge/bot/internal/repository"
	"github.com/cryptoedge/bot/internal/spread"
)

// State is a scan loop lifecycle state.
type State string

const (
	StateIdle      State = "IDLE"
	StateScanning  State = "SCANNING"
	StateTrading   State = "TRADING"
	StateStopping  State = "STOPPING"
)

var zero = decimal.Zero

// CandleSource supplies recent spot candles for the momentum and mispricing
// detectors. Concrete exchange clients are out of scope for this system; a
// nil source just means those two detectors sit out the tick.
type CandleSource interface {
	Candles(ctx context.Context, asset model.Asset, lookback time.Duration) ([]model.Candle, error)
}

// EventSink receives best-effort notifications of loop activity: state
// transitions, opportunities found, trades opened. A nil sink just means
// nothing is listening; it is never load-bearing for trading correctness.
// *wsfeed.Hub satisfies this via its Emit method.
type EventSink interface {
	Emit(eventType string, data interface{})
}

// Config configures a Loop.
type Config struct {
	Repository         repository.Repository
	Monitor            *monitor.Monitor
	SpreadDetector     *spread.Detector
	EdgeDetector       *edge.Detector
	MispricingDetector *mispricing.Detector
	MomentumCalculator *momentum.Calculator
	Matcher            *matcher.Matcher
	Executor           *execution.Executor
	CandleSource       CandleSource
	MomentumLookback   time.Duration
	PollInterval       time.Duration
	ErrorBackoff       time.Duration
	CrossVenueMinProfit decimal.Decimal
	CrossVenueFeeRate   decimal.Decimal
	CrossVenueInvestment decimal.Decimal
	Sink               EventSink
	Logger             *zap.Logger
}

// Loop is the scan loop state machine.
type Loop struct {
	repo         repository.Repository
	mon          *monitor.Monitor
	spreadDet    *spread.Detector
	edgeDet      *edge.Detector
	mispriceDet  *mispricing.Detector
	momentumCalc *momentum.Calculator
	matcher      *matcher.Matcher
	executor     *execution.Executor
	candles      CandleSource
	lookback     time.Duration
	pollInterval time.Duration
	errorBackoff time.Duration
	crossVenueMinProfit  decimal.Decimal
	crossVenueFeeRate    decimal.Decimal
	crossVenueInvestment decimal.Decimal
	sink         EventSink
	logger       *zap.Logger

	state atomic.Value // State

	oppMu             sync.RWMutex
	lastOpportunities []model.Opportunity
}

// New builds a Loop.
func New(cfg Config) *Loop {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.ErrorBackoff == 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}
	if cfg.MomentumLookback == 0 {
		cfg.MomentumLookback = 60 * time.Minute
	}
	l := &Loop{
		repo:         cfg.Repository,
		mon:          cfg.Monitor,
		spreadDet:    cfg.SpreadDetector,
		edgeDet:      cfg.EdgeDetector,
		mispriceDet:  cfg.MispricingDetector,
		momentumCalc: cfg.MomentumCalculator,
		matcher:      cfg.Matcher,
		executor:     cfg.Executor,
		candles:      cfg.CandleSource,
		lookback:     cfg.MomentumLookback,
		pollInterval: cfg.PollInterval,
		errorBackoff: cfg.ErrorBackoff,
		crossVenueMinProfit:  cfg.CrossVenueMinProfit,
		crossVenueFeeRate:    cfg.CrossVenueFeeRate,
		crossVenueInvestment: cfg.CrossVenueInvestment,
		sink:         cfg.Sink,
		logger:       cfg.Logger,
	}
	l.state.Store(StateIdle)
	return l
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State {
	return l.state.Load().(State)
}

// Opportunities returns the opportunities ranked during the most recent
// tick. It is safe to call concurrently with Tick.
func (l *Loop) Opportunities() []model.Opportunity {
	l.oppMu.RLock()
	defer l.oppMu.RUnlock()
	out := make([]model.Opportunity, len(l.lastOpportunities))
	copy(out, l.lastOpportunities)
	return out
}

func (l *Loop) setOpportunities(opps []model.Opportunity) {
	l.oppMu.Lock()
	l.lastOpportunities = opps
	l.oppMu.Unlock()
}

func (l *Loop) emit(eventType string, data interface{}) {
	if l.sink == nil {
		return
	}
	l.sink.Emit(eventType, data)
}

func (l *Loop) setState(s State) {
	l.state.Store(s)
	loopStateTransitionsTotal.WithLabelValues(string(s)).Inc()
	l.emit("state", map[string]string{"state": string(s)})
}

// Run ticks every PollInterval until ctx is cancelled, honoring shutdown at
// the next suspension point. A Consistency or Config error is fatal and
// stops the loop immediately; any other tick error backs off and retries.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := l.Tick(ctx, false); err != nil {
			if domainErr, ok := err.(*model.DomainError); ok && domainErr.IsFatal() {
				l.setState(StateStopping)
				l.flush(ctx)
				return err
			}
			l.logger.Warn("tick-failed-backing-off", zap.Error(err))
			select {
			case <-ctx.Done():
				l.setState(StateStopping)
				l.flush(ctx)
				return nil
			case <-time.After(l.errorBackoff):
			}
			continue
		}

		select {
		case <-ctx.Done():
			l.setState(StateStopping)
			l.flush(ctx)
			return nil
		case <-time.After(l.pollInterval):
		}
	}
}

// RunOnce executes exactly one tick, for `bot run-once`.
func (l *Loop) RunOnce(ctx context.Context, forceRefresh bool) error {
	err := l.Tick(ctx, forceRefresh)
	l.flush(ctx)
	return err
}

func (l *Loop) flush(ctx context.Context) {
	if err := l.repo.SaveSession(ctx, l.executor.Session()); err != nil {
		l.logger.Error("session-flush-failed", zap.Error(err))
	}
}

// Tick runs one full iteration of the state machine.
func (l *Loop) Tick(ctx context.Context, forceRefresh bool) error {
	ticksTotal.Inc()
	l.setState(StateScanning)
	now := time.Now()

	markets, err := l.mon.Discover(ctx, forceRefresh)
	if err != nil {
		return err
	}
	l.mon.UpdateAllPrices(ctx, markets)

	byID := make(map[string]model.Market, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}

	anyExpired := l.settleExpired(ctx, byID, now)
	if anyExpired {
		markets, err = l.mon.Discover(ctx, true)
		if err != nil {
			return err
		}
		l.mon.UpdateAllPrices(ctx, markets)
	}

	opportunities := l.runDetectors(ctx, now, markets)
	l.rankOpportunities(opportunities)
	l.setOpportunities(opportunities)
	if len(opportunities) > 0 {
		l.emit("opportunities", opportunities)
	}

	if err := l.tradeBest(ctx, opportunities); err != nil {
		return err
	}

	if err := l.repo.SaveSession(ctx, l.executor.Session()); err != nil {
		return model.NewError(model.ErrTransport, "scanloop.save_session", err)
	}
	l.setState(StateScanning)
	return nil
}

// settleExpired resolves every OPEN position whose market has expired.
// Positions whose market has not resolved yet are left for a future tick.
func (l *Loop) settleExpired(ctx context.Context, markets map[string]model.Market, now time.Time) bool {
	expired := l.executor.CheckExpiredPositions(markets, now)
	if len(expired) == 0 {
		return false
	}
	for _, pos := range expired {
		mkt, ok := markets[pos.MarketID]
		if !ok || !mkt.Resolved {
			continue
		}
		if _, err := l.executor.Settle(ctx, pos, mkt.Resolution); err != nil {
			l.logger.Error("settlement-failed", zap.String("position_id", pos.ID), zap.Error(err))
		}
	}
	return true
}

// runDetectors runs the spread detector over every market, plus edge and
// mispricing where a candle source can supply the momentum inputs they need.
func (l *Loop) runDetectors(ctx context.Context, now time.Time, markets []model.Market) []model.Opportunity {
	var out []model.Opportunity
	if l.spreadDet != nil {
		out = append(out, l.spreadDet.Detect(now, markets)...)
	}
	if l.matcher != nil {
		out = append(out, l.detectCrossVenue(markets)...)
	}

	if l.candles == nil || l.momentumCalc == nil {
		return out
	}

	seenAssets := make(map[model.Asset][]model.Candle)
	for _, m := range markets {
		if !m.IsBinary() || m.Resolved {
			continue
		}
		candles, ok := seenAssets[m.Asset]
		if !ok {
			var err error
			candles, err = l.candles.Candles(ctx, m.Asset, l.lookback)
			if err != nil {
				l.logger.Debug("candle-fetch-failed", zap.String("asset", string(m.Asset)), zap.Error(err))
				candles = nil
			}
			seenAssets[m.Asset] = candles
		}
		if len(candles) == 0 {
			continue
		}

		duration := timeframeDuration(m.Timeframe)

		if l.edgeDet != nil {
			momSignal, err := l.momentumCalc.CalculateFromCandles(candles, m.Asset, int(duration.Minutes()))
			if err == nil {
				edgeSignal := l.edgeDet.DetectEdge(m, momSignal.ProbabilityUp, momSignal.Confidence, duration, now)
				if edgeSignal.HasEdge() {
					out = append(out, edgeSignal.ToOpportunity())
				}
			}
		}

		if l.mispriceDet != nil {
			mispriceSignal := l.mispriceDet.Detect(m, candles, now, duration)
			if mispriceSignal.HasSignal() {
				out = append(out, mispriceSignal.ToOpportunity())
			}
		}
	}
	return out
}

// detectCrossVenue pairs markets from different venues that the matcher
// believes are the same underlying event, then looks for the same kind of
// sub-$1 combined-cost arbitrage the spread detector finds within a single
// market: buy YES on one venue and NO on the other.
func (l *Loop) detectCrossVenue(markets []model.Market) []model.Opportunity {
	byVenue := make(map[model.Venue][]model.Market)
	for _, m := range markets {
		if m.IsBinary() && !m.Resolved {
			byVenue[m.Venue] = append(byVenue[m.Venue], m)
		}
	}
	if len(byVenue) < 2 {
		return nil
	}

	var out []model.Opportunity
	for _, pair := range l.matcher.MatchAll(byVenue) {
		gross := decimal.NewFromInt(1).Sub(pair.MarketA.YesAsk.Add(pair.MarketB.NoAsk))
		if gross.LessThanOrEqual(zero) {
			continue
		}
		net, yesAlloc, otherAlloc, grossAlloc := quant.ProportionalArb(pair.MarketA.YesAsk, pair.MarketB.NoAsk, l.crossVenueInvestment, l.crossVenueFeeRate)
		if net.LessThan(l.crossVenueMinProfit) {
			continue
		}
		fees := grossAlloc.Sub(net)
		confidence := decimal.NewFromFloat(pair.Confidence)
		out = append(out, model.NewCrossVenueOpportunity(pair.MarketA, pair.MarketB,
			pair.MarketA.YesAsk, pair.MarketB.NoAsk, l.crossVenueInvestment, net, grossAlloc, fees, yesAlloc, otherAlloc, confidence))
	}
	return out
}

func timeframeDuration(tf model.Timeframe) time.Duration {
	switch tf {
	case model.Timeframe15Min:
		return 15 * time.Minute
	case model.TimeframeHourly:
		return time.Hour
	case model.TimeframeDaily:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// rankOpportunities sorts in place by net profit (or edge/EV for directional
// kinds) descending, then liquidity descending, then market id — the total
// deterministic order spec requires.
func (l *Loop) rankOpportunities(opps []model.Opportunity) {
	sort.Slice(opps, func(i, j int) bool {
		ri, rj := rankValue(opps[i]), rankValue(opps[j])
		if !ri.Equal(rj) {
			return ri.GreaterThan(rj)
		}
		if !opps[i].Market.Liquidity.Equal(opps[j].Market.Liquidity) {
			return opps[i].Market.Liquidity.GreaterThan(opps[j].Market.Liquidity)
		}
		return opps[i].Market.ID < opps[j].Market.ID
	})
}

func rankValue(opp model.Opportunity) decimal.Decimal {
	switch opp.Kind {
	case model.OpportunitySpread:
		return opp.NetProfit
	case model.OpportunityEdge:
		return opp.EV
	case model.OpportunityMispricing:
		return opp.Edge
	case model.OpportunityCrossVenue:
		return opp.NetProfit
	default:
		return zero
	}
}

// tradeBest opens at most one new position per tick: the highest-ranked
// opportunity for which no open position exists and the bankroll permits it.
func (l *Loop) tradeBest(ctx context.Context, opportunities []model.Opportunity) error {
	size := l.executor.SizeForTrade()
	if size.IsZero() {
		return nil
	}

	for _, opp := range opportunities {
		if l.executor.HasOpenPosition(opp.Market.ID) {
			continue
		}
		if !l.executor.CanTrade(size) {
			continue
		}

		l.setState(StateTrading)
		var err error
		switch opp.Kind {
		case model.OpportunitySpread:
			_, err = l.executor.ExecuteSpreadTrade(ctx, opp, size)
		case model.OpportunityEdge, model.OpportunityMispricing:
			_, err = l.executor.ExecuteDirectionalTrade(ctx, opp, size)
		default:
			continue
		}
		if err != nil {
			if domainErr, ok := err.(*model.DomainError); ok && domainErr.IsFatal() {
				return err
			}
			l.logger.Info("trade-rejected", zap.String("market_id", opp.Market.ID), zap.Error(err))
			continue
		}
		tradesOpenedTotal.Inc()
		l.emit("trade", map[string]interface{}{
			"market_id": opp.Market.ID,
			"kind":      string(opp.Kind),
		})
		return nil
	}
	return nil
}
