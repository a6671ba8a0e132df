// Package matcher extracts a structured entity from a market's free-form
// name and scores two entities for being the same underlying event across
// venues. It never looks at price quotes; it only reasons about what a
// market's title says the event is.
package matcher

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
)

// EventType classifies what kind of event a market resolves.
type EventType string

const (
	EventDirectional15m EventType = "directional_15m"
	EventCryptoPrice    EventType = "crypto_price"
	EventSP500          EventType = "sp500"
	EventDow            EventType = "dow"
	EventNasdaq         EventType = "nasdaq"
	EventFedRate        EventType = "fed_rate"
	EventInflation      EventType = "inflation"
	EventGDP            EventType = "gdp"
	EventEmployment     EventType = "employment"
	EventElection       EventType = "election"
)

// Direction is the price direction a market's name implies.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// MarketEntity is what was extracted from one market's name.
type MarketEntity struct {
	Asset       model.Asset // "" means no asset keyword was found
	PriceTarget int         // 0 means none found
	Direction   Direction   // "" means none found
	Date        time.Time   // zero means none found
	EventType   EventType   // "" means none found
	RawName     string
}

// MatchedPair is two markets the matcher believes are the same event.
type MatchedPair struct {
	MarketA     model.Market
	MarketB     model.Market
	Confidence  float64
	MatchReason string
}

// Matcher extracts entities and scores market pairs across venues.
type Matcher struct {
	minConfidence float64
	logger        *zap.Logger
}

// New creates a Matcher. minConfidence is typically close to 1.0: matching
// is deliberately strict, since a false positive pairs unrelated markets
// for cross-venue arbitrage.
func New(minConfidence float64, logger *zap.Logger) *Matcher {
	return &Matcher{minConfidence: minConfidence, logger: logger}
}

type assetKeyword struct {
	keyword string
	asset   model.Asset
}

// assetKeywords is ordered; the python original's dict iterated in
// insertion order, which this slice preserves.
var assetKeywords = []assetKeyword{
	{"btc", model.AssetBTC}, {"bitcoin", model.AssetBTC},
	{"eth", model.AssetETH}, {"ethereum", model.AssetETH},
	{"sol", model.AssetSOL}, {"solana", model.AssetSOL},
	{"xrp", model.AssetXRP}, {"ripple", model.AssetXRP},
	{"doge", model.AssetDOGE}, {"dogecoin", model.AssetDOGE},
}

type eventKeyword struct {
	keyword string
	event   EventType
}

// eventTypeKeywords is checked in order; more specific phrases come first
// so "up or down" is claimed by directional_15m before any looser match.
var eventTypeKeywords = []eventKeyword{
	{"up or down", EventDirectional15m},
	{"price up", EventDirectional15m},
	{"up in next", EventDirectional15m},
	{"15 min", EventDirectional15m},
	{"s&p", EventSP500},
	{"sp500", EventSP500},
	{"dow jones", EventDow},
	{"nasdaq", EventNasdaq},
	{"fed", EventFedRate},
	{"federal reserve", EventFedRate},
	{"interest rate", EventFedRate},
	{"fomc", EventFedRate},
	{"cpi", EventInflation},
	{"inflation", EventInflation},
	{"gdp", EventGDP},
	{"unemployment", EventEmployment},
	{"election", EventElection},
	{"president", EventElection},
	{"senate", EventElection},
	{"congress", EventElection},
}

var aboveWords = []string{"above", "over", "exceeds", "higher than", "reaches", "hits"}
var belowWords = []string{"below", "under", "less than", "drops", "falls", "lower than"}

var priceExtractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$?([\d,]+)\s*k\b`),
	regexp.MustCompile(`(?i)\$?(\d{1,3}(?:,\d{3})+)`),
	regexp.MustCompile(`(?i)\$?(\d{4,})\b`),
	regexp.MustCompile(`(?i)above\s*\$?([\d,]+)`),
	regexp.MustCompile(`(?i)below\s*\$?([\d,]+)`),
	regexp.MustCompile(`(?i)over\s*\$?([\d,]+)`),
	regexp.MustCompile(`(?i)under\s*\$?([\d,]+)`),
}

// ExtractEntity derives a MarketEntity from a market's name and end time.
func ExtractEntity(m model.Market) MarketEntity {
	name := strings.ToLower(m.Name)
	return MarketEntity{
		Asset:       extractAsset(name),
		PriceTarget: extractPrice(name),
		Direction:   extractDirection(name),
		Date:        m.EndTime,
		EventType:   extractEventType(name),
		RawName:     m.Name,
	}
}

func extractAsset(name string) model.Asset {
	for _, kw := range assetKeywords {
		if strings.Contains(name, kw.keyword) {
			return kw.asset
		}
	}
	return ""
}

func extractPrice(name string) int {
	for _, pattern := range priceExtractPatterns {
		loc := pattern.FindStringSubmatchIndex(name)
		if loc == nil {
			continue
		}
		raw := name[loc[2]:loc[3]]
		digits := strings.ReplaceAll(raw, ",", "")
		price, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		matched := name[loc[0]:loc[1]]
		if strings.Contains(strings.ToLower(matched), "k") {
			price *= 1000
		}
		if price >= 1000 && price <= 1000000 {
			return price
		}
	}
	return 0
}

func extractDirection(name string) Direction {
	for _, w := range aboveWords {
		if strings.Contains(name, w) {
			return DirectionAbove
		}
	}
	for _, w := range belowWords {
		if strings.Contains(name, w) {
			return DirectionBelow
		}
	}
	return ""
}

func extractEventType(name string) EventType {
	for _, kw := range eventTypeKeywords {
		if strings.Contains(name, kw.keyword) {
			return kw.event
		}
	}
	if extractAsset(name) != "" {
		return EventCryptoPrice
	}
	return ""
}

// score calculates a match confidence and reason string for two entities.
// A hard reject (different asset, price, direction or date) returns 0 and a
// reason naming the mismatch.
func score(a, b MarketEntity) (float64, string) {
	total := 0.0
	var reasons []string
	matched := make(map[string]bool)

	if a.Asset != "" && b.Asset != "" {
		if a.Asset == b.Asset {
			total += 0.3
			reasons = append(reasons, "asset="+string(a.Asset))
			matched["asset"] = true
		} else {
			return 0, "asset mismatch"
		}
	}

	if a.PriceTarget != 0 && b.PriceTarget != 0 {
		if a.PriceTarget == b.PriceTarget {
			total += 0.3
			reasons = append(reasons, "price")
			matched["price"] = true
		} else {
			diffPct := absFloat(float64(a.PriceTarget-b.PriceTarget)) / float64(a.PriceTarget)
			if diffPct < 0.01 {
				total += 0.2
				reasons = append(reasons, "price~")
				matched["price"] = true
			} else {
				return 0, "price mismatch"
			}
		}
	}

	if a.Direction != "" && b.Direction != "" {
		if a.Direction == b.Direction {
			total += 0.2
			reasons = append(reasons, "direction="+string(a.Direction))
			matched["direction"] = true
		} else {
			return 0, "direction mismatch"
		}
	}

	is15m := a.EventType == EventDirectional15m || b.EventType == EventDirectional15m

	if !a.Date.IsZero() && !b.Date.IsZero() {
		if is15m {
			diff := absFloat(a.Date.Sub(b.Date).Seconds())
			if diff <= 300 {
				total += 0.3
				reasons = append(reasons, "time")
				matched["time"] = true
			} else {
				return 0, "time mismatch"
			}
		} else if sameCalendarDay(a.Date, b.Date) {
			total += 0.2
			reasons = append(reasons, "date")
			matched["time"] = true
		} else {
			return 0, "date mismatch"
		}
	}

	if a.EventType != "" && b.EventType != "" && a.EventType == b.EventType {
		total += 0.1
		reasons = append(reasons, "type="+string(a.EventType))
		matched["type"] = true
	}

	if len(reasons) == 0 {
		return 0, "no matching components"
	}

	if is15m {
		for _, req := range []string{"asset", "time", "type"} {
			if !matched[req] {
				return 0, "missing for 15m: " + req
			}
		}
		total += 0.2
		if total > 1.0 {
			total = 1.0
		}
	} else if a.EventType == EventCryptoPrice {
		for _, req := range []string{"asset", "price", "direction", "time"} {
			if !matched[req] {
				return 0, "missing: " + req
			}
		}
	}

	return total, strings.Join(reasons, " + ")
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Match finds matching market pairs between two lists, order-independent
// and deterministic given the rule table above.
func (m *Matcher) Match(marketsA, marketsB []model.Market) []MatchedPair {
	entitiesA := make([]MarketEntity, len(marketsA))
	for i, mkt := range marketsA {
		entitiesA[i] = ExtractEntity(mkt)
	}
	entitiesB := make([]MarketEntity, len(marketsB))
	for i, mkt := range marketsB {
		entitiesB[i] = ExtractEntity(mkt)
	}

	var matches []MatchedPair
	for i, ea := range entitiesA {
		for j, eb := range entitiesB {
			pairsComparedTotal.Inc()
			s, reason := score(ea, eb)
			if s >= m.minConfidence-0.001 {
				matchesFoundTotal.Inc()
				matches = append(matches, MatchedPair{
					MarketA:     marketsA[i],
					MarketB:     marketsB[j],
					Confidence:  s,
					MatchReason: reason,
				})
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })

	if m.logger != nil {
		m.logger.Info("cross-venue-match-complete", zap.Int("matches", len(matches)), zap.Float64("min_confidence", m.minConfidence))
	}

	return matches
}

// MatchAll compares every pair of venues in marketsByVenue and returns the
// union of their matched pairs.
func (m *Matcher) MatchAll(marketsByVenue map[model.Venue][]model.Market) []MatchedPair {
	venues := make([]model.Venue, 0, len(marketsByVenue))
	for v := range marketsByVenue {
		venues = append(venues, v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })

	var all []MatchedPair
	for i, va := range venues {
		for _, vb := range venues[i+1:] {
			a, b := marketsByVenue[va], marketsByVenue[vb]
			if len(a) == 0 || len(b) == 0 {
				continue
			}
			all = append(all, m.Match(a, b)...)
		}
	}
	return all
}
