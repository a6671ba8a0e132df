package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpportunityKind tags which variant of the Opportunity sum type is
// populated. Dispatch on Kind is a single switch wherever an opportunity is
// consumed; this is the tagged-variant redesign of a duck-typed hierarchy.
type OpportunityKind string

const (
	OpportunitySpread     OpportunityKind = "spread"
	OpportunityEdge       OpportunityKind = "edge"
	OpportunityMispricing OpportunityKind = "mispricing"
	OpportunityCrossVenue OpportunityKind = "cross_venue"
)

// Side is the recommended directional side of an edge/mispricing signal.
type Side string

const (
	SideUp   Side = "UP"
	SideDown Side = "DOWN"
	SideNone Side = "NONE"
)

// Opportunity is the sum type emitted by every detector. Only the fields
// relevant to Kind are meaningful; callers must switch on Kind before
// reading variant-specific fields.
type Opportunity struct {
	ID         string
	Kind       OpportunityKind
	Market     Market
	DetectedAt time.Time
	Confidence decimal.Decimal

	// Spread fields.
	YesPrice       decimal.Decimal
	NoPrice        decimal.Decimal
	TotalCost      decimal.Decimal
	GrossProfit    decimal.Decimal
	EstimatedFees  decimal.Decimal
	NetProfit      decimal.Decimal
	YesAllocation  decimal.Decimal
	NoAllocation   decimal.Decimal
	Size           decimal.Decimal

	// Edge / mispricing fields.
	EstimatedProbability decimal.Decimal
	MarketPrice          decimal.Decimal
	Edge                 decimal.Decimal
	EV                   decimal.Decimal
	RecommendedSide      Side
	RecommendedSizePct   decimal.Decimal

	// CrossVenue fields.
	OtherMarket    *Market
	OtherAllocation decimal.Decimal
}

// NewSpreadOpportunity builds a Spread-kind Opportunity from a completed
// proportional-allocation calculation (see quant.ProportionalArb).
func NewSpreadOpportunity(market Market, yesPrice, noPrice, invest, netProfit, grossProfit, fees, yesAlloc, noAlloc, confidence decimal.Decimal) Opportunity {
	return Opportunity{
		ID:            uuid.New().String(),
		Kind:          OpportunitySpread,
		Market:        market,
		DetectedAt:    time.Now(),
		Confidence:    confidence,
		YesPrice:      yesPrice,
		NoPrice:       noPrice,
		TotalCost:     yesPrice.Add(noPrice),
		GrossProfit:   grossProfit,
		EstimatedFees: fees,
		NetProfit:     netProfit,
		YesAllocation: yesAlloc,
		NoAllocation:  noAlloc,
		Size:          invest,
	}
}

// NewEdgeOpportunity builds an Edge-kind Opportunity.
func NewEdgeOpportunity(market Market, pHat, marketPrice, edge, ev, confidence, sizePct decimal.Decimal, side Side) Opportunity {
	return Opportunity{
		ID:                   uuid.New().String(),
		Kind:                 OpportunityEdge,
		Market:               market,
		DetectedAt:           time.Now(),
		Confidence:           confidence,
		EstimatedProbability: pHat,
		MarketPrice:          marketPrice,
		Edge:                 edge,
		EV:                   ev,
		RecommendedSide:      side,
		RecommendedSizePct:   sizePct,
	}
}

// NewCrossVenueOpportunity builds a CrossVenue-kind Opportunity from two
// matched markets on different venues: YES on market, NO on otherMarket.
func NewCrossVenueOpportunity(market, otherMarket Market, yesPrice, noPrice, invest, netProfit, grossProfit, fees, yesAlloc, otherAlloc, confidence decimal.Decimal) Opportunity {
	return Opportunity{
		ID:              uuid.New().String(),
		Kind:            OpportunityCrossVenue,
		Market:          market,
		OtherMarket:     &otherMarket,
		DetectedAt:      time.Now(),
		Confidence:      confidence,
		YesPrice:        yesPrice,
		NoPrice:         noPrice,
		TotalCost:       yesPrice.Add(noPrice),
		GrossProfit:     grossProfit,
		EstimatedFees:   fees,
		NetProfit:       netProfit,
		YesAllocation:   yesAlloc,
		OtherAllocation: otherAlloc,
		Size:            invest,
	}
}

// NewMispricingOpportunity builds a Mispricing-kind Opportunity.
func NewMispricingOpportunity(market Market, pHat, marketPrice, edge, confidence, sizePct decimal.Decimal, side Side) Opportunity {
	return Opportunity{
		ID:                   uuid.New().String(),
		Kind:                 OpportunityMispricing,
		Market:               market,
		DetectedAt:           time.Now(),
		Confidence:           confidence,
		EstimatedProbability: pHat,
		MarketPrice:          marketPrice,
		Edge:                 edge,
		RecommendedSide:      side,
		RecommendedSizePct:   sizePct,
	}
}
