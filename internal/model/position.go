package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of a Position.
type PositionStatus string

const (
	PositionOpen    PositionStatus = "OPEN"
	PositionClosing PositionStatus = "CLOSING"
	PositionClosed  PositionStatus = "CLOSED"
	PositionSettled PositionStatus = "SETTLED"
)

// Position is the executor's ledger entry for one market. For spread
// positions YesShares == NoShares (proportional allocation guarantees an
// identical payout on either outcome).
type Position struct {
	ID              string
	MarketID        string
	YesShares       decimal.Decimal
	NoShares        decimal.Decimal
	YesAvgPrice     decimal.Decimal
	NoAvgPrice      decimal.Decimal
	TotalInvested   decimal.Decimal
	Status          PositionStatus
	EntryTime       time.Time
	ExitTime        *time.Time
	SettledOutcome  Resolution
	Payout          decimal.Decimal
	RealizedPnL     decimal.Decimal
	Trades          []Trade
}

// IsSettled reports whether the position has reached its terminal state.
func (p Position) IsSettled() bool {
	return p.Status == PositionSettled
}
