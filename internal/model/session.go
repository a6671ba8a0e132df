package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BotSession is the bankroll and aggregate counters for one bot run. A
// session can be restored from persisted state and continued across
// process restarts (see the repository's session load/checkpoint calls).
//
// Invariant that must hold after every committed mutation:
//
//	CurrentBalance + OpenExposure(s) == StartingBalance + NetProfit
type BotSession struct {
	ID              string
	StartedAt       time.Time
	StartingBalance decimal.Decimal
	CurrentBalance  decimal.Decimal
	NetProfit       decimal.Decimal
	TradesCount     int
	WinningCount    int
	LosingCount     int
	OpenPositions   map[string]*Position // keyed by market ID
}

// NewBotSession creates a fresh session with the given starting bankroll.
func NewBotSession(startingBalance decimal.Decimal) *BotSession {
	return &BotSession{
		ID:              uuid.New().String(),
		StartedAt:       time.Now(),
		StartingBalance: startingBalance,
		CurrentBalance:  startingBalance,
		OpenPositions:   make(map[string]*Position),
	}
}

// OpenExposure sums the total invested across all currently open positions.
func (s *BotSession) OpenExposure() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.OpenPositions {
		if p.Status == PositionOpen {
			total = total.Add(p.TotalInvested)
		}
	}
	return total
}

// CheckBalanceIdentity verifies the session's core accounting invariant.
// A violation is a Consistency error (spec §7): fatal, and the process must
// stop without committing further writes.
func (s *BotSession) CheckBalanceIdentity() bool {
	lhs := s.CurrentBalance.Add(s.OpenExposure())
	rhs := s.StartingBalance.Add(s.NetProfit)
	return lhs.Equal(rhs)
}
