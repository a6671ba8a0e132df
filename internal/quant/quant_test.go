package quant

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestKellyNoEdgeBelowBreakEven(t *testing.T) {
	tests := []struct {
		name  string
		p     string
		price string
		fee   string
	}{
		{"exactly-breakeven", "0.5", "0.5", "0"},
		{"below-breakeven", "0.4", "0.5", "0"},
		{"below-breakeven-with-fee", "0.5", "0.49", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Kelly(d(tt.p), d(tt.price), d(tt.fee))
			require.True(t, got.IsZero(), "expected zero kelly, got %s", got)
		})
	}
}

func TestBreakEvenFeeAtOrAboveOneReturnsOne(t *testing.T) {
	require.True(t, BreakEven(d("0.5"), d("1")).Equal(one))
	require.True(t, BreakEven(d("0.5"), d("1.5")).Equal(one))
}

func TestProportionalArbScenario(t *testing.T) {
	// spec.md §8 scenario 5: arb(0.40, 0.55, 1.0, 0) = net 0.05, yes_alloc=0.421, no_alloc=0.579
	net, yesAlloc, noAlloc, gross := ProportionalArb(d("0.40"), d("0.55"), d("1.0"), d("0"))

	require.True(t, gross.Round(2).Equal(d("0.05")), "gross=%s", gross)
	require.True(t, net.Round(2).Equal(d("0.05")), "net=%s", net)
	require.True(t, yesAlloc.Round(3).Equal(d("0.421")), "yesAlloc=%s", yesAlloc)
	require.True(t, noAlloc.Round(3).Equal(d("0.579")), "noAlloc=%s", noAlloc)

	// Both sides buy the same number of shares: alloc/price.
	yesShares := yesAlloc.Div(d("0.40"))
	noShares := noAlloc.Div(d("0.55"))
	require.True(t, yesShares.Round(3).Equal(noShares.Round(3)))
}

func TestProportionalArbNoArbitrageWhenCostAtOrAboveOne(t *testing.T) {
	net, yesAlloc, noAlloc, gross := ProportionalArb(d("0.55"), d("0.50"), d("1.0"), d("0"))
	require.True(t, net.IsZero())
	require.True(t, yesAlloc.IsZero())
	require.True(t, noAlloc.IsZero())
	require.True(t, gross.IsZero())
}

func TestNormalCDFMatchesKnownValues(t *testing.T) {
	require.InDelta(t, 0.5, NormalCDF(0), 1e-9)
	require.InDelta(t, 0.8413, NormalCDF(1), 1e-4)
	require.InDelta(t, 0.1587, NormalCDF(-1), 1e-4)
	require.True(t, math.Abs(NormalCDF(10)-1) < 1e-9)
}

func TestEVSpreadExample(t *testing.T) {
	// market at 0.50/0.50, true probability 0.52, no fee: small positive edge.
	ev := EV(d("0.52"), d("0.50"), d("0"))
	require.True(t, ev.GreaterThan(zero))
}

func TestImpliedProbabilityZeroPayout(t *testing.T) {
	require.True(t, ImpliedProbability(d("0.5"), zero).IsZero())
}
