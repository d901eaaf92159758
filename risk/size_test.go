package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxbot/market"
)

func eurUSD() market.InstrumentMeta {
	return market.Instruments["EUR_USD"]
}

func TestSize_RiskAmountMatchesStopDistance(t *testing.T) {
	t.Parallel()

	got, err := Size(SizeInputs{
		Equity:         10_000,
		RiskFraction:   0.02,
		StopPips:       20,
		QuoteToAccount: 1.0,
		Meta:           eurUSD(),
	})
	require.NoError(t, err)

	assert.InDelta(t, 200.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 100_000.0, got.Units, 1.0)
	// The size must put exactly the risk amount on the line if the stop hits.
	assert.InDelta(t, 200.0, got.Units*20*got.PipValue, 1.0)
}

func TestSize_JPYQuoteConversion(t *testing.T) {
	t.Parallel()

	got, err := Size(SizeInputs{
		Equity:         5_000,
		RiskFraction:   0.02,
		StopPips:       50,
		QuoteToAccount: 0.0066, // 1/151.5
		Meta:           market.Instruments["USD_JPY"],
	})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 30303.0, got.Units, 1.0)
}

func TestSize_InvalidStopLoss(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stopPips float64
	}{
		{"zero", 0},
		{"negative", -20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Size(SizeInputs{
				Equity:       10_000,
				RiskFraction: 0.02,
				StopPips:     tt.stopPips,
				Meta:         eurUSD(),
			})
			assert.ErrorIs(t, err, ErrInvalidStopLoss)
		})
	}
}

func TestSize_FlooredToMinimumIncrement(t *testing.T) {
	t.Parallel()

	meta := eurUSD()
	meta.MinimumTradeSize = 1000

	got, err := Size(SizeInputs{
		Equity:         10_000,
		RiskFraction:   0.013,
		StopPips:       17,
		QuoteToAccount: 1.0,
		Meta:           meta,
	})
	require.NoError(t, err)

	// 130 / (17 * 0.0001) = 76470.58..., floored to the 1000-unit increment.
	assert.InDelta(t, 76_000.0, got.Units, 1e-9)
}

func TestSize_ClampedToMaximum(t *testing.T) {
	t.Parallel()

	meta := eurUSD()
	meta.MaximumTradeSize = 50_000

	got, err := Size(SizeInputs{
		Equity:         1_000_000,
		RiskFraction:   0.02,
		StopPips:       10,
		QuoteToAccount: 1.0,
		Meta:           meta,
	})
	require.NoError(t, err)
	assert.InDelta(t, 50_000.0, got.Units, 1e-9)
}

func TestSize_Deterministic(t *testing.T) {
	t.Parallel()

	in := SizeInputs{
		Equity:         25_000,
		RiskFraction:   0.01,
		StopPips:       35,
		QuoteToAccount: 1.0,
		Meta:           eurUSD(),
	}

	first, err := Size(in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Size(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
