package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimits_Validate(t *testing.T) {
	t.Parallel()

	valid := testLimits()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Limits)
	}{
		{"zero risk per trade", func(l *Limits) { l.RiskPerTrade = 0 }},
		{"risk over 100%", func(l *Limits) { l.RiskPerTrade = 1.5 }},
		{"bad instrument override", func(l *Limits) { l.PerInstrument = map[string]float64{"EUR_USD": -0.01} }},
		{"zero max positions", func(l *Limits) { l.MaxPositions = 0 }},
		{"zero total risk", func(l *Limits) { l.MaxTotalRisk = 0 }},
		{"zero daily limit", func(l *Limits) { l.DailyLossLimit = 0 }},
		{"weekly below daily", func(l *Limits) { l.WeeklyLossLimit = 0.01 }},
		{"missing location", func(l *Limits) { l.Location = nil }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := testLimits()
			tt.mutate(&l)
			assert.Error(t, l.Validate())
		})
	}
}

func TestLimits_RiskFor(t *testing.T) {
	t.Parallel()

	l := testLimits()
	l.PerInstrument = map[string]float64{"GBP_JPY": 0.01}

	assert.Equal(t, 0.02, l.RiskFor("EUR_USD"))
	assert.Equal(t, 0.01, l.RiskFor("GBP_JPY"))
}

func TestLimits_ImmutableCopies(t *testing.T) {
	t.Parallel()

	l := Limits{
		RiskPerTrade:    0.02,
		MaxPositions:    3,
		MaxTotalRisk:    0.06,
		DailyLossLimit:  0.05,
		WeeklyLossLimit: 0.10,
		WeekStart:       time.Monday,
		Location:        time.UTC,
	}
	cp := l
	cp.RiskPerTrade = 0.9
	assert.Equal(t, 0.02, l.RiskPerTrade)
}
