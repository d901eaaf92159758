package market

import "time"

// Price is a bid/ask quote for one instrument at one instant.
type Price struct {
	Instrument string
	Bid        float64
	Ask        float64
	Time       time.Time
}

func (p Price) Mid() float64 {
	return (p.Bid + p.Ask) / 2
}

// Spread returns the bid/ask spread in price terms.
func (p Price) Spread() float64 {
	return p.Ask - p.Bid
}
