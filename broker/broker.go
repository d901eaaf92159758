package broker

import (
	"context"
	"time"

	"github.com/rustyeddy/fxbot/market"
)

// Broker is the execution venue the engine trades against. Implementations
// are expected to be safe for concurrent use; every call may block on network
// I/O and honors the context.
type Broker interface {
	GetAccount(ctx context.Context) (Account, error)
	GetPrice(ctx context.Context, instrument string) (market.Price, error)
	GetOpenPositions(ctx context.Context) ([]Position, error)
	CreateMarketOrder(ctx context.Context, req MarketOrderRequest) (OrderFill, error)
	ClosePosition(ctx context.Context, instrument string) (OrderFill, error)
}

// Account is a point-in-time snapshot of the broker account. It is read-only
// to the engine and may be slightly stale by the time it is used.
type Account struct {
	ID           string
	Currency     string
	Balance      float64
	NAV          float64
	UnrealizedPL float64
	MarginUsed   float64
	MarginAvail  float64
	OpenTrades   int
}

// Position is one open position as the broker reports it. Units are signed:
// positive long, negative short.
type Position struct {
	Instrument   string
	Units        float64
	AveragePrice float64
	UnrealizedPL float64
}

// MarketOrderRequest asks the broker to fill at market. Units are signed.
// StopLoss and TakeProfit are absolute prices attached on fill; nil omits
// them.
type MarketOrderRequest struct {
	Instrument string
	Units      float64
	StopLoss   *float64
	TakeProfit *float64
}

// OrderFill is the broker's confirmation of an executed order or close.
// RealizedPL is non-zero only when the fill reduced or closed a position.
type OrderFill struct {
	TradeID    string
	Instrument string
	Units      float64
	Price      float64
	RealizedPL float64
	Time       time.Time
}
