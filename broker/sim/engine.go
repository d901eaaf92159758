// Package sim is an in-memory broker: orders fill instantly at the posted
// bid/ask, positions are tracked per instrument, and realized P/L flows back
// into the account balance. It backs the demo command and the engine tests.
package sim

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/fxbot/broker"
	"github.com/rustyeddy/fxbot/market"
)

type position struct {
	tradeID    string
	instrument string
	units      float64 // signed
	entry      float64
}

// Engine is a simulated broker account.
type Engine struct {
	mu        sync.Mutex
	account   broker.Account
	prices    map[string]market.Price
	positions map[string]*position // keyed by instrument
	nextID    int
}

func NewEngine(account broker.Account) *Engine {
	if account.NAV == 0 {
		account.NAV = account.Balance
	}
	return &Engine{
		account:   account,
		prices:    make(map[string]market.Price),
		positions: make(map[string]*position),
	}
}

// SetPrice posts a quote. Unrealized P/L moves with it.
func (e *Engine) SetPrice(p market.Price) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.Time.IsZero() {
		p.Time = time.Now()
	}
	e.prices[p.Instrument] = p
}

func (e *Engine) GetAccount(ctx context.Context) (broker.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	acct := e.account
	acct.UnrealizedPL = 0
	for _, pos := range e.positions {
		if p, ok := e.prices[pos.instrument]; ok {
			acct.UnrealizedPL += e.unrealized(pos, p)
		}
	}
	acct.NAV = acct.Balance + acct.UnrealizedPL
	acct.OpenTrades = len(e.positions)
	return acct, nil
}

func (e *Engine) GetPrice(ctx context.Context, instrument string) (market.Price, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.prices[instrument]
	if !ok {
		return market.Price{}, fmt.Errorf("sim: no price for %s", instrument)
	}
	return p, nil
}

func (e *Engine) GetOpenPositions(ctx context.Context) ([]broker.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []broker.Position
	for _, pos := range e.positions {
		bp := broker.Position{
			Instrument:   pos.instrument,
			Units:        pos.units,
			AveragePrice: pos.entry,
		}
		if p, ok := e.prices[pos.instrument]; ok {
			bp.UnrealizedPL = e.unrealized(pos, p)
		}
		out = append(out, bp)
	}
	return out, nil
}

func (e *Engine) CreateMarketOrder(ctx context.Context, req broker.MarketOrderRequest) (broker.OrderFill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Units == 0 {
		return broker.OrderFill{}, fmt.Errorf("sim: zero units")
	}
	p, ok := e.prices[req.Instrument]
	if !ok {
		return broker.OrderFill{}, fmt.Errorf("sim: no price for %s", req.Instrument)
	}
	if _, open := e.positions[req.Instrument]; open {
		return broker.OrderFill{}, fmt.Errorf("sim: position already open for %s", req.Instrument)
	}

	fillPrice := p.Ask
	if req.Units < 0 {
		fillPrice = p.Bid
	}

	e.nextID++
	pos := &position{
		tradeID:    strconv.Itoa(e.nextID),
		instrument: req.Instrument,
		units:      req.Units,
		entry:      fillPrice,
	}
	e.positions[req.Instrument] = pos

	return broker.OrderFill{
		TradeID:    pos.tradeID,
		Instrument: req.Instrument,
		Units:      req.Units,
		Price:      fillPrice,
		Time:       p.Time,
	}, nil
}

func (e *Engine) ClosePosition(ctx context.Context, instrument string) (broker.OrderFill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[instrument]
	if !ok {
		return broker.OrderFill{}, fmt.Errorf("sim: no open position for %s", instrument)
	}
	p, ok := e.prices[instrument]
	if !ok {
		return broker.OrderFill{}, fmt.Errorf("sim: no price for %s", instrument)
	}

	pl := e.unrealized(pos, p)
	e.account.Balance += pl
	delete(e.positions, instrument)

	exit := p.Bid
	if pos.units < 0 {
		exit = p.Ask
	}
	return broker.OrderFill{
		TradeID:    pos.tradeID,
		Instrument: instrument,
		Units:      -pos.units,
		Price:      exit,
		RealizedPL: pl,
		Time:       p.Time,
	}, nil
}

// unrealized marks the position to the closing side of the current quote.
func (e *Engine) unrealized(pos *position, p market.Price) float64 {
	if pos.units >= 0 {
		return (p.Bid - pos.entry) * pos.units
	}
	return (p.Ask - pos.entry) * pos.units
}
