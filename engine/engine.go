package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/fxbot/broker"
	"github.com/rustyeddy/fxbot/journal"
	"github.com/rustyeddy/fxbot/market"
	"github.com/rustyeddy/fxbot/pkg/id"
	"github.com/rustyeddy/fxbot/risk"
)

// Engine is the trade execution coordinator: it sizes a signal, gates it
// against the risk limits, submits accepted orders to the broker, and commits
// the result into the risk state.
//
// One mutex serializes every risk-affecting section (evaluate, reserve,
// commit) so the gate always checks against a state no concurrent signal can
// advance mid-evaluation. Broker calls are I/O-bound and run outside the
// lock; the commit that follows a fill re-enters it.
type Engine struct {
	mu      sync.Mutex
	state   *risk.State
	limits  atomic.Pointer[risk.Limits]
	broker  broker.Broker
	catalog *market.Catalog
	journal journal.Journal
	log     *logrus.Entry

	defaultStopPips   float64
	defaultTargetPips float64

	now func() time.Time
}

// Options wires an Engine together. Broker, Catalog and Journal are required;
// Limits must validate.
type Options struct {
	Broker  broker.Broker
	Catalog *market.Catalog
	Limits  risk.Limits
	Journal journal.Journal
	Logger  *logrus.Logger

	// DefaultStopPips is applied when a signal carries no stop distance at
	// all; zero means signals without a stop are rejected.
	DefaultStopPips   float64
	DefaultTargetPips float64
}

func New(opts Options) (*Engine, error) {
	if opts.Broker == nil {
		return nil, errors.New("engine: broker is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("engine: instrument catalog is required")
	}
	if opts.Journal == nil {
		return nil, errors.New("engine: journal is required")
	}
	if err := opts.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &Engine{
		broker:            opts.Broker,
		catalog:           opts.Catalog,
		journal:           opts.Journal,
		log:               logger.WithField("component", "engine"),
		defaultStopPips:   opts.DefaultStopPips,
		defaultTargetPips: opts.DefaultTargetPips,
		now:               time.Now,
	}
	limits := opts.Limits
	e.limits.Store(&limits)
	e.state = risk.NewState(limits.WeekStart, limits.Location, e.now())
	return e, nil
}

// Limits returns the currently active limit set.
func (e *Engine) Limits() risk.Limits {
	return *e.limits.Load()
}

// SetLimits swaps in a freshly loaded limit set. The value is immutable once
// installed; in-flight evaluations finish against the set they started with.
func (e *Engine) SetLimits(l risk.Limits) error {
	if err := l.Validate(); err != nil {
		return err
	}
	e.limits.Store(&l)
	e.log.WithFields(logrus.Fields{
		"risk_per_trade": l.RiskPerTrade,
		"max_positions":  l.MaxPositions,
	}).Info("risk limits reloaded")
	return nil
}

// SetTradingEnabled is the operator override. It takes the same exclusion
// boundary as signal evaluation, so it cannot interleave with a gate check.
func (e *Engine) SetTradingEnabled(on bool) {
	e.mu.Lock()
	e.state.SetTradingEnabled(on)
	e.mu.Unlock()
	if on {
		e.log.Warn("trading enabled by operator")
	} else {
		e.log.Warn("trading disabled by operator")
	}
}

// SubmitSignal runs one signal through the full decide, size, gate, submit,
// record sequence and returns the decision. Synchronous: broker I/O happens
// within the call. Failed submissions leave the risk state untouched; retries
// are treated as brand-new signals.
func (e *Engine) SubmitSignal(ctx context.Context, sig Signal) (Decision, error) {
	sig.Instrument = market.Normalize(sig.Instrument)
	if sig.ReceivedAt.IsZero() {
		sig.ReceivedAt = e.now()
	}

	d := Decision{ID: id.New(), Signal: sig}
	log := e.log.WithFields(logrus.Fields{
		"decision":   d.ID,
		"action":     sig.Action,
		"instrument": sig.Instrument,
		"source":     sig.Source,
	})

	switch sig.Action {
	case OpenLong, OpenShort, Close:
	default:
		return d, fmt.Errorf("unknown action %q", sig.Action)
	}

	meta, err := e.catalog.Metadata(sig.Instrument)
	if err != nil {
		d.Status = StatusRejected
		d.Reason = risk.ReasonInstrumentDisabled
		d.Detail = err.Error()
		e.settle(&d, log)
		return d, nil
	}

	if sig.Action == Close {
		return e.submitClose(ctx, d, log)
	}
	return e.submitOpen(ctx, d, meta, log)
}

func (e *Engine) submitOpen(ctx context.Context, d Decision, meta market.InstrumentMeta, log *logrus.Entry) (Decision, error) {
	sig := d.Signal

	// Snapshot refresh and pricing are network calls; neither holds the
	// exclusion boundary.
	price, err := e.broker.GetPrice(ctx, sig.Instrument)
	if err != nil {
		return e.fail(d, log, fmt.Errorf("get price: %w", err)), nil
	}
	acct, err := e.broker.GetAccount(ctx)
	if err != nil {
		return e.fail(d, log, fmt.Errorf("get account: %w", err)), nil
	}

	entry := price.Ask
	if sig.Action == OpenShort {
		entry = price.Bid
	}
	stopPips := e.stopDistance(sig, meta, entry)

	limits := e.Limits()
	snap := accountSnapshot(acct)

	// Evaluate-and-reserve is one critical section: the gate's checks are
	// only correct against a state no other signal can advance underneath
	// it, and the reservation is what makes two concurrent signals unable to
	// spend the same risk budget.
	e.mu.Lock()
	now := e.now()

	res, err := risk.Size(risk.SizeInputs{
		Equity:         snap.Equity,
		RiskFraction:   limits.RiskFor(sig.Instrument),
		StopPips:       stopPips,
		QuoteToAccount: quoteToAccount(meta, acct.Currency, price),
		Meta:           meta,
	})
	if err != nil {
		// Sizing failures skip the gate entirely.
		e.mu.Unlock()
		d.Status = StatusRejected
		d.Reason = risk.ReasonInvalidStopLoss
		d.Detail = err.Error()
		e.settle(&d, log)
		return d, nil
	}

	units := res.Units
	riskFrac := fraction(res.RiskAmount, snap.Equity)
	if sig.Units > 0 {
		// Explicit size override: gate on the risk that size implies, not
		// the configured fraction.
		units = sig.Units
		riskFrac = fraction(units*stopPips*res.PipValue, snap.Equity)
	}

	verdict := risk.Evaluate(risk.Proposal{
		Instrument:        sig.Instrument,
		RiskFraction:      riskFrac,
		InstrumentEnabled: e.catalog.IsEnabled(sig.Instrument),
		SpreadPips:        meta.Pips(price.Spread()),
		MaxSpreadPips:     meta.MaxSpreadPips,
	}, limits, snap, e.state, now)

	if !verdict.Allowed {
		e.mu.Unlock()
		if verdict.DisabledTrading {
			log.WithField("reason", verdict.Reason).Warn("loss limit breached, trading disabled")
		}
		d.Status = StatusRejected
		d.Reason = verdict.Reason
		d.Detail = verdict.Detail
		e.settle(&d, log)
		return d, nil
	}

	e.state.Reserve(d.ID, riskFrac)
	e.mu.Unlock()

	d.Units = units
	d.Price = entry
	d.StopPips = stopPips
	d.RiskFrac = riskFrac

	fill, err := e.broker.CreateMarketOrder(ctx, e.orderRequest(sig, meta, entry, units, stopPips))

	e.mu.Lock()
	if err != nil {
		// The order never reached the book: drop the reservation and leave
		// every counter as if the signal had not arrived.
		e.state.Release(d.ID)
		e.mu.Unlock()
		return e.fail(d, log, fmt.Errorf("create order: %w", err)), nil
	}
	e.state.Advance(e.now())
	e.state.CommitOpen(d.ID, fill.TradeID, sig.Instrument)
	e.recheckLimits(snap.Equity, log)
	e.mu.Unlock()

	d.Status = StatusFilled
	d.TradeID = fill.TradeID
	d.Price = fill.Price
	e.settle(&d, log)
	return d, nil
}

func (e *Engine) submitClose(ctx context.Context, d Decision, log *logrus.Entry) (Decision, error) {
	sig := d.Signal
	limits := e.Limits()

	e.mu.Lock()
	verdict := risk.Evaluate(risk.Proposal{
		Instrument:        sig.Instrument,
		Close:             true,
		InstrumentEnabled: e.catalog.IsEnabled(sig.Instrument),
		SpreadPips:        -1,
	}, limits, risk.AccountSnapshot{}, e.state, e.now())
	e.mu.Unlock()

	if !verdict.Allowed {
		d.Status = StatusRejected
		d.Reason = verdict.Reason
		d.Detail = verdict.Detail
		e.settle(&d, log)
		return d, nil
	}

	fill, err := e.broker.ClosePosition(ctx, sig.Instrument)
	if err != nil {
		return e.fail(d, log, fmt.Errorf("close position: %w", err)), nil
	}

	// Refresh equity for the limit re-check before re-entering the lock; the
	// commit section is state mutation only.
	equity := 0.0
	if acct, aerr := e.broker.GetAccount(ctx); aerr != nil {
		log.WithError(aerr).Warn("account refresh failed, skipping limit re-check")
	} else {
		equity = acct.NAV
	}

	e.mu.Lock()
	e.state.Advance(e.now())
	e.state.CommitClose(sig.Instrument, fill.RealizedPL)
	e.recheckLimits(equity, log)
	e.mu.Unlock()

	d.Status = StatusFilled
	d.TradeID = fill.TradeID
	d.Units = fill.Units
	d.Price = fill.Price
	d.RealizedPL = fill.RealizedPL
	e.settle(&d, log)
	return d, nil
}

// recheckLimits is the optimistic re-check on commit: a fill settled while
// this trade was in flight may have pushed an accumulator past its limit, so
// the loss limits are re-validated before the boundary is released. Must be
// called with the engine lock held.
func (e *Engine) recheckLimits(equity float64, log *logrus.Entry) {
	if !e.state.TradingEnabled() || equity <= 0 {
		return
	}
	limits := e.Limits()
	day := e.state.DayPL() / equity
	week := e.state.WeekPL() / equity
	switch {
	case abs(day) >= limits.DailyLossLimit:
		e.state.SetTradingEnabled(false)
		log.WithField("daily_pl_pct", 100*day).Warn("daily loss limit breached on commit, trading disabled")
	case abs(week) >= limits.WeeklyLossLimit:
		e.state.SetTradingEnabled(false)
		log.WithField("weekly_pl_pct", 100*week).Warn("weekly loss limit breached on commit, trading disabled")
	}
}

func (e *Engine) fail(d Decision, log *logrus.Entry, err error) Decision {
	d.Status = StatusFailed
	d.Detail = err.Error()
	e.settle(&d, log)
	return d
}

// settle stamps, journals, and logs a finished decision.
func (e *Engine) settle(d *Decision, log *logrus.Entry) {
	d.SettledAt = e.now()

	if err := e.journal.Append(toRecord(*d)); err != nil {
		log.WithError(err).Error("journal append failed")
	}

	entry := log.WithFields(logrus.Fields{
		"status": d.Status,
		"units":  d.Units,
	})
	switch d.Status {
	case StatusFilled:
		entry.Info("trade filled")
	case StatusRejected:
		entry.WithField("reason", d.Reason).Warn("trade rejected")
	case StatusFailed:
		entry.WithField("error", d.Detail).Error("trade failed")
	}
}

// stopDistance resolves the signal's stop-loss distance in pips: explicit
// pips first, then an absolute stop price measured from entry, then the
// configured default. Zero means no stop could be resolved.
func (e *Engine) stopDistance(sig Signal, meta market.InstrumentMeta, entry float64) float64 {
	switch {
	case sig.StopPips != 0:
		return sig.StopPips
	case sig.StopLossPrice != 0:
		return meta.Pips(entry - sig.StopLossPrice)
	default:
		return e.defaultStopPips
	}
}

func (e *Engine) orderRequest(sig Signal, meta market.InstrumentMeta, entry, units, stopPips float64) broker.MarketOrderRequest {
	dir := 1.0
	if sig.Action == OpenShort {
		dir = -1.0
	}
	req := broker.MarketOrderRequest{
		Instrument: sig.Instrument,
		Units:      dir * units,
	}

	stop := sig.StopLossPrice
	if stop == 0 && stopPips > 0 {
		stop = entry - dir*meta.PriceDistance(stopPips)
	}
	if stop != 0 {
		req.StopLoss = &stop
	}

	take := sig.TakeProfitPrice
	if take == 0 {
		tpPips := sig.TakeProfitPips
		if tpPips == 0 {
			tpPips = e.defaultTargetPips
		}
		if tpPips > 0 {
			take = entry + dir*meta.PriceDistance(tpPips)
		}
	}
	if take != 0 {
		req.TakeProfit = &take
	}
	return req
}

// quoteToAccount derives the quote-currency to account-currency conversion
// from the instrument's own price where possible. Cross rates for exotic
// account currencies fall back to 1.0.
func quoteToAccount(meta market.InstrumentMeta, accountCurrency string, price market.Price) float64 {
	switch {
	case meta.QuoteCurrency == accountCurrency:
		return 1.0
	case meta.BaseCurrency == accountCurrency && price.Mid() > 0:
		return 1.0 / price.Mid()
	default:
		return 1.0
	}
}

func accountSnapshot(a broker.Account) risk.AccountSnapshot {
	return risk.AccountSnapshot{
		Currency:     a.Currency,
		Balance:      a.Balance,
		Equity:       a.NAV,
		UnrealizedPL: a.UnrealizedPL,
		MarginUsed:   a.MarginUsed,
		MarginAvail:  a.MarginAvail,
	}
}

func fraction(amount, equity float64) float64 {
	if equity <= 0 {
		return 0
	}
	return amount / equity
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func toRecord(d Decision) journal.Record {
	return journal.Record{
		DecisionID:   d.ID,
		ReceivedAt:   d.Signal.ReceivedAt,
		Instrument:   d.Signal.Instrument,
		Action:       string(d.Signal.Action),
		Source:       string(d.Signal.Source),
		Status:       string(d.Status),
		Reason:       string(d.Reason),
		Detail:       d.Detail,
		Units:        d.Units,
		Price:        d.Price,
		StopPips:     d.StopPips,
		RiskFraction: d.RiskFrac,
		TradeID:      d.TradeID,
		RealizedPL:   d.RealizedPL,
		SettledAt:    d.SettledAt,
	}
}
