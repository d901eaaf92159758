package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/fxbot/engine"
)

// Alert is the TradingView alert payload. Stop and target can arrive either
// as absolute prices or as pip distances; both forms are passed through to
// the engine, which resolves precedence.
type Alert struct {
	Action     string  `json:"action"` // "buy", "sell", "close"
	Instrument string  `json:"instrument"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
	StopPips   float64 `json:"sl_pips,omitempty"`
	TargetPips float64 `json:"tp_pips,omitempty"`
	Units      float64 `json:"units,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
	Signature  string  `json:"signature,omitempty"`
}

// ValidSignature checks the alert's HMAC-SHA256 signature over
// timestamp+action against the shared secret.
func (a Alert) ValidSignature(secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(a.Timestamp + a.Action))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(a.Signature))
}

// Sign computes the signature an alert would need to pass ValidSignature.
// Used by tests and by senders that script their own alerts.
func Sign(secret, timestamp, action string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + action))
	return hex.EncodeToString(mac.Sum(nil))
}

// Signal converts the alert into an engine signal.
func (a Alert) Signal() (engine.Signal, error) {
	if a.Instrument == "" {
		return engine.Signal{}, fmt.Errorf("instrument is required")
	}

	var action engine.Action
	switch strings.ToLower(a.Action) {
	case "buy", "long", "open_long":
		action = engine.OpenLong
	case "sell", "short", "open_short":
		action = engine.OpenShort
	case "close":
		action = engine.Close
	default:
		return engine.Signal{}, fmt.Errorf("unknown action %q", a.Action)
	}

	return engine.Signal{
		Action:          action,
		Instrument:      a.Instrument,
		StopLossPrice:   a.StopLoss,
		TakeProfitPrice: a.TakeProfit,
		StopPips:        a.StopPips,
		TakeProfitPips:  a.TargetPips,
		Units:           a.Units,
		Source:          engine.SourceWebhook,
		ReceivedAt:      time.Now(),
	}, nil
}

// decisionResponse is the wire shape of a trade decision.
type decisionResponse struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	Detail     string  `json:"detail,omitempty"`
	Instrument string  `json:"instrument"`
	Action     string  `json:"action"`
	Units      float64 `json:"units,omitempty"`
	Price      float64 `json:"price,omitempty"`
	TradeID    string  `json:"trade_id,omitempty"`
	RealizedPL float64 `json:"realized_pl,omitempty"`
}

func newDecisionResponse(d engine.Decision) decisionResponse {
	return decisionResponse{
		ID:         d.ID,
		Status:     string(d.Status),
		Reason:     string(d.Reason),
		Detail:     d.Detail,
		Instrument: d.Signal.Instrument,
		Action:     string(d.Signal.Action),
		Units:      d.Units,
		Price:      d.Price,
		TradeID:    d.TradeID,
		RealizedPL: d.RealizedPL,
	}
}
