package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxbot/broker"
	"github.com/rustyeddy/fxbot/broker/sim"
	"github.com/rustyeddy/fxbot/engine"
	"github.com/rustyeddy/fxbot/journal"
	"github.com/rustyeddy/fxbot/market"
	"github.com/rustyeddy/fxbot/risk"
)

const testSecret = "hunter2"

func newTestServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()

	brk := sim.NewEngine(broker.Account{ID: "SIM", Currency: "USD", Balance: 10_000})
	brk.SetPrice(market.Price{Instrument: "EUR_USD", Bid: 1.0849, Ask: 1.0851})

	jnl, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { jnl.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	eng, err := engine.New(engine.Options{
		Broker:  brk,
		Catalog: market.NewCatalog([]string{"EUR_USD"}, nil),
		Limits: risk.Limits{
			RiskPerTrade:    0.02,
			MaxPositions:    5,
			MaxTotalRisk:    0.06,
			DailyLossLimit:  0.05,
			WeeklyLossLimit: 0.10,
			WeekStart:       time.Monday,
			Location:        time.UTC,
		},
		Journal:         jnl,
		Logger:          logger,
		DefaultStopPips: 20,
	})
	require.NoError(t, err)

	opts := Options{
		Addr:    ":0",
		Engine:  eng,
		History: jnl,
		Secret:  testSecret,
		Logger:  logger,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewServer(opts)
}

func signedAlert(action string) Alert {
	ts := time.Now().UTC().Format(time.RFC3339)
	return Alert{
		Action:     action,
		Instrument: "EUR_USD",
		StopPips:   20,
		Timestamp:  ts,
		Signature:  Sign(testSecret, ts, action),
	}
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.RemoteAddr = "203.0.113.7:4444"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestWebhook_SignedBuyFills(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := post(t, s.Handler(), "/webhook", signedAlert("buy"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp decisionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "filled", resp.Status)
	assert.Equal(t, "EUR_USD", resp.Instrument)
	assert.NotEmpty(t, resp.TradeID)
	assert.InDelta(t, 100_000.0, resp.Units, 1.0)
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	alert := signedAlert("buy")
	alert.Signature = "deadbeef"
	w := post(t, s.Handler(), "/webhook", alert)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_TamperedActionRejected(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	alert := signedAlert("buy")
	alert.Action = "sell" // signature covers timestamp+action
	w := post(t, s.Handler(), "/webhook", alert)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_NoSecretSkipsValidation(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, func(o *Options) { o.Secret = "" })
	w := post(t, s.Handler(), "/webhook", Alert{Action: "buy", Instrument: "EUR_USD", StopPips: 20})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_IPAllowlist(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, func(o *Options) {
		o.AllowedIPs = []string{"52.89.214.238"}
	})

	w := post(t, s.Handler(), "/webhook", signedAlert("buy"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	buf, _ := json.Marshal(signedAlert("buy"))
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(buf))
	req.RemoteAddr = "52.89.214.238:51544"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_UnknownActionBadRequest(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := post(t, s.Handler(), "/webhook", signedAlert("hodl"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_RejectionIsStillHTTP200(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	ok := post(t, s.Handler(), "/api/trading", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, ok.Code)

	w := post(t, s.Handler(), "/webhook", signedAlert("buy"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp decisionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Status)
	assert.Equal(t, "TRADING_DISABLED", resp.Reason)
}

func TestAPI_StatusAndHistory(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, post(t, s.Handler(), "/webhook", signedAlert("buy")).Code)

	w := get(t, s.Handler(), "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	var status engine.RiskStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.TradingEnabled)
	assert.Equal(t, 1, status.OpenPositions)

	w = get(t, s.Handler(), "/api/history")
	require.Equal(t, http.StatusOK, w.Code)
	var records []journal.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "filled", records[0].Status)
}

func TestAPI_ManualTradeAndClose(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	w := post(t, s.Handler(), "/api/trade", Alert{Action: "buy", Instrument: "eur/usd", StopPips: 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp decisionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "filled", resp.Status)

	w = post(t, s.Handler(), "/api/close", map[string]string{"instrument": "EUR_USD"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "filled", resp.Status)

	w = post(t, s.Handler(), "/api/close", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlert_SignalMapping(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]engine.Action{
		"buy": engine.OpenLong, "long": engine.OpenLong, "open_long": engine.OpenLong,
		"sell": engine.OpenShort, "short": engine.OpenShort, "open_short": engine.OpenShort,
		"close": engine.Close, "CLOSE": engine.Close,
	} {
		sig, err := Alert{Action: in, Instrument: "EUR_USD"}.Signal()
		require.NoError(t, err, in)
		assert.Equal(t, want, sig.Action, in)
		assert.Equal(t, engine.SourceWebhook, sig.Source)
	}

	_, err := Alert{Action: "buy"}.Signal()
	assert.Error(t, err, "instrument is required")
}
