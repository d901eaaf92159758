// Package webhook is the HTTP surface of the bot: the TradingView alert
// receiver plus the small JSON API the dashboard and CLI talk to. It holds no
// trading logic; every request funnels into the engine, which treats webhook
// and manual signals identically.
package webhook

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/fxbot/engine"
	"github.com/rustyeddy/fxbot/journal"
)

// History is the slice of the journal the dashboard reads.
type History interface {
	ListRecent(n int) ([]journal.Record, error)
}

// Server serves the webhook and dashboard API.
type Server struct {
	engine     *engine.Engine
	history    History
	secret     string
	allowedIPs map[string]bool
	log        *logrus.Entry
	http       *http.Server
}

// Options configures a Server. Secret enables HMAC validation of webhook
// payloads; AllowedIPs, when non-empty, is an allowlist for /webhook.
type Options struct {
	Addr       string
	Engine     *engine.Engine
	History    History
	Secret     string
	AllowedIPs []string
	Logger     *logrus.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		engine:  opts.Engine,
		history: opts.History,
		secret:  opts.Secret,
		log:     logger.WithField("component", "webhook"),
	}
	if len(opts.AllowedIPs) > 0 {
		s.allowedIPs = make(map[string]bool, len(opts.AllowedIPs))
		for _, ip := range opts.AllowedIPs {
			s.allowedIPs[ip] = true
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Post("/webhook", s.handleWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
		r.Post("/trade", s.handleTrade)
		r.Post("/close", s.handleClose)
		r.Post("/trading", s.handleTrading)
	})

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.http.Addr).Info("webhook server listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.ipAllowed(r) {
		s.log.WithField("remote", r.RemoteAddr).Warn("webhook from unauthorized IP")
		writeError(w, http.StatusForbidden, "unauthorized IP")
		return
	}

	var alert Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if s.secret != "" && !alert.ValidSignature(s.secret) {
		s.log.Warn("webhook signature mismatch")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	sig, err := alert.Signal()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.submit(w, r, sig)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.RiskStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	const limit = 100
	records, err := s.history.ListRecent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleTrade is the manual entry point the dashboard uses. Manual trades go
// through every risk check that webhook trades do.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var alert Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	sig, err := alert.Signal()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sig.Source = engine.SourceManual
	s.submit(w, r, sig)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Instrument string `json:"instrument"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Instrument == "" {
		writeError(w, http.StatusBadRequest, "instrument is required")
		return
	}
	s.submit(w, r, engine.Signal{
		Action:     engine.Close,
		Instrument: body.Instrument,
		Source:     engine.SourceManual,
	})
}

func (s *Server) handleTrading(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	s.engine.SetTradingEnabled(*body.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"trading_enabled": *body.Enabled})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, sig engine.Signal) {
	decision, err := s.engine.SubmitSignal(r.Context(), sig)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	code := http.StatusOK
	if decision.Status == engine.StatusFailed {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, newDecisionResponse(decision))
}

func (s *Server) ipAllowed(r *http.Request) bool {
	if s.allowedIPs == nil {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return s.allowedIPs[host]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
