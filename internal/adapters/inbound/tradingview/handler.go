// Package tradingview receives TradingView strategy alerts over HTTP and
// drives the dedup -> order -> notify pipeline.
package tradingview

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dlisin/okxbridge/internal/adapters/outbound/wecom"
	"github.com/dlisin/okxbridge/internal/core/dedup"
	"github.com/dlisin/okxbridge/internal/core/trading"
	"github.com/dlisin/okxbridge/internal/telemetry"
)

const maxAlertBytes = 64 << 10

// Handler serves POST /webhook.
//
// Per alert: shared-secret check, schema validation, atomic per-symbol
// dedup mark, order placement, best-effort notification. The dedup mark
// is written before the order goes out, so a re-delivered alert never
// places twice — even when the first attempt failed on the exchange.
type Handler struct {
	secret   string
	registry *dedup.Registry
	trader   *trading.Service
	notifier *wecom.Notifier
	store    *Store // nil when the archive is disabled
}

func NewHandler(secret string, registry *dedup.Registry, trader *trading.Service, notifier *wecom.Notifier, store *Store) *Handler {
	return &Handler{
		secret:   secret,
		registry: registry,
		trader:   trader,
		notifier: notifier,
		store:    store,
	}
}

// RegisterRoutes wires HTTP routes onto the provided mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook", h.handleAlert)
	mux.HandleFunc("GET /health", h.healthCheck)
}

func (h *Handler) handleAlert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	telemetry.Metrics.AlertsReceived.Inc()
	defer func() {
		telemetry.Metrics.AlertLatency.Record(time.Since(start))
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAlertBytes))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "read body: " + err.Error()})
		return
	}

	// The secret gate runs before full validation: a wrong secret is
	// rejected no matter how broken the rest of the payload is.
	var gate struct {
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(body, &gate); err != nil {
		telemetry.Metrics.ValidationErrors.Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "decode alert: " + err.Error()})
		return
	}
	if gate.Secret != h.secret {
		telemetry.Metrics.AuthFailures.Inc()
		telemetry.Warnf("webhook: invalid secret from %s", r.RemoteAddr)
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "invalid secret"})
		return
	}

	sig, err := ParseAlert(body)
	if err != nil {
		telemetry.Metrics.ValidationErrors.Inc()
		telemetry.Warnf("webhook: bad alert: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	now := time.Now()
	prev, dup := h.registry.MarkExecuted(sig.Symbol, sig.Time, now, body)
	if dup {
		telemetry.Metrics.AlertsIgnored.Inc()
		telemetry.Infof("webhook: duplicate alert %s time=%s last_executed=%s", sig.Symbol, sig.Time, prev)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ignored",
			"message":       "signal for " + sig.Symbol + " with this timestamp already executed",
			"signal_time":   sig.Time,
			"last_executed": prev,
		})
		return
	}

	if h.store != nil {
		h.store.Insert(sig.Symbol, body)
	}

	execTime := now.Format(dedup.ExecTimeFormat)
	telemetry.Infof("webhook: new signal %s %s %s amount=%s price=%s signal_time=%s",
		sig.Side, sig.Symbol, execTime, sig.Amount, sig.Price, sig.Time)

	info := wecom.TradeInfo{
		SignalTime: sig.Time,
		ExecTime:   execTime,
		Action:     string(sig.Side),
		Symbol:     sig.Symbol,
		Amount:     sig.Amount.String(),
		Price:      sig.Price.String(),
	}

	placement, err := h.trader.Place(r.Context(), sig.Side, sig.Symbol, sig.Amount, &sig.Price)
	if err != nil {
		// The dedup record stays: this signal will not execute again.
		h.notify(h.notifier.TradeFailure(r.Context(), info, err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	h.notify(h.notifier.TradeSuccess(r.Context(), info, string(placement.Ack.Raw)))

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "order placed",
		"order":      json.RawMessage(placement.Ack.Raw),
		"order_type": placement.Type,
	})
}

// notify swallows a notification error. The HTTP response always
// reflects the order outcome, not the notification's.
func (h *Handler) notify(err error) {
	if err != nil {
		telemetry.Warnf("webhook: notification failed: %v", err)
	}
}

func (h *Handler) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","adapter":"tradingview_webhook"}`))
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
