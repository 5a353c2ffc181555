package okx_http

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dlisin/okxbridge/internal/telemetry"
	"github.com/google/uuid"
)

// CreateOrderRequest is the payload for POST /api/v5/trade/order.
type CreateOrderRequest struct {
	InstID  string `json:"instId"`
	TdMode  string `json:"tdMode"`  // "cash" (spot) or "cross" (margin)
	Side    string `json:"side"`    // "buy" or "sell"
	OrdType string `json:"ordType"` // "market" or "limit"
	Sz      string `json:"sz"`
	Px      string `json:"px,omitempty"` // limit orders only
	ClOrdID string `json:"clOrdId,omitempty"`
}

// OrderAck is a single entry of the OKX order response data array.
type OrderAck struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`

	// Raw is the ack exactly as OKX returned it, passed through opaquely
	// to webhook responses and notifications.
	Raw json.RawMessage `json:"-"`
}

type orderEnvelope struct {
	Code string            `json:"code"`
	Msg  string            `json:"msg"`
	Data []json.RawMessage `json:"data"`
}

// InstID converts a "BTC/USDT" pair into the OKX "BTC-USDT" instrument ID.
func InstID(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "-")
}

// TdMode maps the configured trade type to an OKX trade mode.
func TdMode(tradeType string) string {
	if tradeType == "margin" {
		return "cross"
	}
	return "cash"
}

// NewClientOrderID returns a 32-char alphanumeric client order ID
// (OKX rejects IDs containing dashes).
func NewClientOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PlaceOrder submits one order and returns its ack. Rejections surface as
// errors carrying the OKX code and message; nothing is retried.
func (c *Client) PlaceOrder(ctx context.Context, req CreateOrderRequest) (*OrderAck, error) {
	body, status, err := c.Post(ctx, "/api/v5/trade/order", req)
	if err != nil {
		telemetry.Metrics.OrderErrors.Inc()
		return nil, err
	}
	if status < 200 || status >= 300 {
		telemetry.Metrics.OrderErrors.Inc()
		return nil, fmt.Errorf("order rejected: status=%d body=%s", status, string(body))
	}

	var env orderEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal order response: %w", err)
	}
	if len(env.Data) == 0 {
		telemetry.Metrics.OrderErrors.Inc()
		return nil, fmt.Errorf("order rejected: code=%s msg=%q", env.Code, env.Msg)
	}

	var ack OrderAck
	if err := json.Unmarshal(env.Data[0], &ack); err != nil {
		return nil, fmt.Errorf("unmarshal order ack: %w", err)
	}
	ack.Raw = env.Data[0]

	if env.Code != "0" || ack.SCode != "0" {
		telemetry.Metrics.OrderErrors.Inc()
		return nil, fmt.Errorf("order rejected: code=%s sCode=%s sMsg=%q", env.Code, ack.SCode, ack.SMsg)
	}

	telemetry.Metrics.OrdersPlaced.Inc()
	telemetry.Infof("okx: order placed inst=%s side=%s type=%s sz=%s -> %s",
		req.InstID, req.Side, req.OrdType, req.Sz, ack.OrdID)

	return &ack, nil
}
