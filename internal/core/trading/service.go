// Package trading turns a validated alert into exactly one OKX order.
//
// Order kind is driven by per-side configuration: a side configured for
// limit orders uses the alert's price, but falls back to a market order
// when the alert carries none. Exchange failures are wrapped in
// ExecutionError and surfaced once — never retried.
package trading

import (
	"context"
	"fmt"

	"github.com/dlisin/okxbridge/internal/adapters/outbound/okx_http"
	"github.com/dlisin/okxbridge/internal/telemetry"
	"github.com/shopspring/decimal"
)

var _ OrderPlacer = (*okx_http.Client)(nil)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type OrderType string

const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)

// ParseSide validates an alert action string.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid action %q (want buy or sell)", s)
}

// ParseOrderType validates a configured order type string.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case TypeMarket, TypeLimit:
		return OrderType(s), nil
	}
	return "", fmt.Errorf("invalid order type %q (want market or limit)", s)
}

// OrderRequest is a fully resolved order: type decided, price present
// only when the type is limit.
type OrderRequest struct {
	Side   Side
	Symbol string
	Amount decimal.Decimal
	Type   OrderType
	Price  *decimal.Decimal
}

// Placement is a successful order submission.
type Placement struct {
	Ack  *okx_http.OrderAck
	Type OrderType
}

// ExecutionError wraps an exchange failure. The underlying error text is
// passed through untouched; OKX-specific codes are not reinterpreted.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return "order execution: " + e.Err.Error() }
func (e *ExecutionError) Unwrap() error { return e.Err }

// Service places orders according to the per-side order-type policy.
type Service struct {
	placer   OrderPlacer
	tdMode   string
	buyType  OrderType
	sellType OrderType
}

func NewService(placer OrderPlacer, tradeType string, buyType, sellType OrderType) *Service {
	return &Service{
		placer:   placer,
		tdMode:   okx_http.TdMode(tradeType),
		buyType:  buyType,
		sellType: sellType,
	}
}

// ConfiguredType returns the order type configured for a side.
func (s *Service) ConfiguredType(side Side) OrderType {
	if side == SideBuy {
		return s.buyType
	}
	return s.sellType
}

// Resolve applies the decision table: a limit-configured side with a
// price produces a limit order at that price; everything else is market.
func (s *Service) Resolve(side Side, symbol string, amount decimal.Decimal, price *decimal.Decimal) OrderRequest {
	req := OrderRequest{
		Side:   side,
		Symbol: symbol,
		Amount: amount,
		Type:   TypeMarket,
	}
	if s.ConfiguredType(side) == TypeLimit && price != nil {
		req.Type = TypeLimit
		req.Price = price
	}
	return req
}

// Place resolves and submits one order. Returns *ExecutionError on any
// exchange failure.
func (s *Service) Place(ctx context.Context, side Side, symbol string, amount decimal.Decimal, price *decimal.Decimal) (*Placement, error) {
	req := s.Resolve(side, symbol, amount, price)

	okxReq := okx_http.CreateOrderRequest{
		InstID:  okx_http.InstID(req.Symbol),
		TdMode:  s.tdMode,
		Side:    string(req.Side),
		OrdType: string(req.Type),
		Sz:      req.Amount.String(),
		ClOrdID: okx_http.NewClientOrderID(),
	}
	if req.Type == TypeLimit {
		okxReq.Px = req.Price.String()
	}

	ack, err := s.placer.PlaceOrder(ctx, okxReq)
	if err != nil {
		telemetry.Errorf("trading: order failed %s %s %s: %v", req.Side, req.Amount, req.Symbol, err)
		return nil, &ExecutionError{Err: err}
	}

	telemetry.Infof("trading: placed %s %s %s @ %s (%s)",
		req.Side, req.Amount, req.Symbol, priceLabel(req.Price), req.Type)

	return &Placement{Ack: ack, Type: req.Type}, nil
}

func priceLabel(price *decimal.Decimal) string {
	if price == nil {
		return "market"
	}
	return price.String()
}
