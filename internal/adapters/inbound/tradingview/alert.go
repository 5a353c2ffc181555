package tradingview

import (
	"encoding/json"
	"fmt"

	"github.com/dlisin/okxbridge/internal/core/trading"
	"github.com/shopspring/decimal"
)

// alertPayload is the wire shape of a TradingView alert message.
//
//	{ "secret": "...", "symbol": "BTC/USDT", "time": "{{time}}",
//	  "action": "buy", "amount": "0.01", "price": "50000" }
//
// amount and price arrive as strings or bare numbers depending on how the
// alert template was written; decimal.Decimal accepts both.
type alertPayload struct {
	Secret string           `json:"secret"`
	Symbol string           `json:"symbol"`
	Time   string           `json:"time"`
	Action string           `json:"action"`
	Amount *decimal.Decimal `json:"amount"`
	Price  *decimal.Decimal `json:"price"`
}

// AlertSignal is a fully validated alert. No business logic runs before
// one of these exists.
type AlertSignal struct {
	Secret string
	Symbol string
	Time   string // opaque idempotency token, compared only for equality
	Side   trading.Side
	Amount decimal.Decimal
	Price  decimal.Decimal
}

// ValidationError reports a malformed or missing alert field.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ParseAlert decodes and validates an alert body. Any failure is a
// *ValidationError.
func ParseAlert(body []byte) (*AlertSignal, error) {
	var p alertPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, validationErrorf("decode alert: %v", err)
	}

	if p.Symbol == "" {
		return nil, validationErrorf("missing symbol")
	}
	if p.Time == "" {
		return nil, validationErrorf("missing time")
	}

	side, err := trading.ParseSide(p.Action)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}

	if p.Amount == nil {
		return nil, validationErrorf("missing amount")
	}
	if !p.Amount.IsPositive() {
		return nil, validationErrorf("amount must be positive, got %s", p.Amount)
	}
	if p.Price == nil {
		return nil, validationErrorf("missing price")
	}

	return &AlertSignal{
		Secret: p.Secret,
		Symbol: p.Symbol,
		Time:   p.Time,
		Side:   side,
		Amount: *p.Amount,
		Price:  *p.Price,
	}, nil
}
