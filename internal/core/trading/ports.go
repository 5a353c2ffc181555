package trading

import (
	"context"

	"github.com/dlisin/okxbridge/internal/adapters/outbound/okx_http"
)

// OrderPlacer abstracts the ability to place orders on an exchange.
// Satisfied by *okx_http.Client.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req okx_http.CreateOrderRequest) (*okx_http.OrderAck, error)
}
