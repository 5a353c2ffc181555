package tradingview

import (
	"testing"

	"github.com/dlisin/okxbridge/internal/core/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlertStringAndNumberFields(t *testing.T) {
	for name, body := range map[string]string{
		"strings": `{"secret":"S","symbol":"BTC/USDT","time":"t","action":"sell","amount":"0.5","price":"42000.5"}`,
		"numbers": `{"secret":"S","symbol":"BTC/USDT","time":"t","action":"sell","amount":0.5,"price":42000.5}`,
	} {
		t.Run(name, func(t *testing.T) {
			sig, err := ParseAlert([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, trading.SideSell, sig.Side)
			assert.Equal(t, "0.5", sig.Amount.String())
			assert.Equal(t, "42000.5", sig.Price.String())
		})
	}
}

func TestParseAlertRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{{`, "decode alert"},
		{"missing symbol", `{"secret":"S","time":"t","action":"buy","amount":"1","price":"2"}`, "symbol"},
		{"missing time", `{"secret":"S","symbol":"X/Y","action":"buy","amount":"1","price":"2"}`, "time"},
		{"bad action", `{"secret":"S","symbol":"X/Y","time":"t","action":"hold","amount":"1","price":"2"}`, "action"},
		{"missing amount", `{"secret":"S","symbol":"X/Y","time":"t","action":"buy","price":"2"}`, "amount"},
		{"zero amount", `{"secret":"S","symbol":"X/Y","time":"t","action":"buy","amount":"0","price":"2"}`, "positive"},
		{"negative amount", `{"secret":"S","symbol":"X/Y","time":"t","action":"buy","amount":"-1","price":"2"}`, "positive"},
		{"missing price", `{"secret":"S","symbol":"X/Y","time":"t","action":"buy","amount":"1"}`, "price"},
		{"garbage amount", `{"secret":"S","symbol":"X/Y","time":"t","action":"buy","amount":"abc","price":"2"}`, "decode alert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAlert([]byte(tt.body))
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Error(), tt.want)
		})
	}
}
