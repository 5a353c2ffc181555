package wecom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTextEnvelope(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	require.True(t, n.Enabled())
	require.NoError(t, n.SendText(context.Background(), "hello"))

	assert.Equal(t, "text", got["msgtype"])
	text, ok := got["text"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", text["content"])
}

func TestSendTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL).SendText(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}

func TestDisabledNotifierIsNoop(t *testing.T) {
	n := NewNotifier("")
	assert.False(t, n.Enabled())
	assert.NoError(t, n.SendText(context.Background(), "dropped"))
}

func TestTradeMessagesIncludeSignalDetails(t *testing.T) {
	var contents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p struct {
			Text struct {
				Content string `json:"content"`
			} `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		contents = append(contents, p.Text.Content)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	info := TradeInfo{
		SignalTime: "2024-01-01T00:00:00Z",
		ExecTime:   "2024-01-01 08:00:01",
		Action:     "buy",
		Symbol:     "BTC/USDT",
		Amount:     "0.01",
		Price:      "50000",
	}

	require.NoError(t, n.TradeSuccess(context.Background(), info, `{"ordId":"1"}`))
	require.NoError(t, n.TradeFailure(context.Background(), info, "insufficient balance"))
	require.Len(t, contents, 2)

	assert.Contains(t, contents[0], "Order placed")
	assert.Contains(t, contents[0], `{"ordId":"1"}`)
	assert.Contains(t, contents[1], "Order FAILED")
	assert.Contains(t, contents[1], "insufficient balance")
	for _, c := range contents {
		assert.Contains(t, c, "BTC/USDT")
		assert.Contains(t, c, "2024-01-01T00:00:00Z")
	}
}

func TestStartupReport(t *testing.T) {
	var content string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p struct {
			Text struct {
				Content string `json:"content"`
			} `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		content = p.Text.Content
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	err := n.StartupReport(context.Background(), StartupInfo{
		Balances:      map[string]string{"USDT": "1000", "BTC": "0.5"},
		Symbols:       []string{"BTC/USDT"},
		BuyOrderType:  "market",
		SellOrderType: "limit",
		WebhookURL:    "http://1.2.3.4:5000/webhook",
		AlertConfigs:  map[string]string{"BTC/USDT": `{"symbol":"BTC/USDT"}`},
	})
	require.NoError(t, err)

	assert.Contains(t, content, "BTC: 0.5")
	assert.Contains(t, content, "USDT: 1000")
	assert.Contains(t, content, "http://1.2.3.4:5000/webhook")
	assert.Contains(t, content, `{"symbol":"BTC/USDT"}`)
}
