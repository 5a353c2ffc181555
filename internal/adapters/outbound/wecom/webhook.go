// Package wecom sends text notifications to a WeChat Work (企业微信) group
// bot webhook. Delivery is best effort: callers log failures and move on.
package wecom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dlisin/okxbridge/internal/telemetry"
)

type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// The exchange may be reached through a proxy, but the bot
			// endpoint must not be: ignore ambient proxy configuration.
			Transport: &http.Transport{Proxy: nil},
		},
	}
}

func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

type textPayload struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

// SendText posts one text message to the bot. No retry, no queueing: a
// failed notification is lost.
func (n *Notifier) SendText(ctx context.Context, content string) error {
	if !n.Enabled() {
		return nil
	}

	var payload textPayload
	payload.MsgType = "text"
	payload.Text.Content = content

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal wecom payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		telemetry.Metrics.NotifyErrors.Inc()
		return fmt.Errorf("wecom webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		telemetry.Metrics.NotifyErrors.Inc()
		return fmt.Errorf("wecom webhook: status=%d", resp.StatusCode)
	}

	telemetry.Metrics.NotifySent.Inc()
	return nil
}

// --- Message formatting ---

// TradeInfo carries everything shown in a trade notification.
type TradeInfo struct {
	SignalTime string
	ExecTime   string
	Action     string
	Symbol     string
	Amount     string
	Price      string
}

func (n *Notifier) TradeSuccess(ctx context.Context, info TradeInfo, orderResult string) error {
	return n.SendText(ctx, formatTrade(info)+"\nOrder placed.\n"+orderResult)
}

func (n *Notifier) TradeFailure(ctx context.Context, info TradeInfo, errMsg string) error {
	return n.SendText(ctx, formatTrade(info)+"\nOrder FAILED!\nError: "+errMsg)
}

func formatTrade(info TradeInfo) string {
	var b strings.Builder
	b.WriteString("=== New trade signal ===\n\n")
	fmt.Fprintf(&b, "Signal time: %s\n", info.SignalTime)
	fmt.Fprintf(&b, "Executed at: %s\n", info.ExecTime)
	fmt.Fprintf(&b, "Action:      %s\n", info.Action)
	fmt.Fprintf(&b, "Symbol:      %s\n", info.Symbol)
	fmt.Fprintf(&b, "Amount:      %s\n", info.Amount)
	fmt.Fprintf(&b, "Price:       %s", info.Price)
	return b.String()
}

// StartupInfo is the configuration summary sent when the process starts.
type StartupInfo struct {
	Balances      map[string]string
	Symbols       []string
	BuyOrderType  string
	SellOrderType string
	WebhookURL    string
	AlertConfigs  map[string]string // symbol -> alert JSON template
}

func (n *Notifier) StartupReport(ctx context.Context, info StartupInfo) error {
	var b strings.Builder
	b.WriteString("=== OKX alert bridge started ===\n\n")

	b.WriteString("Account balance:\n")
	ccys := make([]string, 0, len(info.Balances))
	for ccy := range info.Balances {
		ccys = append(ccys, ccy)
	}
	sort.Strings(ccys)
	for _, ccy := range ccys {
		fmt.Fprintf(&b, "%s: %s\n", ccy, info.Balances[ccy])
	}

	b.WriteString("\n=== Trading config ===\n")
	for _, symbol := range info.Symbols {
		fmt.Fprintf(&b, "\n--- %s ---\n", symbol)
		fmt.Fprintf(&b, "Buy order type:  %s\n", info.BuyOrderType)
		fmt.Fprintf(&b, "Sell order type: %s\n", info.SellOrderType)
	}

	b.WriteString("\n=== TradingView alert setup ===\n")
	fmt.Fprintf(&b, "\nWebhook URL: %s\n", info.WebhookURL)
	for _, symbol := range info.Symbols {
		fmt.Fprintf(&b, "\n--- %s alert message ---\n%s\n", symbol, info.AlertConfigs[symbol])
	}

	return n.SendText(ctx, b.String())
}
