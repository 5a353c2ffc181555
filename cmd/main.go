package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/dlisin/okxbridge/internal/adapters/inbound/tradingview"
	"github.com/dlisin/okxbridge/internal/adapters/okx_auth"
	"github.com/dlisin/okxbridge/internal/adapters/outbound/okx_http"
	"github.com/dlisin/okxbridge/internal/adapters/outbound/wecom"
	"github.com/dlisin/okxbridge/internal/config"
	"github.com/dlisin/okxbridge/internal/core/dedup"
	"github.com/dlisin/okxbridge/internal/core/trading"
	"github.com/dlisin/okxbridge/internal/telemetry"
)

const (
	dedupRetention = 24 * time.Hour
	pruneInterval  = time.Hour
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting OKX alert bridge")

	// ── Webhook secret ──────────────────────────────────────────
	secret, err := config.GenerateSecret(32)
	if err != nil {
		telemetry.Errorf("Generate webhook secret: %v", err)
		os.Exit(1)
	}
	if err := config.PersistSecret(".env", secret); err != nil {
		telemetry.Warnf("Persist webhook secret: %v", err)
	}
	cfg.WebhookSecret = secret

	// ── Order type config ───────────────────────────────────────
	buyType, err := trading.ParseOrderType(cfg.BuyOrderType)
	if err != nil {
		telemetry.Errorf("BUY_ORDER_TYPE: %v", err)
		os.Exit(1)
	}
	sellType, err := trading.ParseOrderType(cfg.SellOrderType)
	if err != nil {
		telemetry.Errorf("SELL_ORDER_TYPE: %v", err)
		os.Exit(1)
	}

	// ── OKX client ──────────────────────────────────────────────
	signer := okx_auth.NewSigner(cfg.APIKey, cfg.SecretKey, cfg.Passphrase)
	if !signer.Enabled() {
		telemetry.Errorf("OKX credentials missing — set API_KEY, SECRET_KEY, PASSPHRASE in .env")
		os.Exit(1)
	}

	proxyURL := ""
	if cfg.UseProxy {
		proxyURL = cfg.HTTPSProxy
		if proxyURL == "" {
			proxyURL = cfg.HTTPProxy
		}
	}
	okxClient := okx_http.NewClient(cfg.OKXBaseURL, signer, proxyURL)
	telemetry.Infof("OKX connected  api=%s  trade_type=%s", cfg.OKXBaseURL, cfg.TradeType)

	// ── Core services ───────────────────────────────────────────
	registry := dedup.NewRegistry()
	trader := trading.NewService(okxClient, cfg.TradeType, buyType, sellType)
	notifier := wecom.NewNotifier(cfg.WeChatBotURL)

	alertStore, err := tradingview.OpenStore(cfg.AlertStorePath)
	if err != nil {
		telemetry.Warnf("Alert store disabled: %v", err)
	}

	handler := tradingview.NewHandler(secret, registry, trader, notifier, alertStore)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	// ── Webhook URL + port preflight ────────────────────────────
	webhookURL := displayWebhookURL(cfg)
	addr := fmt.Sprintf("%s:%d", cfg.ListenHost, cfg.ListenPort)
	if ln, err := net.Listen("tcp", addr); err != nil {
		telemetry.Errorf("Port %d is already in use — close the other process and retry", cfg.ListenPort)
		os.Exit(1)
	} else {
		ln.Close()
	}

	// ── Startup report ──────────────────────────────────────────
	alertConfigs := buildAlertConfigs(cfg.TradeSymbols, secret)
	printStartupSummary(cfg, webhookURL, alertConfigs)

	balCtx, balCancel := context.WithTimeout(context.Background(), 15*time.Second)
	balance, err := okxClient.GetBalance(balCtx)
	balCancel()
	if err != nil {
		telemetry.Warnf("Fetch balance: %v", err)
	} else {
		telemetry.Infof("Account balance (total equity %s USD):", balance.TotalEqUSD)
		ccys := make([]string, 0, len(balance.Totals))
		for ccy := range balance.Totals {
			ccys = append(ccys, ccy)
		}
		sort.Strings(ccys)
		for _, ccy := range ccys {
			telemetry.Plainf("  %s: %s", ccy, balance.Totals[ccy])
		}
	}

	if notifier.Enabled() {
		info := wecom.StartupInfo{
			Symbols:       cfg.TradeSymbols,
			BuyOrderType:  cfg.BuyOrderType,
			SellOrderType: cfg.SellOrderType,
			WebhookURL:    webhookURL,
			AlertConfigs:  alertConfigs,
		}
		if balance != nil {
			info.Balances = balance.Totals
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := notifier.StartupReport(ctx, info); err != nil {
			telemetry.Warnf("Startup notification: %v", err)
		}
		cancel()
	}

	// ── HTTP server ─────────────────────────────────────────────
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Errorf("HTTP server: %v", err)
			os.Exit(1)
		}
	}()
	telemetry.Infof("Webhook listening on %q  url=%s", addr, webhookURL)

	// ── Dedup pruning ───────────────────────────────────────────
	pruneDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := registry.Prune(dedupRetention, time.Now()); n > 0 {
					telemetry.Infof("dedup: pruned %d stale signal records", n)
				}
			case <-pruneDone:
				return
			}
		}
	}()

	// ── Shutdown ────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	telemetry.Infof("Shutting down...")
	close(pruneDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	if alertStore != nil {
		alertStore.Close()
	}

	telemetry.Infof("Shutdown complete  alerts=%d  ignored=%d  orders=%d  order_errors=%d  auth_failures=%d",
		telemetry.Metrics.AlertsReceived.Value(),
		telemetry.Metrics.AlertsIgnored.Value(),
		telemetry.Metrics.OrdersPlaced.Value(),
		telemetry.Metrics.OrderErrors.Value(),
		telemetry.Metrics.AuthFailures.Value(),
	)
}

// displayWebhookURL builds the URL to paste into TradingView. Domain mode
// uses the configured domain; IP mode discovers the host address.
func displayWebhookURL(cfg *config.Config) string {
	if cfg.UseDomain {
		scheme := "http"
		if cfg.UseHTTPS {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s/webhook", scheme, cfg.DomainName)
	}
	return fmt.Sprintf("http://%s:%d/webhook", hostIP(), cfg.ListenPort)
}

// hostIP finds the outbound interface address; no packets are sent.
func hostIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// buildAlertConfigs renders the TradingView alert message template for
// each configured symbol. The {{...}} placeholders are expanded by
// TradingView when the alert fires.
func buildAlertConfigs(symbols []string, secret string) map[string]string {
	type alertTemplate struct {
		Ticker   string `json:"ticker"`
		Exchange string `json:"exchange"`
		Action   string `json:"action"`
		Amount   string `json:"amount"`
		Price    string `json:"price"`
		Symbol   string `json:"symbol"`
		Secret   string `json:"secret"`
		Time     string `json:"time"`
		Interval string `json:"interval"`
	}

	out := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		tmpl := alertTemplate{
			Ticker:   "{{ticker}}",
			Exchange: "okx",
			Action:   "{{strategy.order.action}}",
			Amount:   "{{strategy.order.contracts}}",
			Price:    "{{strategy.order.price}}",
			Symbol:   symbol,
			Secret:   secret,
			Time:     "{{time}}",
			Interval: "{{interval}}",
		}
		data, err := json.MarshalIndent(tmpl, "", "  ")
		if err != nil {
			continue
		}
		out[symbol] = string(data)
	}
	return out
}

func printStartupSummary(cfg *config.Config, webhookURL string, alertConfigs map[string]string) {
	telemetry.Plainf("\n=== Trading config ===")
	for _, symbol := range cfg.TradeSymbols {
		telemetry.Plainf("\n--- %s ---", symbol)
		telemetry.Plainf("  buy order type:  %s", cfg.BuyOrderType)
		telemetry.Plainf("  sell order type: %s", cfg.SellOrderType)
	}

	telemetry.Plainf("\n=== TradingView alert setup ===")
	telemetry.Plainf("Webhook URL: %s", webhookURL)
	telemetry.Plainf("Create one alert per symbol with the message below:")
	for _, symbol := range cfg.TradeSymbols {
		telemetry.Plainf("\n--- %s alert message ---\n%s", symbol, alertConfigs[symbol])
	}
	telemetry.Plainf("")
}
