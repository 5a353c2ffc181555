package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// OKX API
	OKXBaseURL string
	APIKey     string
	SecretKey  string
	Passphrase string

	// Outbound proxy (exchange traffic only; the WeChat notifier always
	// bypasses any proxy)
	UseProxy   bool
	HTTPProxy  string
	HTTPSProxy string

	// Webhook server
	ListenHost string
	ListenPort int

	// Trading
	TradeType     string // "spot" or "margin"
	BuyOrderType  string // "market" or "limit"
	SellOrderType string
	TradeSymbols  []string

	// Display-only webhook URL settings
	UseDomain  bool
	DomainName string
	UseHTTPS   bool

	// WeChat Work bot
	WeChatBotURL string

	// Raw alert archive
	AlertStorePath string

	// Webhook shared secret, regenerated at every start (see secret.go)
	WebhookSecret string

	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		OKXBaseURL: envStr("OKX_BASE_URL", "https://www.okx.com"),
		APIKey:     envStr("API_KEY", ""),
		SecretKey:  envStr("SECRET_KEY", ""),
		Passphrase: envStr("PASSPHRASE", ""),

		UseProxy:   envInt("USE_PROXY", 0) == 1,
		HTTPProxy:  envStr("HTTP_PROXY", ""),
		HTTPSProxy: envStr("HTTPS_PROXY", ""),

		ListenHost: envStr("LISTEN_HOST", "127.0.0.1"),
		ListenPort: envInt("PORT", 5000),

		TradeType:     envStr("TRADE_TYPE", "spot"),
		BuyOrderType:  envStr("BUY_ORDER_TYPE", "market"),
		SellOrderType: envStr("SELL_ORDER_TYPE", "limit"),
		TradeSymbols:  splitSymbols(envStr("TRADE_SYMBOLS", "BTC/USDT")),

		UseDomain:  envStr("USE_DOMAIN", "false") == "true",
		DomainName: envStr("DOMAIN_NAME", ""),
		UseHTTPS:   envStr("USE_HTTPS", "false") == "true",

		WeChatBotURL: envStr("WECHAT_BOT_URL", ""),

		AlertStorePath: envStr("ALERT_STORE_PATH", "data/alerts.db"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func splitSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
