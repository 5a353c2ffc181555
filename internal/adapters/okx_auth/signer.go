package okx_auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"
)

// timestampFormat is the ISO-8601 millisecond format OKX v5 expects in
// OK-ACCESS-TIMESTAMP.
const timestampFormat = "2006-01-02T15:04:05.000Z"

// Signer implements OKX v5 API request signing: the OK-ACCESS-SIGN header
// carries base64(HMAC-SHA256(timestamp + method + requestPath + body))
// keyed with the API secret.
type Signer struct {
	apiKey     string
	secretKey  []byte
	passphrase string
	now        func() time.Time
}

// NewSigner returns a Signer for the given credentials. Returns nil when
// apiKey or secretKey is empty, allowing callers to run unauthenticated
// (every method is nil-safe).
func NewSigner(apiKey, secretKey, passphrase string) *Signer {
	if apiKey == "" || secretKey == "" {
		return nil
	}
	return &Signer{
		apiKey:     apiKey,
		secretKey:  []byte(secretKey),
		passphrase: passphrase,
		now:        time.Now,
	}
}

// SignRequest sets the OK-ACCESS-* headers on req. body must be the exact
// bytes of the request body (nil for GET). No-op when s is nil.
func (s *Signer) SignRequest(req *http.Request, body []byte) error {
	if s == nil {
		return nil
	}

	path := req.URL.Path
	if req.URL.RawQuery != "" {
		path += "?" + req.URL.RawQuery
	}

	ts, sig := s.sign(req.Method, path, body)

	req.Header.Set("OK-ACCESS-KEY", s.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", sig)
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", s.passphrase)
	return nil
}

// Enabled reports whether this signer has credentials loaded.
func (s *Signer) Enabled() bool {
	return s != nil && s.apiKey != ""
}

func (s *Signer) sign(method, path string, body []byte) (timestamp, signature string) {
	ts := s.now().UTC().Format(timestampFormat)

	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(ts))
	mac.Write([]byte(method))
	mac.Write([]byte(path))
	mac.Write(body)

	return ts, base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
