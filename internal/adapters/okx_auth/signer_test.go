package okx_auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRequestSetsHeaders(t *testing.T) {
	s := NewSigner("key-1", "topsecret", "phrase")
	require.True(t, s.Enabled())

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	body := []byte(`{"instId":"BTC-USDT"}`)
	req, err := http.NewRequest(http.MethodPost, "https://www.okx.com/api/v5/trade/order", strings.NewReader(string(body)))
	require.NoError(t, err)
	require.NoError(t, s.SignRequest(req, body))

	assert.Equal(t, "key-1", req.Header.Get("OK-ACCESS-KEY"))
	assert.Equal(t, "phrase", req.Header.Get("OK-ACCESS-PASSPHRASE"))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", req.Header.Get("OK-ACCESS-TIMESTAMP"))

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write([]byte("2024-01-01T00:00:00.000ZPOST/api/v5/trade/order"))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, req.Header.Get("OK-ACCESS-SIGN"))
}

func TestSignRequestIncludesQueryString(t *testing.T) {
	s := NewSigner("k", "sec", "p")
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	req, err := http.NewRequest(http.MethodGet, "https://www.okx.com/api/v5/account/balance?ccy=BTC", nil)
	require.NoError(t, err)
	require.NoError(t, s.SignRequest(req, nil))

	mac := hmac.New(sha256.New, []byte("sec"))
	mac.Write([]byte("2024-01-01T00:00:00.000ZGET/api/v5/account/balance?ccy=BTC"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, req.Header.Get("OK-ACCESS-SIGN"))
}

func TestNilSignerIsSafe(t *testing.T) {
	var s *Signer
	assert.False(t, s.Enabled())

	req, err := http.NewRequest(http.MethodGet, "https://www.okx.com/api/v5/public/time", nil)
	require.NoError(t, err)
	require.NoError(t, s.SignRequest(req, nil))
	assert.Empty(t, req.Header.Get("OK-ACCESS-KEY"))
}

func TestNewSignerRequiresCredentials(t *testing.T) {
	assert.Nil(t, NewSigner("", "secret", "p"))
	assert.Nil(t, NewSigner("key", "", "p"))
	assert.NotNil(t, NewSigner("key", "secret", ""))
}
