package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret(32)
	require.NoError(t, err)
	require.Len(t, a, 32)

	for _, r := range a {
		assert.Contains(t, secretAlphabet, string(r))
	}

	b, err := GenerateSecret(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPersistSecretCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, PersistSecret(path, "s3cret"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "WEBHOOK_SECRET=s3cret\n", string(data))
}

func TestPersistSecretPreservesOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	initial := "API_KEY=abc\nWEBHOOK_SECRET=old\nTRADE_TYPE=spot\n"
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o600))

	require.NoError(t, PersistSecret(path, "new"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, []string{"API_KEY=abc", "WEBHOOK_SECRET=new", "TRADE_TYPE=spot"}, lines)
}

func TestPersistSecretAppendsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_KEY=abc\n"), 0o600))

	require.NoError(t, PersistSecret(path, "fresh"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "API_KEY=abc\nWEBHOOK_SECRET=fresh\n", string(data))
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"BTC/USDT"}, splitSymbols("BTC/USDT"))
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, splitSymbols("BTC/USDT, ETH/USDT"))
	assert.Equal(t, []string{"BTC/USDT"}, splitSymbols("BTC/USDT,,"))
}
