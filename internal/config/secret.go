package config

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"
)

const secretAlphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"!#$%&()*+,-./:;<=>?@[]^_{|}~"

// GenerateSecret returns a random webhook secret of the given length.
// A fresh secret is generated at every process start so a leaked
// TradingView alert template stops working after a restart.
func GenerateSecret(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(secretAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(secretAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// PersistSecret writes WEBHOOK_SECRET=<secret> into the .env file at path,
// replacing an existing entry and preserving all other lines. The file is
// created when missing.
func PersistSecret(path, secret string) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	entry := "WEBHOOK_SECRET=" + secret
	found := false
	for i, line := range lines {
		if strings.HasPrefix(line, "WEBHOOK_SECRET=") {
			lines[i] = entry
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, entry)
	}

	out := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
