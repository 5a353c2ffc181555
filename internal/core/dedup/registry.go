// Package dedup holds the per-symbol signal execution registry.
//
// TradingView re-delivers alerts on network hiccups, so every signal
// carries an opaque time token and each (symbol, token) pair may execute
// at most once for the life of the process. The check-and-record step is
// a single operation under one lock — two concurrent deliveries of the
// same alert cannot both win.
package dedup

import (
	"sync"
	"time"

	"github.com/dlisin/okxbridge/internal/telemetry"
)

// ExecTimeFormat is the wall-clock format recorded against an executed
// signal and echoed back in "ignored" responses.
const ExecTimeFormat = "2006-01-02 15:04:05"

// tokenTimeFormat is the TradingView {{time}} placeholder format. Pruning
// only understands tokens in this shape; anything else is left alone.
const tokenTimeFormat = "2006-01-02T15:04:05Z"

// SymbolState tracks everything remembered about one trading pair.
type SymbolState struct {
	LastAlert      []byte // raw payload of the most recent novel alert
	LastReceivedAt time.Time
	executed       map[string]string // signal time token -> execution time
}

// Registry maps symbol -> SymbolState. All access goes through the
// registry lock; states are created lazily on first alert.
type Registry struct {
	mu      sync.Mutex
	symbols map[string]*SymbolState
}

func NewRegistry() *Registry {
	return &Registry{symbols: make(map[string]*SymbolState)}
}

// MarkExecuted records token as executed for symbol, unless it already
// was. Returns (previousExecutionTime, true) for a duplicate, in which
// case nothing is modified. For a novel token it stores the execution
// time, updates the last-alert snapshot, and returns ("", false).
//
// The record is written before any order is attempted; a signal whose
// order later fails stays consumed so a re-delivered alert can never
// place a second order.
func (r *Registry) MarkExecuted(symbol, token string, now time.Time, rawAlert []byte) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.symbols[symbol]
	if !ok {
		st = &SymbolState{executed: make(map[string]string)}
		r.symbols[symbol] = st
		telemetry.Metrics.TrackedSymbols.Set(int64(len(r.symbols)))
	}

	if prev, seen := st.executed[token]; seen {
		return prev, true
	}

	st.executed[token] = now.Format(ExecTimeFormat)
	st.LastAlert = rawAlert
	st.LastReceivedAt = now
	return "", false
}

// LastAlert returns the most recent novel alert payload for symbol.
func (r *Registry) LastAlert(symbol string) ([]byte, time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.symbols[symbol]
	if !ok || st.LastAlert == nil {
		return nil, time.Time{}, false
	}
	return st.LastAlert, st.LastReceivedAt, true
}

// ExecutedCount returns the number of recorded tokens for symbol.
func (r *Registry) ExecutedCount(symbol string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.symbols[symbol]; ok {
		return len(st.executed)
	}
	return 0
}

// Prune drops executed entries whose token parses as a TradingView
// timestamp older than maxAge. Tokens in any other format are skipped:
// they still dedup, they just never age out. Returns the number removed.
func (r *Registry) Prune(maxAge time.Duration, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-maxAge)
	removed := 0
	for symbol, st := range r.symbols {
		for token := range st.executed {
			ts, err := time.Parse(tokenTimeFormat, token)
			if err != nil {
				telemetry.Debugf("dedup: unparseable token %q for %s, skipping prune", token, symbol)
				continue
			}
			if ts.Before(cutoff) {
				delete(st.executed, token)
				removed++
			}
		}
	}
	return removed
}
