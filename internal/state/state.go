// Package state tracks the trade gate's lifecycle between ticks.
// State lives in memory only: a restart deliberately forgets cooldown
// history and relies on the position count refresh at the top of each
// tick as the guard against over-trading.
package state

import (
	"sync"
	"time"
)

// TradeState is the gate's view of the world. Zero value is the
// startup state: no trade yet, no candle boundary established,
// trading disarmed until the first boundary crossing.
type TradeState struct {
	LastTradeTime    time.Time
	CurrentCandleEnd time.Time
	CanTrade         bool
	OpenPositions    int
}

// Tracker owns the single mutable TradeState instance. The polling
// loop is its only writer; the mutex guards against future readers
// such as a metrics or status endpoint.
type Tracker struct {
	mu      sync.RWMutex
	state   TradeState
	lastErr error
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Snapshot() TradeState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Set replaces the tracked state with the result of a gate transition.
func (t *Tracker) Set(state TradeState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// SetOpenPositions caches the gateway's position count for this tick.
func (t *Tracker) SetOpenPositions(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 0 {
		n = 0
	}
	t.state.OpenPositions = n
}

// OnSubmissionSuccess stamps the trade time and disarms the gate,
// atomically with respect to any concurrent reader.
func (t *Tracker) OnSubmissionSuccess(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.LastTradeTime = now
	t.state.CanTrade = false
	t.lastErr = nil
}

// OnSubmissionFailure records the error for inspection and leaves the
// gate state untouched: a failed submission carries no cooldown
// penalty and the same decision is re-offered next eligible tick.
func (t *Tracker) OnSubmissionFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastErr = err
}

func (t *Tracker) LastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}
