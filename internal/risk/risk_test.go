package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bracketbot/internal/state"
	"bracketbot/internal/strategy"
)

func testGate() Gate {
	return Gate{
		Cooldown:         300 * time.Second,
		CandleInterval:   15 * time.Minute,
		MaxOpenPositions: 3,
	}
}

func buySignal() strategy.Signal {
	return strategy.Signal{Action: strategy.Buy, Price: 100, Reason: "test"}
}

func TestRearmSeedsBoundaryWithoutArming(t *testing.T) {
	gate := testGate()
	now := time.Date(2026, 1, 5, 14, 37, 12, 0, time.UTC)

	st := gate.Rearm(now, state.TradeState{})

	assert.False(t, st.CanTrade, "first tick must not arm")
	assert.Equal(t, time.Date(2026, 1, 5, 14, 45, 0, 0, time.UTC), st.CurrentCandleEnd)
}

func TestRearmRequiresBothConditions(t *testing.T) {
	gate := testGate()
	boundary := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)

	// Candle crossed but cooldown still running.
	st := gate.Rearm(boundary.Add(time.Second), state.TradeState{
		LastTradeTime:    boundary.Add(-200 * time.Second),
		CurrentCandleEnd: boundary,
	})
	assert.False(t, st.CanTrade)
	assert.Equal(t, boundary.Add(15*time.Minute), st.CurrentCandleEnd, "boundary advances regardless")

	// Cooldown elapsed but same candle.
	st = gate.Rearm(boundary.Add(-time.Minute), state.TradeState{
		LastTradeTime:    boundary.Add(-20 * time.Minute),
		CurrentCandleEnd: boundary,
	})
	assert.False(t, st.CanTrade)

	// Both conditions on the same tick.
	st = gate.Rearm(boundary.Add(time.Second), state.TradeState{
		LastTradeTime:    boundary.Add(-20 * time.Minute),
		CurrentCandleEnd: boundary,
	})
	assert.True(t, st.CanTrade)
}

func TestCooldownBoundary(t *testing.T) {
	gate := testGate()
	t0 := time.Date(2026, 1, 5, 14, 58, 0, 0, time.UTC)
	boundary := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)

	// t0+299s: candle boundary crossed, cooldown one second short.
	st := gate.Rearm(t0.Add(299*time.Second), state.TradeState{
		LastTradeTime:    t0,
		CurrentCandleEnd: boundary,
	})
	verdict := gate.Evaluate(st, buySignal())
	assert.False(t, verdict.Proceed)
	assert.Equal(t, "not_armed", verdict.Reason)

	// t0+301s with a crossed boundary: permitted.
	st = gate.Rearm(t0.Add(301*time.Second), state.TradeState{
		LastTradeTime:    t0,
		CurrentCandleEnd: boundary,
	})
	verdict = gate.Evaluate(st, buySignal())
	assert.True(t, verdict.Proceed)
	assert.Equal(t, strategy.Buy, verdict.Side)
}

func TestFirstTradeNeedsNoCooldown(t *testing.T) {
	gate := testGate()
	boundary := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)

	st := gate.Rearm(boundary, state.TradeState{CurrentCandleEnd: boundary})
	assert.True(t, st.CanTrade, "empty last trade time counts as elapsed cooldown")
}

func TestPositionLimitSuppressesRegardlessOfArming(t *testing.T) {
	gate := testGate()
	st := state.TradeState{CanTrade: true, OpenPositions: 3}

	verdict := gate.Evaluate(st, buySignal())
	assert.False(t, verdict.Proceed)
	assert.Equal(t, "max_positions", verdict.Reason)
}

func TestHoldNeverProceeds(t *testing.T) {
	gate := testGate()
	st := state.TradeState{CanTrade: true}

	verdict := gate.Evaluate(st, strategy.Signal{Action: strategy.Hold})
	assert.False(t, verdict.Proceed)
	assert.Equal(t, "hold_signal", verdict.Reason)
}

func TestNoDoubleProceedWithoutReset(t *testing.T) {
	gate := testGate()
	tracker := state.NewTracker()
	boundary := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)
	now := boundary.Add(time.Second)

	tracker.Set(state.TradeState{CurrentCandleEnd: boundary})
	st := gate.Rearm(now, tracker.Snapshot())
	tracker.Set(st)

	verdict := gate.Evaluate(tracker.Snapshot(), buySignal())
	require.True(t, verdict.Proceed)
	tracker.OnSubmissionSuccess(now)

	// Same conditions immediately after: disarmed until cooldown and
	// a fresh candle both pass again.
	st = gate.Rearm(now.Add(time.Second), tracker.Snapshot())
	tracker.Set(st)
	verdict = gate.Evaluate(tracker.Snapshot(), buySignal())
	assert.False(t, verdict.Proceed)
	assert.Equal(t, "not_armed", verdict.Reason)
}

func TestFailedSubmissionKeepsGateArmed(t *testing.T) {
	gate := testGate()
	tracker := state.NewTracker()
	boundary := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)
	now := boundary.Add(time.Second)

	tracker.Set(state.TradeState{CurrentCandleEnd: boundary})
	tracker.Set(gate.Rearm(now, tracker.Snapshot()))

	verdict := gate.Evaluate(tracker.Snapshot(), buySignal())
	require.True(t, verdict.Proceed)
	tracker.OnSubmissionFailure(assert.AnError)

	// Next tick, unchanged conditions: the same decision is re-offered.
	next := now.Add(30 * time.Second)
	tracker.Set(gate.Rearm(next, tracker.Snapshot()))
	verdict = gate.Evaluate(tracker.Snapshot(), buySignal())
	assert.True(t, verdict.Proceed)
	assert.True(t, tracker.Snapshot().LastTradeTime.IsZero(), "failure must not stamp a trade time")
}
