// Package risk gates signals through cooldown, candle-alignment, and
// open-position limits. Both entry points are pure: they take the
// current TradeState and return the transition, the polling loop
// applies it.
package risk

import (
	"time"

	"bracketbot/internal/state"
	"bracketbot/internal/strategy"
)

type Gate struct {
	Cooldown         time.Duration
	CandleInterval   time.Duration
	MaxOpenPositions int
}

// Decision is the gate's verdict for one tick.
type Decision struct {
	Proceed bool
	Side    strategy.Action
	Reason  string
}

func suppressed(reason string) Decision {
	return Decision{Reason: reason}
}

// Rearm re-evaluates the two unlock conditions against the clock and
// returns the updated state. CanTrade flips true only when, on the
// same tick, the cooldown has elapsed and a candle boundary was just
// crossed. The first call ever seeds the boundary without arming, so
// the bot never fires spuriously on startup.
func (g Gate) Rearm(now time.Time, st state.TradeState) state.TradeState {
	cooldownElapsed := st.LastTradeTime.IsZero() ||
		now.Sub(st.LastTradeTime) >= g.Cooldown

	if st.CurrentCandleEnd.IsZero() {
		st.CurrentCandleEnd = nextCandleEnd(now, g.CandleInterval)
		return st
	}

	newCandle := !now.Before(st.CurrentCandleEnd)
	if newCandle {
		st.CurrentCandleEnd = nextCandleEnd(now, g.CandleInterval)
	}

	if cooldownElapsed && newCandle {
		st.CanTrade = true
	}
	return st
}

// Evaluate decides whether the candidate signal may be acted on now.
// The position limit suppresses regardless of the armed state.
func (g Gate) Evaluate(st state.TradeState, candidate strategy.Signal) Decision {
	if candidate.Action == strategy.Hold {
		return suppressed("hold_signal")
	}
	if st.OpenPositions >= g.MaxOpenPositions {
		return suppressed("max_positions")
	}
	if !st.CanTrade {
		return suppressed("not_armed")
	}
	return Decision{Proceed: true, Side: candidate.Action, Reason: "armed"}
}

// nextCandleEnd returns the next instant aligned to the candle
// interval strictly after now.
func nextCandleEnd(now time.Time, interval time.Duration) time.Time {
	return now.UTC().Truncate(interval).Add(interval)
}
