// Package strategy computes directional signals from price history.
// Both strategies are pure: same inputs, same signal, no clock access.
package strategy

import (
	"errors"
	"time"
)

type Action string

const (
	Hold Action = "HOLD"
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Mode selects which signal computation the engine runs.
type Mode string

const (
	// ModeDaily is the SMA crossover strategy on daily bars.
	ModeDaily Mode = "daily"
	// ModeIntraday is the previous-candle breakout strategy.
	ModeIntraday Mode = "intraday"
)

// ErrInsufficientData means the price window is too short for the
// configured periods. Callers must not place orders on this error.
var ErrInsufficientData = errors.New("insufficient price history")

// Signal is the outcome of one evaluation, tied to the price and
// time it was computed from.
type Signal struct {
	Action Action
	Price  float64
	Time   time.Time
	Reason string
}
