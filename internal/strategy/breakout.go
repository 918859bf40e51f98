package strategy

import (
	"time"

	"bracketbot/internal/market"
)

// Breakout is the intraday strategy: enter long when price clears the
// previous closed candle's high by a buffer, short when it breaks the
// low by the same buffer. Both comparisons are strict.
type Breakout struct {
	Buffer float64
}

func NewBreakout(buffer float64) Breakout {
	return Breakout{Buffer: buffer}
}

// Evaluate compares the current price against the previous fully
// closed candle's range. Returns ErrInsufficientData when the range
// is empty or inverted.
func (b Breakout) Evaluate(price float64, prev market.CandleRange, now time.Time) (Signal, error) {
	if prev.High <= 0 || prev.Low <= 0 || prev.High < prev.Low {
		return Signal{}, ErrInsufficientData
	}
	if price > prev.High*(1+b.Buffer) {
		return Signal{Action: Buy, Price: price, Time: now, Reason: "breakout_above_high"}, nil
	}
	if price < prev.Low*(1-b.Buffer) {
		return Signal{Action: Sell, Price: price, Time: now, Reason: "breakdown_below_low"}, nil
	}
	return Signal{Action: Hold, Price: price, Time: now, Reason: "inside_range"}, nil
}
