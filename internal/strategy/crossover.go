package strategy

import "bracketbot/internal/market"

// Crossover is the daily SMA crossover strategy: enter on a fast-MA
// upcross confirmed by the fast MA sitting above the slow MA, exit on
// a fast-MA downcross or a trend-regime flip.
type Crossover struct {
	FastPeriod int
	SlowPeriod int
}

func NewCrossover(fast, slow int) Crossover {
	return Crossover{FastPeriod: fast, SlowPeriod: slow}
}

// Evaluate computes the signal from the latest bar of the window.
// Returns ErrInsufficientData when the window is shorter than the
// slow period.
func (c Crossover) Evaluate(window market.Window) (Signal, error) {
	closes := window.Closes()
	n := len(closes)
	if n < c.SlowPeriod {
		return Signal{}, ErrInsufficientData
	}

	latest := window[n-1]
	smaFast, ok := trailingSMA(closes, n-1, c.FastPeriod)
	if !ok {
		return Signal{}, ErrInsufficientData
	}
	smaSlow, ok := trailingSMA(closes, n-1, c.SlowPeriod)
	if !ok {
		return Signal{}, ErrInsufficientData
	}
	prevSmaFast, ok := trailingSMA(closes, n-2, c.FastPeriod)
	if !ok {
		return Signal{}, ErrInsufficientData
	}
	prevClose := closes[n-2]

	upcross := latest.Close > smaFast && prevClose <= prevSmaFast
	downcross := latest.Close < smaFast && prevClose >= prevSmaFast

	// BUY wins when both conditions hold on the same bar.
	if upcross && smaFast > smaSlow {
		return Signal{
			Action: Buy,
			Price:  latest.Close,
			Time:   latest.Timestamp,
			Reason: "fast_upcross_in_uptrend",
		}, nil
	}
	if downcross || smaFast < smaSlow {
		reason := "fast_downcross"
		if smaFast < smaSlow {
			reason = "trend_flip"
		}
		return Signal{
			Action: Sell,
			Price:  latest.Close,
			Time:   latest.Timestamp,
			Reason: reason,
		}, nil
	}
	return Signal{
		Action: Hold,
		Price:  latest.Close,
		Time:   latest.Timestamp,
		Reason: "no_cross",
	}, nil
}
