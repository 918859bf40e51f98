// Package market defines the price data values exchanged between the
// gateway, the signal engine, and the polling loop.
package market

import "time"

// Bar is a fixed-interval price aggregate. Immutable once produced.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Quote is the latest top-of-book snapshot for a symbol.
type Quote struct {
	BidPrice  float64
	AskPrice  float64
	Timestamp time.Time
}

// CandleRange is the high/low of the last fully closed candle, used by
// the breakout strategy. The forming candle must never be used here.
type CandleRange struct {
	High float64
	Low  float64
}

// Window is a time-ordered sequence of bars, oldest first.
type Window []Bar

func (w Window) Len() int { return len(w) }

// Closes returns the closing prices in window order.
func (w Window) Closes() []float64 {
	closes := make([]float64, len(w))
	for i, bar := range w {
		closes[i] = bar.Close
	}
	return closes
}

// Latest returns the most recent bar and false when the window is empty.
func (w Window) Latest() (Bar, bool) {
	if len(w) == 0 {
		return Bar{}, false
	}
	return w[len(w)-1], true
}
