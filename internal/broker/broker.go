// Package broker defines the market gateway boundary and its Alpaca
// implementation. Everything the bot knows about the outside world
// goes through the Gateway interface.
package broker

import (
	"context"
	"time"

	"bracketbot/internal/market"
	"bracketbot/internal/strategy"
)

// OrderIntent is a fully priced bracket order request. Computed once
// per accepted decision and passed by value; never retained after
// submission.
type OrderIntent struct {
	Symbol          string
	Side            strategy.Action
	Qty             int
	ReferencePrice  float64
	StopLossPrice   float64
	TakeProfitPrice float64
}

// Gateway is the brokerage boundary. Implementations own their
// timeouts; no call may block indefinitely.
type Gateway interface {
	GetPriceWindow(ctx context.Context, symbol string, interval time.Duration, minBars int) (market.Window, error)
	GetPreviousClosedCandle(ctx context.Context, symbol string, interval time.Duration) (market.CandleRange, error)
	GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error)
	GetOpenPositionCount(ctx context.Context, symbol string) (int, error)
	SubmitBracketOrder(ctx context.Context, intent OrderIntent) (string, error)
	CloseAllPositionsAndCancelOrders(ctx context.Context, symbol string) error
	IsMarketOpen(ctx context.Context) (bool, error)
}
