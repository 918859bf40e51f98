package broker

import (
	"context"
	"fmt"
	"time"

	"bracketbot/internal/market"
	"bracketbot/internal/strategy"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Alpaca implements Gateway over the Alpaca trading and market data
// REST APIs.
type Alpaca struct {
	trading *alpaca.Client
	data    *marketdata.Client
	log     zerolog.Logger
}

func NewAlpaca(apiKey, apiSecret, baseURL string, log zerolog.Logger) *Alpaca {
	return &Alpaca{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		log: log,
	}
}

func (a *Alpaca) GetPriceWindow(ctx context.Context, symbol string, interval time.Duration, minBars int) (market.Window, error) {
	now := time.Now().UTC()
	timeframe, lookback := timeframeFor(interval, minBars)
	bars, err := a.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: timeframe,
		Start:     now.Add(-lookback),
	})
	if err != nil {
		a.log.Error().Err(err).Str("symbol", symbol).Msg("fetch bars failed")
		return nil, fmt.Errorf("get bars: %w", err)
	}
	window := make(market.Window, 0, len(bars))
	for _, bar := range bars {
		window = append(window, market.Bar{
			Timestamp: bar.Timestamp.UTC(),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    float64(bar.Volume),
		})
	}
	if len(window) > minBars {
		window = window[len(window)-minBars:]
	}
	return window, nil
}

func (a *Alpaca) GetPreviousClosedCandle(ctx context.Context, symbol string, interval time.Duration) (market.CandleRange, error) {
	now := time.Now().UTC()
	minutes := int(interval.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	bars, err := a.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.NewTimeFrame(minutes, marketdata.Min),
		Start:     now.Add(-4 * interval),
	})
	if err != nil {
		a.log.Error().Err(err).Str("symbol", symbol).Msg("fetch candles failed")
		return market.CandleRange{}, fmt.Errorf("get candles: %w", err)
	}
	if len(bars) < 2 {
		return market.CandleRange{}, fmt.Errorf("need 2 candles, got %d", len(bars))
	}
	// The last bar may still be forming; the one before it is closed.
	prev := bars[len(bars)-2]
	return market.CandleRange{High: prev.High, Low: prev.Low}, nil
}

func (a *Alpaca) GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error) {
	quote, err := a.data.GetLatestQuote(symbol, marketdata.GetLatestQuoteRequest{})
	if err != nil {
		a.log.Error().Err(err).Str("symbol", symbol).Msg("fetch quote failed")
		return market.Quote{}, fmt.Errorf("get latest quote: %w", err)
	}
	return market.Quote{
		BidPrice:  quote.BidPrice,
		AskPrice:  quote.AskPrice,
		Timestamp: quote.Timestamp.UTC(),
	}, nil
}

func (a *Alpaca) GetOpenPositionCount(ctx context.Context, symbol string) (int, error) {
	positions, err := a.trading.GetPositions()
	if err != nil {
		a.log.Error().Err(err).Msg("fetch positions failed")
		return 0, fmt.Errorf("get positions: %w", err)
	}
	count := 0
	for _, pos := range positions {
		if pos.Symbol == symbol {
			count++
		}
	}
	return count, nil
}

func (a *Alpaca) SubmitBracketOrder(ctx context.Context, intent OrderIntent) (string, error) {
	qty := decimal.NewFromInt(int64(intent.Qty))
	stopPrice := decimal.NewFromFloat(intent.StopLossPrice).Round(2)
	limitPrice := decimal.NewFromFloat(intent.TakeProfitPrice).Round(2)

	side := alpaca.Buy
	if intent.Side == strategy.Sell {
		side = alpaca.Sell
	}

	order, err := a.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        intent.Symbol,
		Qty:           &qty,
		Side:          side,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		OrderClass:    alpaca.Bracket,
		TakeProfit:    &alpaca.TakeProfit{LimitPrice: &limitPrice},
		StopLoss:      &alpaca.StopLoss{StopPrice: &stopPrice},
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		a.log.Error().Err(err).
			Str("symbol", intent.Symbol).
			Str("side", string(intent.Side)).
			Int("qty", intent.Qty).
			Msg("place bracket order failed")
		return "", fmt.Errorf("place order: %w", err)
	}

	a.log.Info().
		Str("order_id", order.ID).
		Str("symbol", intent.Symbol).
		Str("side", string(intent.Side)).
		Int("qty", intent.Qty).
		Float64("ref_price", intent.ReferencePrice).
		Float64("stop_loss", intent.StopLossPrice).
		Float64("take_profit", intent.TakeProfitPrice).
		Msg("bracket order placed")
	return order.ID, nil
}

func (a *Alpaca) CloseAllPositionsAndCancelOrders(ctx context.Context, symbol string) error {
	if _, err := a.trading.CloseAllPositions(alpaca.CloseAllPositionsRequest{CancelOrders: true}); err != nil {
		a.log.Error().Err(err).Msg("close all positions failed")
		return fmt.Errorf("close all positions: %w", err)
	}
	a.log.Info().Str("symbol", symbol).Msg("closed all positions and cancelled orders")
	return nil
}

func (a *Alpaca) IsMarketOpen(ctx context.Context) (bool, error) {
	clock, err := a.trading.GetClock()
	if err != nil {
		return false, fmt.Errorf("get clock: %w", err)
	}
	return clock.IsOpen, nil
}

// timeframeFor maps a bar interval to an Alpaca timeframe and a
// lookback long enough to cover minBars bars across market closures.
func timeframeFor(interval time.Duration, minBars int) (marketdata.TimeFrame, time.Duration) {
	if interval >= 24*time.Hour {
		// Calendar days roughly double trading days.
		return marketdata.OneDay, time.Duration(minBars*2) * 24 * time.Hour
	}
	minutes := int(interval.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return marketdata.NewTimeFrame(minutes, marketdata.Min), time.Duration(3*minBars) * interval
}
