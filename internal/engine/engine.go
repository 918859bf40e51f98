// Package engine drives the polling loop: one synchronous tick at a
// time, from market data through the trade gate to order submission.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"bracketbot/internal/broker"
	"bracketbot/internal/config"
	"bracketbot/internal/metrics"
	"bracketbot/internal/risk"
	"bracketbot/internal/state"
	"bracketbot/internal/strategy"
)

const shutdownTimeout = 30 * time.Second

type Engine struct {
	cfg       config.Config
	gateway   broker.Gateway
	gate      risk.Gate
	tracker   *state.Tracker
	crossover strategy.Crossover
	breakout  strategy.Breakout
	decisions *DecisionLogger
	log       zerolog.Logger
}

func New(cfg config.Config, gateway broker.Gateway, tracker *state.Tracker, decisions *DecisionLogger, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		gateway: gateway,
		gate: risk.Gate{
			Cooldown:         cfg.Cooldown,
			CandleInterval:   cfg.CandleInterval,
			MaxOpenPositions: cfg.MaxOpenPositions,
		},
		tracker:   tracker,
		crossover: strategy.NewCrossover(cfg.FastPeriod, cfg.SlowPeriod),
		breakout:  strategy.NewBreakout(cfg.BreakoutBuffer),
		decisions: decisions,
		log:       log,
	}
}

// Run polls until ctx is cancelled, then closes all positions and
// cancels resting orders for the symbol before returning.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().
		Str("mode", string(e.cfg.Mode)).
		Str("symbol", e.cfg.Symbol).
		Dur("tick_interval", e.cfg.TickInterval).
		Msg("polling loop started")

	for {
		open, err := e.gateway.IsMarketOpen(ctx)
		switch {
		case err != nil:
			e.log.Warn().Err(err).Msg("market clock unavailable")
			if err := waitForContext(ctx, e.cfg.MarketClosedInterval); err != nil {
				return e.shutdown()
			}
			continue
		case !open:
			e.log.Debug().Msg("market closed, waiting")
			if err := waitForContext(ctx, e.cfg.MarketClosedInterval); err != nil {
				return e.shutdown()
			}
			continue
		}

		e.Tick(ctx, time.Now().UTC())

		if err := waitForContext(ctx, e.cfg.TickInterval); err != nil {
			return e.shutdown()
		}
	}
}

// Tick runs one full decision cycle at the given instant. A failure
// anywhere before submission skips the tick without mutating gate
// state, so the next tick starts clean.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	metrics.TicksTotal.WithLabelValues(e.cfg.Symbol).Inc()

	count, err := e.gateway.GetOpenPositionCount(ctx, e.cfg.Symbol)
	if err != nil {
		e.skip(err, "position count unavailable")
		return
	}
	e.tracker.SetOpenPositions(count)

	before := e.tracker.Snapshot()
	st := e.gate.Rearm(now, before)
	if st.CanTrade && !before.CanTrade {
		e.log.Info().Time("candle_end", st.CurrentCandleEnd).Msg("trade gate re-armed")
	}
	e.tracker.Set(st)

	signal, refPrice, err := e.computeSignal(ctx, now)
	if err != nil {
		e.skip(err, "no signal this tick")
		return
	}
	metrics.SignalsTotal.WithLabelValues(e.cfg.Symbol, string(signal.Action)).Inc()

	decision := Decision{
		Timestamp:    now,
		Mode:         e.cfg.Mode,
		Symbol:       e.cfg.Symbol,
		Price:        signal.Price,
		Signal:       signal.Action,
		SignalReason: signal.Reason,
	}
	if e.decisions != nil {
		decision.RunID = e.decisions.RunID()
	}

	verdict := e.gate.Evaluate(st, signal)
	if !verdict.Proceed {
		metrics.SuppressedTotal.WithLabelValues(e.cfg.Symbol, verdict.Reason).Inc()
		decision.Result = "suppressed"
		decision.SuppressReason = verdict.Reason
		e.record(decision)
		e.log.Debug().
			Str("signal", string(signal.Action)).
			Str("reason", verdict.Reason).
			Msg("signal suppressed")
		return
	}

	intent := e.buildIntent(verdict.Side, refPrice)
	orderID, err := e.gateway.SubmitBracketOrder(ctx, intent)
	if err != nil {
		e.tracker.OnSubmissionFailure(err)
		metrics.OrdersFailed.WithLabelValues(e.cfg.Symbol, string(verdict.Side)).Inc()
		decision.Result = "order_failed"
		decision.Error = err.Error()
		e.record(decision)
		e.log.Error().Err(err).Str("side", string(verdict.Side)).Msg("order submission failed")
		return
	}

	e.tracker.OnSubmissionSuccess(now)
	metrics.OrdersSubmitted.WithLabelValues(e.cfg.Symbol, string(verdict.Side)).Inc()
	decision.Result = "order_submitted"
	decision.OrderID = orderID
	e.record(decision)
	e.log.Info().
		Str("order_id", orderID).
		Str("side", string(verdict.Side)).
		Int("qty", intent.Qty).
		Float64("ref_price", intent.ReferencePrice).
		Msg("trade executed")
}

// computeSignal fetches whatever the active mode needs and evaluates
// it. The returned reference price is the one orders are built from.
func (e *Engine) computeSignal(ctx context.Context, now time.Time) (strategy.Signal, float64, error) {
	switch e.cfg.Mode {
	case strategy.ModeDaily:
		window, err := e.gateway.GetPriceWindow(ctx, e.cfg.Symbol, 24*time.Hour, e.cfg.SlowPeriod)
		if err != nil {
			return strategy.Signal{}, 0, err
		}
		signal, err := e.crossover.Evaluate(window)
		if err != nil {
			return strategy.Signal{}, 0, err
		}
		quote, err := e.gateway.GetLatestQuote(ctx, e.cfg.Symbol)
		if err != nil {
			return strategy.Signal{}, 0, err
		}
		return signal, quote.BidPrice, nil

	case strategy.ModeIntraday:
		prev, err := e.gateway.GetPreviousClosedCandle(ctx, e.cfg.Symbol, e.cfg.CandleInterval)
		if err != nil {
			return strategy.Signal{}, 0, err
		}
		quote, err := e.gateway.GetLatestQuote(ctx, e.cfg.Symbol)
		if err != nil {
			return strategy.Signal{}, 0, err
		}
		signal, err := e.breakout.Evaluate(quote.BidPrice, prev, now)
		if err != nil {
			return strategy.Signal{}, 0, err
		}
		return signal, quote.BidPrice, nil
	}
	return strategy.Signal{}, 0, errors.New("unknown strategy mode")
}

// buildIntent prices the bracket legs around the reference price,
// offset against the entry side.
func (e *Engine) buildIntent(side strategy.Action, refPrice float64) broker.OrderIntent {
	stopLoss := refPrice * (1 - e.cfg.StopLossPct)
	takeProfit := refPrice * (1 + e.cfg.TakeProfitPct)
	if side == strategy.Sell {
		stopLoss = refPrice * (1 + e.cfg.StopLossPct)
		takeProfit = refPrice * (1 - e.cfg.TakeProfitPct)
	}
	return broker.OrderIntent{
		Symbol:          e.cfg.Symbol,
		Side:            side,
		Qty:             e.cfg.Quantity,
		ReferencePrice:  refPrice,
		StopLossPrice:   stopLoss,
		TakeProfitPrice: takeProfit,
	}
}

func (e *Engine) skip(err error, msg string) {
	metrics.SkippedTicks.WithLabelValues(e.cfg.Symbol).Inc()
	e.log.Warn().Err(err).Msg(msg)
}

func (e *Engine) record(decision Decision) {
	if e.decisions != nil {
		e.decisions.Append(decision)
	}
}

func (e *Engine) shutdown() error {
	e.log.Info().Msg("shutting down, flattening positions")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.gateway.CloseAllPositionsAndCancelOrders(ctx, e.cfg.Symbol); err != nil {
		e.log.Error().Err(err).Msg("failed to close positions on shutdown")
		return err
	}
	return nil
}

// waitForContext sleeps for the delay unless the context is cancelled
// first, in which case it returns the context error immediately.
func waitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
