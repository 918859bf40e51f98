package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"bracketbot/internal/broker"
	"bracketbot/internal/config"
	"bracketbot/internal/engine"
	"bracketbot/internal/metrics"
	"bracketbot/internal/state"
	"bracketbot/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := util.NewLogger(cfg.LogLevel)

	runID := uuid.NewString()
	decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, runID)
	if err != nil {
		logger.Fatal().Err(err).Msg("decision logger")
	}
	defer func() {
		if err := decisions.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close decision logger")
		}
	}()

	_ = metrics.Serve(cfg.MetricsAddr)
	logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics up")

	gateway := broker.NewAlpaca(cfg.APIKey, cfg.APISecret, cfg.BaseURL, logger)
	tracker := state.NewTracker()
	bot := engine.New(cfg, gateway, tracker, decisions, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info().
		Str("run_id", runID).
		Str("mode", string(cfg.Mode)).
		Str("symbol", cfg.Symbol).
		Msg("starting bot")

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("bot stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("bot shutdown complete")
}
