// Package metrics exposes prometheus counters for the polling loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_ticks_total", Help: "Polling loop iterations"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_signals_total", Help: "Signals computed by action"},
		[]string{"symbol", "action"},
	)
	SuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_decisions_suppressed_total", Help: "Signals suppressed by the trade gate"},
		[]string{"symbol", "reason"},
	)
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_orders_submitted_total", Help: "Bracket orders accepted by the broker"},
		[]string{"symbol", "side"},
	)
	OrdersFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_orders_failed_total", Help: "Bracket order submissions rejected or errored"},
		[]string{"symbol", "side"},
	)
	SkippedTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_ticks_skipped_total", Help: "Ticks skipped because data was unavailable"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, SignalsTotal, SuppressedTotal, OrdersSubmitted, OrdersFailed, SkippedTicks)
}

// Serve starts the metrics endpoint in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
