package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nholik/container-sentinel/internal/healthcheck"
	"github.com/nholik/container-sentinel/internal/metrics"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Options selects which endpoints are served and where.
// A zero port disables that listener.
type Options struct {
	HealthPort   int
	MetricsPort  int
	PollInterval time.Duration
}

// Start binds the health and metrics listeners and serves them until ctx is
// done. Listeners are bound before Start returns so a taken port is a
// startup error. Health and metrics share a listener when the ports match.
func Start(ctx context.Context, logger zerolog.Logger, opts Options, tracker *healthcheck.Tracker, metricsCollector *metrics.Metrics) ([]net.Addr, error) {
	if opts.HealthPort == 0 && opts.MetricsPort == 0 {
		return nil, nil
	}

	type listener struct {
		label   string
		port    int
		handler http.Handler
	}
	var listeners []listener

	if opts.HealthPort > 0 && opts.HealthPort == opts.MetricsPort {
		mux := http.NewServeMux()
		registerHealthRoutes(mux, tracker, opts.PollInterval)
		registerMetricsRoute(mux, metricsCollector)
		listeners = append(listeners, listener{label: "health/metrics", port: opts.HealthPort, handler: mux})
	} else {
		if opts.HealthPort > 0 {
			mux := http.NewServeMux()
			registerHealthRoutes(mux, tracker, opts.PollInterval)
			listeners = append(listeners, listener{label: "health", port: opts.HealthPort, handler: mux})
		}
		if opts.MetricsPort > 0 {
			mux := http.NewServeMux()
			registerMetricsRoute(mux, metricsCollector)
			listeners = append(listeners, listener{label: "metrics", port: opts.MetricsPort, handler: mux})
		}
	}

	bound := make([]net.Listener, 0, len(listeners))
	for _, l := range listeners {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
		if err != nil {
			for _, open := range bound {
				_ = open.Close()
			}
			return nil, fmt.Errorf("listen %s on port %d: %w", l.label, l.port, err)
		}
		bound = append(bound, ln)
	}

	addrs := make([]net.Addr, 0, len(bound))
	for i, ln := range bound {
		serve(ctx, logger.With().Str("server", listeners[i].label).Logger(), ln, listeners[i].handler)
		addrs = append(addrs, ln.Addr())
	}
	return addrs, nil
}

// Handler returns the routes Start would mount on a shared listener.
func Handler(tracker *healthcheck.Tracker, metricsCollector *metrics.Metrics, pollInterval time.Duration) http.Handler {
	mux := http.NewServeMux()
	registerHealthRoutes(mux, tracker, pollInterval)
	registerMetricsRoute(mux, metricsCollector)
	return mux
}

func registerHealthRoutes(mux *http.ServeMux, tracker *healthcheck.Tracker, pollInterval time.Duration) {
	mux.HandleFunc("/healthz", healthcheck.HealthHandler(tracker, pollInterval))
	mux.HandleFunc("/readyz", healthcheck.ReadyHandler(tracker))
}

func registerMetricsRoute(mux *http.ServeMux, metricsCollector *metrics.Metrics) {
	if metricsCollector == nil {
		return
	}
	mux.Handle("/metrics", metricsCollector.Handler())
}

func serve(ctx context.Context, logger zerolog.Logger, ln net.Listener, handler http.Handler) {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("http server starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http server shutdown failed")
		}
	}()
}
