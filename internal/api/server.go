// Package api exposes the optional HTTP endpoint of a run: Prometheus metrics
// and profiling handlers.
package api

import (
	"context"
	"errors"
	"fmt"
	"logogrouper/internal/config"
	"logogrouper/pkg/controller"
	"logogrouper/pkg/logger"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options holds configuration for the metrics server.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":9090".
	Addr string
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// Gatherer is scraped on MetricsPath; nil means the default registry.
	Gatherer prometheus.Gatherer
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
}

// NewOptions constructs an Options value from the application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.Metrics.Addr,
		MetricsPath:       cfg.Metrics.Path,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewServer returns an *http.Server serving:
//   - Prometheus metrics on MetricsPath
//   - pprof endpoints under /debug/pprof/
//
// wrapped with the access logging middleware.
func NewServer(opts Options) *http.Server {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle(controller.PprofPrefix, controller.PprofMux())

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           controller.WithLogger(mux),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
}

// Start listens on the server address and serves in the background. It
// returns a function that gracefully stops the server.
func Start(ctx context.Context, server *http.Server) (func(ctx context.Context), error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", server.Addr, err)
	}

	go func() {
		logger.Info(ctx, "starting metrics server...", zap.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics server stopped", zap.Error(err))
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping metrics server...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop metrics server", zap.Error(err))
		}
	}, nil
}
