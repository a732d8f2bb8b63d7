package main

import (
	"context"
	"fmt"
	"logogrouper/internal/api"
	"logogrouper/internal/clustering"
	"logogrouper/internal/config"
	"logogrouper/internal/domainlist"
	"logogrouper/internal/fetcher"
	"logogrouper/internal/report"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/logger"
	"logogrouper/pkg/logocdn/clearbit"
	"logogrouper/pkg/metrics"
	"logogrouper/pkg/transport"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// meterName is the instrumentation scope of the pipeline's instruments.
const meterName = "logogrouper"

// runContext returns a context canceled on SIGINT or SIGTERM and tagged with
// a fresh run ID.
func runContext(command string) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx = logger.WithFields(ctx, zap.String("runID", uuid.NewString()), zap.String("command", command))

	return ctx, cancel
}

// setupMetrics starts the metrics endpoint when one is configured. The
// returned meter is nil when metrics are disabled.
func setupMetrics(ctx context.Context, cfg *config.Config) (metric.Meter, func()) {
	if cfg.Metrics.Addr == "" {
		return nil, func() {}
	}

	mp, err := metrics.NewMeterProvider()
	if err != nil {
		logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
	}

	stopServer, err := api.Start(ctx, api.NewServer(api.NewOptions(cfg)))
	if err != nil {
		logger.Fatal(ctx, "could not start metrics server", zap.Error(err))
	}

	return mp.Meter(meterName), func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.GracefulShutdownTimeout)
		defer cancel()

		stopServer(shutdownCtx)
		if err := mp.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
		}
	}
}

// transportOptions maps the configuration onto the shared client options.
func transportOptions(cfg *config.Config) (transport.Options, error) {
	policy, err := cfg.TLSPolicy()
	if err != nil {
		return transport.Options{}, err
	}

	return transport.Options{
		TLS:                 policy,
		RequestTimeout:      cfg.Fetch.RequestTimeout,
		DialTimeout:         cfg.Transport.DialTimeout,
		TLSHandshakeTimeout: cfg.Transport.TLSHandshakeTimeout,
		MaxIdleConnsPerHost: 2,
		UserAgent:           cfg.Fetch.UserAgent,
	}, nil
}

// runFetch loads the domain list, fetches one logo per distinct domain and
// writes the fetch reports. The summary counts input rows: repeated rows share
// the outcome of their domain and rejected rows count as failed.
func runFetch(ctx context.Context, cfg *config.Config, meter metric.Meter) (domain.FetchSummary, error) {
	list, err := domainlist.Load(ctx, cfg.Paths.Input)
	if err != nil {
		return domain.FetchSummary{}, fmt.Errorf("could not load domain list: %w", err)
	}

	if err := os.MkdirAll(cfg.Paths.LogosDir, 0o755); err != nil {
		return domain.FetchSummary{}, fmt.Errorf("could not create logos directory: %w", err)
	}

	opts, err := transportOptions(cfg)
	if err != nil {
		return domain.FetchSummary{}, err
	}
	httpClient, err := transport.NewClient(opts)
	if err != nil {
		return domain.FetchSummary{}, fmt.Errorf("could not create http client: %w", err)
	}

	cdn := clearbit.New(httpClient, clearbit.Options{
		BaseURL:   cfg.Fetch.CDNBaseURL,
		RateLimit: cfg.Fetch.CDNRateLimit,
		Burst:     cfg.Fetch.CDNBurst,
	})
	orchestrator, err := fetcher.NewOrchestrator(
		fetcher.NewResolver(httpClient, cdn),
		fetcher.NewDownloader(httpClient, fetcher.DownloaderOptions{
			Dir:      cfg.Paths.LogosDir,
			MaxBytes: cfg.Fetch.MaxLogoBytes,
		}),
		fetcher.Options{Workers: cfg.Fetch.Workers, Meter: meter},
	)
	if err != nil {
		return domain.FetchSummary{}, fmt.Errorf("could not create fetch orchestrator: %w", err)
	}

	domains := list.Domains()
	logger.Info(ctx, "fetching logos", zap.Int("domains", len(domains)), zap.Int("workers", cfg.Fetch.Workers))
	summary := list.Summarize(orchestrator.Run(ctx, domains).Outcomes)

	if err := report.NewWriter(cfg.Paths.ReportsDir).WriteFetch(summary); err != nil {
		return summary, fmt.Errorf("could not write fetch report: %w", err)
	}

	return summary, nil
}

// savedPaths returns the logo files written by a fetch phase.
func savedPaths(summary domain.FetchSummary) []string {
	paths := make([]string, 0, summary.Successful)
	for _, outcome := range summary.Outcomes {
		if outcome.Success {
			paths = append(paths, outcome.Path)
		}
	}

	return paths
}

// runGroup fingerprints logos, groups similar ones and writes the groups to
// disk together with their report. With paths nil every image in the logos
// directory is grouped; otherwise only the given files are.
func runGroup(ctx context.Context, cfg *config.Config, paths []string) ([]domain.Cluster, error) {
	var (
		assets []domain.ImageAsset
		err    error
	)
	if paths == nil {
		assets, err = clustering.Index(ctx, cfg.Paths.LogosDir)
	} else {
		assets, err = clustering.IndexFiles(ctx, paths)
	}
	if err != nil {
		return nil, fmt.Errorf("could not index logos: %w", err)
	}

	graph := clustering.BuildGraph(assets, cfg.Group.Threshold)
	clusters := clustering.Clusters(graph)
	logger.Info(ctx, "logos grouped",
		zap.Int("images", graph.Len()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("groups", len(clusters)),
		zap.Int("threshold", cfg.Group.Threshold))

	materializer := clustering.NewMaterializer(clustering.MaterializerOptions{
		GroupsDir: cfg.Paths.GroupsDir,
		Clean:     !cfg.Group.KeepStaleGroups,
	})
	if _, err := materializer.Materialize(ctx, clusters); err != nil {
		return clusters, fmt.Errorf("could not materialize groups: %w", err)
	}

	if err := report.NewWriter(cfg.Paths.ReportsDir).WriteClusters(clusters); err != nil {
		return clusters, fmt.Errorf("could not write group report: %w", err)
	}

	return clusters, nil
}
