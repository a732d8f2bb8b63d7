// Package fetcher resolves and downloads one logo per domain. It combines a
// two-tier LogoResolver (logo CDN, then homepage icon links) with a Downloader
// and runs both for every domain under a bounded worker pool.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/logger"
	"logogrouper/pkg/metrics"
	"logogrouper/pkg/serrors"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the worker pool width used when none is configured.
const DefaultWorkers = 128

// Options configure the Orchestrator.
type Options struct {
	// Workers is the maximum number of domains processed concurrently.
	Workers int
	// Meter receives the fetch instruments; nil disables metrics.
	Meter metric.Meter
}

// Orchestrator runs one resolve and download task per domain. Each task only
// writes its own outcome slot, and outcomes are aggregated once every task has
// finished.
type Orchestrator struct {
	resolver    Resolver
	downloader  Downloader
	workers     int
	instruments *metrics.FetchInstruments
}

// Run processes every domain to completion, at most Workers at a time. A
// failing task never aborts its siblings. Run returns only after all tasks
// have finished, which is the barrier before images are indexed.
func (o *Orchestrator) Run(ctx context.Context, domains []domain.Domain) domain.FetchSummary {
	outcomes := make([]domain.DownloadOutcome, len(domains))

	// plain Group: a failure must not cancel the other tasks
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, d := range domains {
		g.Go(func() error {
			outcomes[i] = o.fetch(ctx, d)

			return nil
		})
	}
	_ = g.Wait()

	summary := domain.FetchSummary{Total: len(domains), Outcomes: outcomes}
	for _, outcome := range outcomes {
		if outcome.Success {
			summary.Successful++
		} else {
			summary.Failed = append(summary.Failed, outcome.Domain)
		}
	}

	logger.Info(ctx, "fetch phase finished",
		zap.Int("total", summary.Total),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", len(summary.Failed)),
		zap.String("percent", fmt.Sprintf("%.2f", summary.Percent())))

	return summary
}

// fetch runs a single task and records its metrics.
func (o *Orchestrator) fetch(ctx context.Context, d domain.Domain) (outcome domain.DownloadOutcome) {
	ctx = logger.WithFields(ctx, zap.String("domain", string(d)))
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic in fetch task", zap.Any("panic", p))
			outcome = domain.DownloadOutcome{Domain: d, Err: serrors.With(serrors.ErrInternal, "panic: %v", p)}
		}
		o.instruments.Record(ctx, outcomeLabel(outcome), time.Since(start))
	}()

	candidate, err := o.resolver.Resolve(ctx, d)
	if err != nil {
		logger.Warn(ctx, "no logo found", zap.String("kind", serrors.KindName(err)), zap.Error(err))

		return domain.DownloadOutcome{Domain: d, Err: err}
	}

	path, err := o.downloader.Download(ctx, candidate)
	if err != nil {
		logger.Warn(ctx, "could not download logo",
			zap.String("url", candidate.URL),
			zap.String("kind", serrors.KindName(err)),
			zap.Error(err))

		return domain.DownloadOutcome{Domain: d, Err: err}
	}

	logger.Debug(ctx, "logo downloaded", zap.String("url", candidate.URL), zap.String("path", path))

	return domain.DownloadOutcome{Domain: d, Success: true, Path: path}
}

// outcomeLabel maps an outcome to its metric label.
func outcomeLabel(outcome domain.DownloadOutcome) string {
	switch {
	case outcome.Success:
		return metrics.OutcomeSuccess
	case errors.Is(outcome.Err, serrors.ErrTimeout), errors.Is(outcome.Err, context.Canceled):
		return metrics.OutcomeTimeout
	case errors.Is(outcome.Err, serrors.ErrNoLogo):
		return metrics.OutcomeNoLogo
	case errors.Is(outcome.Err, serrors.ErrNetwork):
		return metrics.OutcomeNetworkError
	default:
		return metrics.OutcomeDownloadError
	}
}

// NewOrchestrator creates an Orchestrator using the given resolver and downloader.
func NewOrchestrator(resolver Resolver, downloader Downloader, opts Options) (*Orchestrator, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	meter := opts.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	instruments, err := metrics.NewFetchInstruments(meter)
	if err != nil {
		return nil, fmt.Errorf("could not create fetch instruments: %w", err)
	}

	return &Orchestrator{
		resolver:    resolver,
		downloader:  downloader,
		workers:     workers,
		instruments: instruments,
	}, nil
}
