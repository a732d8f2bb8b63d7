// Package metrics holds the OpenTelemetry instruments of the logo pipeline and
// the wiring that exports them through the Prometheus default registry.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// Fetch outcome label values.
const (
	OutcomeSuccess       = "success"
	OutcomeNoLogo        = "no_logo"
	OutcomeDownloadError = "download_error"
	OutcomeNetworkError  = "network_error"
	OutcomeTimeout       = "timeout"
)

// NewMeterProvider creates a meter provider backed by an OpenTelemetry
// Prometheus exporter registered on prometheus.DefaultRegisterer, so readings
// show up on promhttp.Handler().
func NewMeterProvider() (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// FetchInstruments records per-domain fetch outcomes and task latency.
type FetchInstruments struct {
	outcomes metric.Int64Counter
	duration metric.Float64Histogram
}

// NewFetchInstruments creates the fetch instruments on the given meter.
func NewFetchInstruments(meter metric.Meter) (*FetchInstruments, error) {
	outcomes, err := meter.Int64Counter("logos_fetch_outcomes_total",
		metric.WithDescription("Number of processed domains by fetch outcome."))
	if err != nil {
		return nil, fmt.Errorf("could not create outcomes counter: %w", err)
	}

	duration, err := meter.Float64Histogram("logos_fetch_duration_seconds",
		metric.WithDescription("Duration of a single resolve and download task."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create duration histogram: %w", err)
	}

	return &FetchInstruments{outcomes: outcomes, duration: duration}, nil
}

// Record adds one finished task with the given outcome label and duration.
func (f *FetchInstruments) Record(ctx context.Context, outcome string, took time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	f.outcomes.Add(ctx, 1, attrs)
	f.duration.Record(ctx, took.Seconds(), attrs)
}
