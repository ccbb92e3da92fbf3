package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments for the ingestion engine.
type Metrics struct {
	pagesFetched   metric.Int64Counter
	recordsSaved   metric.Int64Counter
	recordsSkipped metric.Int64Counter
	recordErrors   metric.Int64Counter
	matchOutcomes  metric.Int64Counter
	fetchRetries   metric.Int64Counter
	pageDuration   metric.Float64Histogram
	jobRuns        metric.Int64Counter
	jobErrors      metric.Int64Counter
	jobDuration    metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "aptrend"
	}
	meter := provider.Meter(name)

	pagesFetched, err := meter.Int64Counter("aptrend_source_pages_fetched_total")
	if err != nil {
		return nil, err
	}
	recordsSaved, err := meter.Int64Counter("aptrend_records_saved_total")
	if err != nil {
		return nil, err
	}
	recordsSkipped, err := meter.Int64Counter("aptrend_records_skipped_total")
	if err != nil {
		return nil, err
	}
	recordErrors, err := meter.Int64Counter("aptrend_record_errors_total")
	if err != nil {
		return nil, err
	}
	matchOutcomes, err := meter.Int64Counter("aptrend_match_outcomes_total")
	if err != nil {
		return nil, err
	}
	fetchRetries, err := meter.Int64Counter("aptrend_source_fetch_retries_total")
	if err != nil {
		return nil, err
	}
	pageDuration, err := meter.Float64Histogram("aptrend_source_page_duration_seconds")
	if err != nil {
		return nil, err
	}
	jobRuns, err := meter.Int64Counter("aptrend_scheduler_job_runs_total")
	if err != nil {
		return nil, err
	}
	jobErrors, err := meter.Int64Counter("aptrend_scheduler_job_errors_total")
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram("aptrend_scheduler_job_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		pagesFetched:   pagesFetched,
		recordsSaved:   recordsSaved,
		recordsSkipped: recordsSkipped,
		recordErrors:   recordErrors,
		matchOutcomes:  matchOutcomes,
		fetchRetries:   fetchRetries,
		pageDuration:   pageDuration,
		jobRuns:        jobRuns,
		jobErrors:      jobErrors,
		jobDuration:    jobDuration,
	}, nil
}

func (m *Metrics) RecordPageFetched(ctx context.Context, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.pagesFetched.Add(ctx, 1, attrs)
	m.pageDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) RecordSaved(ctx context.Context, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsSaved.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordSkipped(ctx context.Context, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsSkipped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordError(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.recordErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordMatchOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.matchOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordFetchRetry(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.fetchRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordJobRun(ctx context.Context, job string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("job", job))
	m.jobRuns.Add(ctx, 1, attrs)
	m.jobDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) RecordJobError(ctx context.Context, job string) {
	if m == nil {
		return
	}
	m.jobErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("job", job)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp metric protocol %q", protocol)
	}
}
