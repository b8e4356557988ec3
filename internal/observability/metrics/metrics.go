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

// Metrics exposes application-level instruments.
type Metrics struct {
	allocationRecomputes metric.Int64Counter
	contribRuns          metric.Int64Counter
	batchItems           metric.Int64Counter
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

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "netcontrib"
	}
	meter := provider.Meter(name)

	allocationRecomputes, err := meter.Int64Counter("netcontrib_allocation_recomputes_total")
	if err != nil {
		return nil, err
	}
	contribRuns, err := meter.Int64Counter("netcontrib_contribution_runs_total")
	if err != nil {
		return nil, err
	}
	batchItems, err := meter.Int64Counter("netcontrib_batch_items_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		allocationRecomputes: allocationRecomputes,
		contribRuns:          contribRuns,
		batchItems:           batchItems,
	}, nil
}

// IncAllocationRecompute records one derived-field recomputation.
func (m *Metrics) IncAllocationRecompute(ctx context.Context, scope string) {
	if m == nil || m.allocationRecomputes == nil {
		return
	}
	m.allocationRecomputes.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// IncContribRun records one net-contribution trigger with its outcome.
func (m *Metrics) IncContribRun(ctx context.Context, outcome string) {
	if m == nil || m.contribRuns == nil {
		return
	}
	m.contribRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// IncBatchItem records one processed batch item with its outcome.
func (m *Metrics) IncBatchItem(ctx context.Context, outcome string) {
	if m == nil || m.batchItems == nil {
		return
	}
	m.batchItems.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
