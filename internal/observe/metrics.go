// Package observe provides OpenTelemetry metrics for the service with a
// Prometheus exporter bridge, plus gin middleware that records request
// durations and logs completions.
package observe

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// meterName is the instrumentation scope name for all metrics.
const meterName = "github.com/kmankan/converse-chronicle"

// Metrics holds the metric instruments. The underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	// method, path, status.
	HTTPRequestDuration metric.Float64Histogram

	// TranscriptionDuration tracks end-to-end transcription latency.
	TranscriptionDuration metric.Float64Histogram

	// RecordingsIngested counts successfully created recordings.
	RecordingsIngested metric.Int64Counter

	// ObjectStoreErrors counts failed object-storage operations. Attribute: op.
	ObjectStoreErrors metric.Int64Counter
}

// latencyBuckets are histogram boundaries in seconds, sized for a service
// whose slowest path is a third-party transcription call.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates all instruments on the given provider. Tests should pass
// an isolated sdk provider to avoid cross-test pollution.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.HTTPRequestDuration, err = m.Float64Histogram("conversechronicle.http.duration",
		metric.WithDescription("Latency of HTTP request handling."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("conversechronicle.transcription.duration",
		metric.WithDescription("Latency of the transcription provider call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RecordingsIngested, err = m.Int64Counter("conversechronicle.recordings.ingested",
		metric.WithDescription("Number of recordings successfully created."),
	); err != nil {
		return nil, err
	}
	if met.ObjectStoreErrors, err = m.Int64Counter("conversechronicle.objectstore.errors",
		metric.WithDescription("Number of failed object-storage operations."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// InitProvider installs a metrics provider backed by the Prometheus exporter
// and returns it. Scrape via promhttp on /metrics.
func InitProvider() (*sdkmetric.MeterProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp, nil
}
