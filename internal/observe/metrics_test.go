package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	if m.HTTPRequestDuration == nil || m.TranscriptionDuration == nil {
		t.Error("expected histograms to be created")
	}
	if m.RecordingsIngested == nil || m.ObjectStoreErrors == nil {
		t.Error("expected counters to be created")
	}

	// Instruments must accept records without panicking.
	ctx := context.Background()
	m.HTTPRequestDuration.Record(ctx, 0.05)
	m.TranscriptionDuration.Record(ctx, 1.2)
	m.RecordingsIngested.Add(ctx, 1)
	m.ObjectStoreErrors.Add(ctx, 1)
}
