package observe

import (
	"context"
	"errors"
	"testing"
)

func TestConfigValidate_Valid(t *testing.T) {
	cfg := Config{
		ServiceName: "reqshape-test",
		Version:     "0.1.0",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "info"},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on valid config returned: %v", err)
	}
}

func TestConfigValidate_MissingServiceName(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("Validate() = %v, want ErrMissingServiceName", err)
	}
}

func TestConfigValidate_UnknownTracingExporter(t *testing.T) {
	cfg := Config{
		ServiceName: "reqshape-test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "zipkin"},
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidTracingExporter) {
		t.Errorf("Validate() = %v, want ErrInvalidTracingExporter", err)
	}
}

func TestConfigValidate_UnknownMetricsExporter(t *testing.T) {
	cfg := Config{
		ServiceName: "reqshape-test",
		Metrics:     MetricsConfig{Enabled: true, Exporter: "statsd"},
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidMetricsExporter) {
		t.Errorf("Validate() = %v, want ErrInvalidMetricsExporter", err)
	}
}

func TestConfigValidate_SamplePctOutOfRange(t *testing.T) {
	cfg := Config{
		ServiceName: "reqshape-test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.5},
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidSamplePct) {
		t.Errorf("Validate() = %v, want ErrInvalidSamplePct", err)
	}
}

func TestConfigValidate_UnknownLogLevel(t *testing.T) {
	cfg := Config{
		ServiceName: "reqshape-test",
		Logging:     LoggingConfig{Enabled: true, Level: "trace"},
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("Validate() = %v, want ErrInvalidLogLevel", err)
	}
}

func TestNewObserver_DisabledNoop(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "reqshape-test"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}
	defer obs.Shutdown(context.Background())

	if obs.Tracer() == nil {
		t.Error("Tracer() should never be nil")
	}
	if obs.Meter() == nil {
		t.Error("Meter() should never be nil")
	}
	if obs.Logger() == nil {
		t.Error("Logger() should never be nil")
	}
}

func TestNewObserver_EnabledProviders(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "reqshape-test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "error"},
	})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNewObserver_InvalidConfigReturnsError(t *testing.T) {
	if _, err := NewObserver(context.Background(), Config{}); err == nil {
		t.Error("NewObserver with empty config should error")
	}
}
