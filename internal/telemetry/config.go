package telemetry

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config holds configuration for the tracer
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Variant and BackendHost end up on every span's resource so traces
	// from several deployments can share one collector.
	Variant     string
	BackendHost string

	// Enabled false installs a noop provider.
	Enabled bool

	// Endpoint is the OTLP/HTTP collector host:port. Empty keeps spans in process.
	Endpoint string

	// Insecure sends spans over plain HTTP.
	Insecure bool

	// SampleRate is the fraction of new traces to keep, clamped to [0, 1].
	SampleRate float64
}

// DefaultConfig returns tracing disabled, which is right for an interactive CLI.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "pimis",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}

// ClampSampleRate limits a configured rate to [0, 1].
func ClampSampleRate(rate float64) float64 {
	switch {
	case rate <= 0:
		return 0
	case rate >= 1:
		return 1
	default:
		return rate
	}
}

// sampler honours the parent's decision and samples root spans at SampleRate.
func (c Config) sampler() sdktrace.Sampler {
	rate := ClampSampleRate(c.SampleRate)
	if rate == 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}
