package cmd

import (
	"context"
	"io"
	"time"

	"github.com/felixgeelhaar/pimis/internal/log"
	"github.com/felixgeelhaar/pimis/internal/telemetry"
	"github.com/felixgeelhaar/pimis/internal/version"
)

const telemetryFlushTimeout = 5 * time.Second

// setupLogging installs the process logger. Logs go to out (stderr in
// practice) so stdout stays parseable for --format json.
func setupLogging(cfg *GlobalConfig, out io.Writer) *log.Logger {
	level := cfg.Logging.Level
	if level == "" {
		level = "warn"
	}

	logger := log.New(log.Config{
		Level:          log.ParseLevel(level),
		AddSource:      log.ParseLevel(level) == log.LevelDebug,
		Format:         log.ParseFormat(cfg.Logging.Format),
		Output:         out,
		ServiceName:    "pimis",
		ServiceVersion: version.GetInfo().Version,
	})
	log.SetDefaultLogger(logger)
	return logger
}

// telemetryConfig maps the resolved configuration onto the tracer settings.
// Environment overrides were already applied by applyEnv.
func telemetryConfig(cfg *GlobalConfig) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = version.GetInfo().Version
	tc.Variant = cfg.App.Variant
	tc.BackendHost = backendNamespace(cfg.API.URL)
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Endpoint = cfg.Telemetry.Endpoint
	tc.Insecure = cfg.Telemetry.Insecure
	if cfg.Telemetry.SampleRate > 0 {
		tc.SampleRate = telemetry.ClampSampleRate(cfg.Telemetry.SampleRate)
	}
	return tc
}

// setupTelemetry installs the tracer provider when tracing is enabled and
// returns the flush to run on exit.
func setupTelemetry(ctx context.Context, cfg *GlobalConfig, logger *log.Logger) func() {
	tc := telemetryConfig(cfg)
	if !tc.Enabled {
		return func() {}
	}

	shutdown, err := telemetry.InitProvider(ctx, tc)
	if err != nil {
		logger.Warn("Failed to initialize telemetry", "error", err)
		return func() {}
	}
	logger.Debug("Telemetry enabled", "endpoint", tc.Endpoint, "sample_rate", tc.SampleRate)

	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()

		if err := shutdown(flushCtx); err != nil {
			logger.Warn("Failed to flush telemetry", "error", err)
		}
	}
}
