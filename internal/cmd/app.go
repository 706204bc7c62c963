package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pimis/internal/log"
	"github.com/felixgeelhaar/pimis/internal/metrics"
	"github.com/felixgeelhaar/pimis/internal/navigation"
	"github.com/felixgeelhaar/pimis/internal/platform"
	"github.com/felixgeelhaar/pimis/internal/session"
	"github.com/felixgeelhaar/pimis/internal/store"
	"github.com/felixgeelhaar/pimis/internal/telemetry"
	"github.com/felixgeelhaar/pimis/internal/ux"
	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

// app is everything one command invocation needs, wired from config.
type app struct {
	cmdCtx *CommandContext
	paths  *ux.PathDefaults
	cfg    *GlobalConfig
	logger *log.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	backend    store.Backend
	store      *store.SessionStore
	client     *platform.Client
	manager    *session.Manager
	flags      *features.Set
	labels     *navigation.Labeler
	authorizer *navigation.Authorizer

	stopTelemetry func()
}

// newApp loads config (file, then environment, then flags) and builds the
// session and navigation stack on top of it.
func newApp(cmd *cobra.Command) (*app, error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, err
	}

	paths := ux.NewPathDefaults(cmdCtx.Home)
	cfg, err := loadConfig(paths)
	if err != nil {
		return nil, ux.FormatError(err, "loading configuration")
	}
	applyEnv(cfg, os.Getenv)
	applyFlags(cfg, cmdCtx)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	a := &app{cmdCtx: cmdCtx, paths: paths, cfg: cfg}
	a.logger = setupLogging(cfg, cmd.ErrOrStderr())
	a.stopTelemetry = setupTelemetry(commandContext(cmd), cfg, a.logger)
	a.registry, a.metrics = metrics.NewRegistry()

	a.backend, err = openBackend(cfg, paths)
	if err != nil {
		a.stopTelemetry()
		return nil, err
	}
	a.store = store.NewSessionStore(a.backend)

	timeout, _ := cfg.timeout()
	a.client = platform.NewClient(cfg.API.URL,
		platform.WithTimeout(timeout),
		platform.WithLogger(a.logger),
		platform.WithMetrics(a.metrics),
	)
	a.manager = session.NewManager(a.client, a.store,
		session.WithLogger(a.logger),
		session.WithMetrics(a.metrics),
	)

	a.flags = features.ForVariant(cfg.variant())
	a.flags.Apply(cfg.Features)

	tr, err := navigation.LoadTranslations(cfg.App.Language)
	if err != nil {
		a.logger.Warn("menu translations unavailable, showing titles", "language", cfg.App.Language, "error", err)
		a.labels = navigation.NewLabeler(nil)
	} else {
		a.labels = navigation.NewLabeler(tr)
	}

	catalog, err := navigation.DefaultCatalog()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading menu catalog: %w", err)
	}
	a.authorizer = navigation.NewAuthorizer(catalog, a.manager, a.flags,
		navigation.WithLabels(a.labels),
		navigation.WithLogger(a.logger),
		navigation.WithMetrics(a.metrics),
	)
	return a, nil
}

// openBackend picks the session backend for store.driver
func openBackend(cfg *GlobalConfig, paths *ux.PathDefaults) (store.Backend, error) {
	switch cfg.Store.Driver {
	case DriverMemory:
		return store.NewMemoryBackend(), nil
	case DriverRedis:
		return store.NewRedisBackend(store.RedisOptions{
			Addr:      cfg.Store.RedisAddr,
			DB:        cfg.Store.RedisDB,
			Prefix:    cfg.Store.RedisPrefix,
			Namespace: backendNamespace(cfg.API.URL),
		}), nil
	default:
		path := cfg.Store.Path
		if path == "" {
			if err := paths.Ensure(); err != nil {
				return nil, fmt.Errorf("failed to create session directory: %w", err)
			}
			path = paths.SessionFile()
		}
		return store.NewFileBackend(path), nil
	}
}

// backendNamespace keys a shared session by backend host so that two
// deployments never read each other's tokens.
func backendNamespace(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

// variant is the effective deployment variant
func (a *app) variant() features.Variant {
	return a.cfg.variant()
}

// render prints v in the --format the user asked for
func (a *app) render(w io.Writer, v any) error {
	formatter, err := ux.NewFormatter(a.cmdCtx.Format, &ux.FormatterOptions{Writer: w})
	if err != nil {
		return err
	}
	return formatter.Format(v)
}

// Close flushes telemetry, writes the metrics textfile when configured and
// releases the session backend.
func (a *app) Close() {
	if path := a.metricsTextfile(); path != "" {
		if err := metrics.WriteTextfile(path, a.registry); err != nil {
			a.logger.Warn("could not write metrics", "path", path, "error", err)
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("could not close session store", "error", err)
		}
	}
	if a.stopTelemetry != nil {
		a.stopTelemetry()
	}
}

// metricsTextfile resolves metrics.textfile; "default" means the file next
// to the config.
func (a *app) metricsTextfile() string {
	switch a.cfg.Metrics.Textfile {
	case "":
		return ""
	case "default":
		return a.paths.MetricsFile()
	default:
		return a.cfg.Metrics.Textfile
	}
}

// withApp builds the app, runs fn and tears the app down again
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, span := telemetry.StartCommandSpan(commandContext(cmd), spanName(cmd))
	defer span.End()

	if err := fn(ctx, a); err != nil {
		telemetry.RecordError(span, err)
		a.logger.WithError(err).DebugContext(ctx, "command failed", "command", cmd.CommandPath())
		return err
	}
	telemetry.RecordSuccess(span)
	return nil
}

// spanName turns "pimis auth login" into "auth.login"
func spanName(cmd *cobra.Command) string {
	path := strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name())
	return strings.ReplaceAll(strings.TrimSpace(path), " ", ".")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
