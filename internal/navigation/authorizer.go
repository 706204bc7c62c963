package navigation

import (
	"context"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/log"
	"github.com/felixgeelhaar/pimis/internal/metrics"
	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

// PermissionSource supplies the permissions of the current session.
type PermissionSource interface {
	GetPermissions(ctx context.Context) (domain.PermissionSet, error)
}

// Authorizer renders the menu a session is allowed to see.
type Authorizer struct {
	catalog *Catalog
	perms   PermissionSource
	flags   features.Resolver
	labels  LabelResolver
	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures an Authorizer
type Option func(*Authorizer)

// WithLabels sets the label resolver
func WithLabels(l LabelResolver) Option {
	return func(a *Authorizer) { a.labels = l }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(a *Authorizer) { a.logger = l }
}

// WithMetrics counts menu renders
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authorizer) { a.metrics = m }
}

// NewAuthorizer creates an Authorizer. Without WithLabels, translation keys
// are shown untranslated.
func NewAuthorizer(catalog *Catalog, perms PermissionSource, flags features.Resolver, opts ...Option) *Authorizer {
	a := &Authorizer{
		catalog: catalog,
		perms:   perms,
		flags:   flags,
		labels:  NewLabeler(nil),
		logger:  log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Labels returns the label resolver used for filtering.
func (a *Authorizer) Labels() LabelResolver {
	return a.labels
}

// Menu returns the variant's menu filtered by query and pruned to what the
// current permissions and flags allow. Permissions are read on every call.
// When they cannot be read the session is treated as having none.
func (a *Authorizer) Menu(ctx context.Context, variant features.Variant, query string) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perms, err := a.perms.GetPermissions(ctx)
	if err != nil {
		a.logger.WithContext(ctx).WithError(err).Warn("permissions unavailable, showing public entries only")
		perms = domain.NewPermissionSet()
	}

	tree := a.catalog.Resolve(variant)
	if NormalizeQuery(query) != "" {
		tree = Search(tree, query, a.labels)
	}
	tree = Authorize(tree, perms, a.flags, a.labels)

	a.metrics.RecordMenuRender(string(variant))
	a.logger.DebugContext(ctx, "menu rendered",
		"variant", string(variant),
		"entries", len(tree),
		"permissions", perms.Len(),
	)
	return tree, nil
}
