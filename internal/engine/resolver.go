package engine

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/roach88/lnquery/internal/auth"
	"github.com/roach88/lnquery/internal/config"
	"github.com/roach88/lnquery/internal/queryir"
	"github.com/roach88/lnquery/internal/transport"
)

// Target is a fully resolved service: where to send requests and how to
// authorize them.
type Target struct {
	Descriptor queryir.ServiceDescriptor
	BaseURL    string
	Identity   string
	Auth       auth.Authorizer

	// Doer overrides the engine's default transport, typically with a
	// per-tenant rate limit.
	Doer transport.Doer
}

// Resolver turns a tenant and service name into a Target.
type Resolver interface {
	Resolve(ctx context.Context, tenant, service string) (Target, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, tenant, service string) (Target, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, tenant, service string) (Target, error) {
	return f(ctx, tenant, service)
}

// Lookuper finds tenant configuration. Implemented by *catalog.Catalog and
// ConfigLookup.
type Lookuper interface {
	Lookup(ctx context.Context, tenant, service string) (config.Tenant, queryir.ServiceDescriptor, error)
}

// ConfigLookup serves lookups straight from loaded CUE configuration.
type ConfigLookup struct {
	Config *config.Config
}

// Lookup implements Lookuper.
func (c ConfigLookup) Lookup(_ context.Context, tenant, service string) (config.Tenant, queryir.ServiceDescriptor, error) {
	return c.Config.Lookup(tenant, service)
}

// CredentialResolver resolves targets through a Lookuper and the tenant's
// .ionapi file. Credentials, authorizers and transports are built once per
// tenant and reused, so access tokens survive across queries.
type CredentialResolver struct {
	lookup     Lookuper
	load       func(path string) (auth.Credentials, error)
	httpClient *http.Client

	mu      sync.Mutex
	tenants map[string]*tenantState
}

type tenantState struct {
	baseURL string
	auth    auth.Authorizer
	doer    transport.Doer
}

// ResolverOption configures a CredentialResolver.
type ResolverOption func(*CredentialResolver)

// WithCredentialLoader replaces how .ionapi files are read.
func WithCredentialLoader(load func(path string) (auth.Credentials, error)) ResolverOption {
	return func(r *CredentialResolver) { r.load = load }
}

// WithResolverHTTPClient sets the http.Client used by per-tenant transports.
func WithResolverHTTPClient(hc *http.Client) ResolverOption {
	return func(r *CredentialResolver) { r.httpClient = hc }
}

// NewCredentialResolver creates a resolver over lookup.
func NewCredentialResolver(lookup Lookuper, opts ...ResolverOption) *CredentialResolver {
	r := &CredentialResolver{
		lookup:  lookup,
		load:    auth.LoadFile,
		tenants: make(map[string]*tenantState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve implements Resolver.
func (r *CredentialResolver) Resolve(ctx context.Context, tenant, service string) (Target, error) {
	t, d, err := r.lookup.Lookup(ctx, tenant, service)
	if err != nil {
		return Target{}, err
	}
	if err := d.Validate(); err != nil {
		return Target{}, err
	}

	st, err := r.state(t)
	if err != nil {
		return Target{}, err
	}
	return Target{
		Descriptor: d,
		BaseURL:    st.baseURL,
		Identity:   t.Identity,
		Auth:       st.auth,
		Doer:       st.doer,
	}, nil
}

func (r *CredentialResolver) state(t config.Tenant) (*tenantState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.tenants[t.Name]; ok {
		return st, nil
	}

	creds, err := r.load(t.IONAPIFile)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", t.Name, err)
	}
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("tenant %s: %w", t.Name, err)
	}

	baseURL := t.BaseURL
	if baseURL == "" {
		baseURL = creds.BaseURL()
	}

	opts := []transport.Option{transport.WithRateLimit(t.RateLimit, 1)}
	if r.httpClient != nil {
		opts = append(opts, transport.WithHTTPClient(r.httpClient))
	}

	st := &tenantState{
		baseURL: baseURL,
		auth:    auth.NewServiceAccount(creds),
		doer:    transport.NewClient(opts...),
	}
	r.tenants[t.Name] = st
	return st, nil
}
