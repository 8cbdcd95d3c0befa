package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/lnquery/internal/catalog"
	"github.com/roach88/lnquery/internal/engine"
	"github.com/roach88/lnquery/internal/transport"
)

// app is the catalog and engine a command runs against.
type app struct {
	catalog *catalog.Catalog
	engine  *engine.Engine
}

// openApp opens the catalog and builds an engine that resolves tenants
// through it and records every run in it.
func openApp(opts *RootOptions, extra ...engine.Option) (*app, error) {
	policy, err := engine.ParseLimitPolicy(opts.LimitPolicy)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --limit-policy", err)
	}
	cat, err := openCatalog(opts)
	if err != nil {
		return nil, err
	}

	engOpts := append([]engine.Option{
		engine.WithLimitPolicy(policy),
		engine.WithRunRecorder(cat),
	}, extra...)
	eng := engine.New(engine.NewCredentialResolver(cat), transport.NewClient(), engOpts...)
	return &app{catalog: cat, engine: eng}, nil
}

func openCatalog(opts *RootOptions) (*catalog.Catalog, error) {
	slog.Debug("opening catalog", "path", opts.Database)
	cat, err := catalog.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	return cat, nil
}

func (a *app) Close() {
	if err := a.catalog.Close(); err != nil {
		slog.Error("error closing catalog", "error", err)
	}
}

// queryContext bounds a query by --timeout. Tests inject a parent context
// through cmd.SetContext.
func queryContext(cmd *cobra.Command, opts *RootOptions) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	if opts.Timeout > 0 {
		return context.WithTimeout(parent, opts.Timeout)
	}
	return context.WithCancel(parent)
}

// ErrCodeQuery is reported for query failures that carry no engine code.
const ErrCodeQuery = "E_QUERY"

// queryFailure reports err through f and converts it to an ExitError.
func queryFailure(f *OutputFormatter, err error) error {
	code := ErrCodeQuery
	var details any
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		code = string(qe.Code)
		if qe.RunID != "" {
			details = map[string]string{"run_id": qe.RunID}
		}
	}
	if outErr := f.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, "query failed", err)
}
