package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/lnquery/internal/auth"
	"github.com/roach88/lnquery/internal/engine"
	"github.com/roach88/lnquery/internal/record"
	"github.com/roach88/lnquery/internal/schema"
	"github.com/roach88/lnquery/internal/testutil"
)

// DefaultBaseURL prefixes the tenant name when a scenario sets no base URL.
const DefaultBaseURL = "https://ion.example.com"

// Token is the bearer token every scenario request carries.
const Token = "scenario-token"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`

	// Encoded is the dry-run translation. Nil when encoding failed.
	Encoded *engine.Encoded `json:"encoded,omitempty"`

	Records record.RecordSet   `json:"records"`
	Schema  schema.TableSchema `json:"schema"`

	// Err is the query failure, if any.
	Err error `json:"-"`
}

// AddError records a failed assertion.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Harness runs scenarios with deterministic IDs and clock.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger replaces the default logger, which discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes s with a fresh Harness.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	return New().Run(ctx, s)
}

// Run executes a scenario and evaluates its assertions.
//
// The statement is first encoded as a dry run, so the payload is available
// to assertions even when the remote call fails. Query failures are part of
// the result; the returned error reports only problems with the scenario
// itself.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	body, err := s.ResponseBody()
	if err != nil {
		return nil, err
	}
	policy, err := engine.ParseLimitPolicy(s.LimitPolicy)
	if err != nil {
		return nil, err
	}

	baseURL := s.Service.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL + "/" + s.Service.Tenant
	}
	descriptor := s.Service.Descriptor()
	resolver := engine.ResolverFunc(func(_ context.Context, tenant, service string) (engine.Target, error) {
		if tenant != descriptor.Tenant {
			return engine.Target{}, fmt.Errorf("unknown tenant %q", tenant)
		}
		return engine.Target{
			Descriptor: descriptor,
			BaseURL:    baseURL,
			Identity:   "lnquery",
			Auth:       auth.Static(Token),
		}, nil
	})

	doer := testutil.NewFakeDoer(s.Response.Status, body, s.Response.ContentType)
	eng := engine.New(resolver, doer,
		engine.WithLimitPolicy(policy),
		engine.WithIDGenerator(testutil.NewSequenceIDGenerator(s.Name)),
		engine.WithClock(testutil.NewStepClock(time.Millisecond).Now),
	)

	req := engine.Request{
		Tenant:  s.Service.Tenant,
		Service: s.Service.Name,
		SQL:     s.SQL,
		Action:  s.Action,
	}
	result := &Result{Pass: true, Errors: []string{}}

	enc, err := eng.Encode(ctx, req)
	if err != nil {
		result.Err = err
	} else {
		result.Encoded = enc
		res, err := eng.Execute(ctx, req)
		if err != nil {
			result.Err = err
		} else {
			result.Records = res.Records
			result.Schema = res.Schema
		}
	}
	h.logger.Debug("scenario executed",
		"scenario", s.Name,
		"requests", len(doer.Requests()),
		"records", result.Records.Count(),
		"error", result.Err,
	)

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
