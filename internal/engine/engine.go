package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/lnquery/internal/catalog"
	"github.com/roach88/lnquery/internal/normalize"
	"github.com/roach88/lnquery/internal/odata"
	"github.com/roach88/lnquery/internal/queryir"
	"github.com/roach88/lnquery/internal/record"
	"github.com/roach88/lnquery/internal/schema"
	"github.com/roach88/lnquery/internal/soap"
	"github.com/roach88/lnquery/internal/sqlparse"
	"github.com/roach88/lnquery/internal/transport"
)

// LimitPolicy decides where LIMIT is enforced.
type LimitPolicy int

const (
	// LimitClientSide fetches the full response and truncates locally.
	LimitClientSide LimitPolicy = iota

	// LimitServerSide sends $top to OData services. SOAP services have no
	// equivalent and are still truncated locally.
	LimitServerSide
)

// String returns the policy name used in flags and logs.
func (p LimitPolicy) String() string {
	if p == LimitServerSide {
		return "server"
	}
	return "client"
}

// ParseLimitPolicy parses "client" or "server".
func ParseLimitPolicy(s string) (LimitPolicy, error) {
	switch s {
	case "", "client":
		return LimitClientSide, nil
	case "server":
		return LimitServerSide, nil
	}
	return LimitClientSide, fmt.Errorf("unknown limit policy %q (want client or server)", s)
}

// RunRecorder persists query runs. Implemented by *catalog.Catalog.
type RunRecorder interface {
	RecordRun(ctx context.Context, run catalog.Run) (int64, error)
}

// Request is one query to execute.
type Request struct {
	Tenant  string `json:"tenant"`
	Service string `json:"service"`
	SQL     string `json:"sql"`

	// Action is the SOAP operation; empty means List. REST services only
	// accept List.
	Action soap.Action `json:"action,omitempty"`
}

// Encoded is a query translated for its service but not sent.
type Encoded struct {
	RunID       string                    `json:"run_id"`
	Descriptor  queryir.ServiceDescriptor `json:"descriptor"`
	Query       queryir.ParsedQuery       `json:"query"`
	Diagnostics []queryir.Diagnostic      `json:"diagnostics,omitempty"`
	Fingerprint string                    `json:"fingerprint"`
	Method      string                    `json:"method"`
	URL         string                    `json:"url"`

	// Payload is the SOAP envelope or the unescaped OData query string.
	Payload string `json:"payload"`

	request transport.Request
}

// Result is an executed query.
type Result struct {
	Encoded
	Records  record.RecordSet   `json:"records"`
	Schema   schema.TableSchema `json:"schema"`
	Duration time.Duration      `json:"duration_ns"`
}

// Engine executes queries. It holds no per-query state and is safe for
// concurrent use.
type Engine struct {
	resolver Resolver
	doer     transport.Doer
	runs     RunRecorder
	ids      RunIDGenerator
	now      func() time.Time
	limit    LimitPolicy
	metrics  *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimitPolicy sets where LIMIT is enforced. Default: LimitClientSide.
func WithLimitPolicy(p LimitPolicy) Option {
	return func(e *Engine) { e.limit = p }
}

// WithRunRecorder records every run, including dry runs and failures.
func WithRunRecorder(r RunRecorder) Option {
	return func(e *Engine) { e.runs = r }
}

// WithIDGenerator replaces the UUIDv7 run ID generator.
func WithIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock replaces time.Now for run timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine. doer is used for targets that carry no transport
// of their own.
func New(resolver Resolver, doer transport.Doer, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		doer:     doer,
		ids:      UUIDv7Generator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LimitPolicy returns the configured policy.
func (e *Engine) LimitPolicy() LimitPolicy {
	return e.limit
}

// Encode resolves and translates req without sending it.
func (e *Engine) Encode(ctx context.Context, req Request) (*Encoded, error) {
	start := e.now()
	runID := e.ids.Generate()

	target, enc, err := e.prepare(ctx, runID, req)
	if err == nil {
		slog.Debug("query encoded",
			"run_id", runID,
			"tenant", req.Tenant,
			"service", req.Service,
			"api", target.Descriptor.APIType,
			"fingerprint", enc.Fingerprint,
		)
	}
	e.record(ctx, req, enc, nil, catalog.OutcomeDryRun, err, start, e.now().Sub(start))
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// Execute runs req end to end.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	start := e.now()
	runID := e.ids.Generate()

	res, err := e.execute(ctx, runID, req)
	elapsed := e.now().Sub(start)

	outcome := catalog.OutcomeOK
	switch {
	case IsRemoteFault(err):
		outcome = catalog.OutcomeFault
	case err != nil:
		outcome = catalog.OutcomeFailed
	}

	api := queryir.APIType("unknown")
	if res.Descriptor.APIType.Valid() {
		api = res.Descriptor.APIType
	}
	e.metrics.observe(api, string(outcome), elapsed, res.Records.Count())
	e.record(ctx, req, &res.Encoded, &res.Records, outcome, err, start, elapsed)

	if err != nil {
		slog.Warn("query failed",
			"run_id", runID,
			"tenant", req.Tenant,
			"service", req.Service,
			"error", err,
		)
		return nil, err
	}

	res.Duration = elapsed
	slog.Info("query executed",
		"run_id", runID,
		"tenant", req.Tenant,
		"service", req.Service,
		"api", api,
		"records", res.Records.Count(),
		"total", res.Records.TotalAvailable,
		"duration", elapsed,
	)
	return res, nil
}

// Describe infers the schema of a service from an unfiltered query.
func (e *Engine) Describe(ctx context.Context, tenant, service string) (schema.TableSchema, error) {
	res, err := e.Execute(ctx, Request{
		Tenant:  tenant,
		Service: service,
		SQL:     fmt.Sprintf("SELECT * FROM `%s`", service),
	})
	if err != nil {
		return schema.TableSchema{}, err
	}
	return res.Schema, nil
}

// execute always returns a non-nil Result holding whatever was produced
// before a failure, so the caller can record partial runs.
func (e *Engine) execute(ctx context.Context, runID string, req Request) (*Result, error) {
	res := &Result{}
	target, enc, err := e.prepare(ctx, runID, req)
	if enc != nil {
		res.Encoded = *enc
	}
	if err != nil {
		return res, err
	}
	d := target.Descriptor
	fail := func(code QueryErrorCode, msg string, err error) (*Result, error) {
		return res, &QueryError{Code: code, Message: msg, Tenant: req.Tenant, Service: req.Service, RunID: runID, Err: err}
	}

	authz, err := target.Auth.Authorization(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fail(ErrCodeCancelled, "cancelled while authorizing", ctx.Err())
		}
		return fail(ErrCodeAuth, err.Error(), err)
	}
	httpReq := enc.request
	httpReq.Header.Set("Authorization", authz)

	doer := target.Doer
	if doer == nil {
		doer = e.doer
	}
	resp, err := doer.Do(ctx, httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return fail(ErrCodeCancelled, "cancelled during request", ctx.Err())
		}
		return fail(ErrCodeTransport, err.Error(), err)
	}

	full, err := normalize.Normalize(resp.Body, d.RecordName(), nil)
	if err != nil {
		if normalize.IsProtocolFault(err) {
			return fail(ErrCodeRemoteFault, err.Error(), err)
		}
		if !resp.OK() {
			se := &transport.StatusError{Status: resp.Status, Body: resp.Body}
			return fail(ErrCodeTransport, se.Error(), se)
		}
		return fail(ErrCodeNormalize, err.Error(), err)
	}
	if !resp.OK() {
		se := &transport.StatusError{Status: resp.Status, Body: resp.Body}
		return fail(ErrCodeTransport, se.Error(), se)
	}

	if err := ctx.Err(); err != nil {
		return fail(ErrCodeCancelled, "cancelled after normalizing", err)
	}

	// LIMIT applies after normalizing so inference samples the full response.
	// SOAP has no ordering or paging on the wire, so ORDER BY and OFFSET run
	// here too.
	rs := full
	if d.APIType == queryir.APISOAP {
		if ob := enc.Query.OrderBy; ob != nil {
			rs = rs.Sort(ob.Field, ob.Direction == queryir.Desc)
		}
		if off := enc.Query.Offset; off != nil {
			rs = rs.Skip(*off)
		}
	}
	rs = rs.Limit(enc.Query.LimitOr(-1))
	if d.APIType == queryir.APISOAP && len(enc.Query.Fields) > 0 {
		rs = rs.Project(enc.Query.Fields)
	}
	res.Records = rs

	meta := schema.ResponseMetadata{
		ResponseTime: resp.Duration,
		ResponseSize: len(resp.Body),
		RecordCount:  full.Count(),
		ContentType:  resp.ContentType,
		Query:        req.SQL,
		Context:      full.Context,
	}
	var src schema.Source = schema.RESTSource{Records: full.Records}
	if d.APIType == queryir.APISOAP {
		src = schema.SOAPSource{Raw: resp.Body, Service: d.ServiceName}
	}
	res.Schema = schema.Infer(src, d.RecordName(), meta)
	if res.Schema.Warning != "" {
		slog.Warn("schema inference incomplete", "run_id", runID, "warning", res.Schema.Warning)
	}
	return res, nil
}

// prepare resolves, parses and encodes. The returned Encoded is non-nil
// once parsing succeeded, even if encoding failed.
func (e *Engine) prepare(ctx context.Context, runID string, req Request) (Target, *Encoded, error) {
	fail := func(code QueryErrorCode, msg string, err error) error {
		return &QueryError{Code: code, Message: msg, Tenant: req.Tenant, Service: req.Service, RunID: runID, Err: err}
	}

	target, err := e.resolver.Resolve(ctx, req.Tenant, req.Service)
	if err != nil {
		return Target{}, nil, fail(ErrCodeResolve, err.Error(), err)
	}

	q, diags := sqlparse.Parse(req.SQL)
	for _, diag := range diags {
		slog.Warn("query clause skipped",
			"run_id", runID,
			"clause", diag.Clause,
			"reason", diag.Reason,
		)
	}
	q = q.WithExpand(target.Descriptor.Expand)

	enc := &Encoded{
		RunID:       runID,
		Descriptor:  target.Descriptor,
		Query:       q,
		Diagnostics: diags,
	}
	if enc.Fingerprint, err = queryir.Fingerprint(q); err != nil {
		return target, enc, fail(ErrCodeEncode, err.Error(), err)
	}

	if err := ctx.Err(); err != nil {
		return target, enc, fail(ErrCodeCancelled, "cancelled before encoding", err)
	}

	hc := transport.Context{Company: target.Descriptor.Company, Identity: target.Identity}
	httpReq, payload, err := e.encode(target, q, req.Action, hc)
	if err != nil {
		return target, enc, fail(ErrCodeEncode, err.Error(), err)
	}
	enc.request = httpReq
	enc.Method = httpReq.Method
	enc.URL = httpReq.URL
	enc.Payload = payload
	return target, enc, nil
}

// record appends the run to the history. A recording failure is logged,
// never returned: the query itself already succeeded or failed.
func (e *Engine) record(ctx context.Context, req Request, enc *Encoded, rs *record.RecordSet, outcome catalog.Outcome, runErr error, start time.Time, elapsed time.Duration) {
	if e.runs == nil || enc == nil || enc.RunID == "" {
		return
	}
	if outcome == catalog.OutcomeDryRun && runErr != nil {
		outcome = catalog.OutcomeFailed
	}
	run := catalog.Run{
		ID:          enc.RunID,
		Tenant:      req.Tenant,
		Service:     req.Service,
		API:         enc.Descriptor.APIType,
		SQL:         req.SQL,
		Fingerprint: enc.Fingerprint,
		Outcome:     outcome,
		Diagnostics: enc.Diagnostics,
		Duration:    elapsed,
		StartedAt:   start,
	}
	if rs != nil {
		run.RecordCount = rs.Count()
		run.TotalAvailable = rs.TotalAvailable
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if _, err := e.runs.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		slog.Error("failed to record query run", "run_id", enc.RunID, "error", err)
	}
}

func (e *Engine) encode(t Target, q queryir.ParsedQuery, action soap.Action, hc transport.Context) (transport.Request, string, error) {
	d := t.Descriptor
	if action == "" {
		action = soap.ActionList
	}

	switch d.APIType {
	case queryir.APISOAP:
		env, err := soap.Encode(d.ServiceName, action, q, d.Company)
		if err != nil {
			return transport.Request{}, "", err
		}
		return transport.NewSOAPRequest(t.BaseURL, d, action, env, hc), env, nil

	case queryir.APIREST:
		if action != soap.ActionList {
			return transport.Request{}, "", fmt.Errorf("action %s is not supported for REST services", action)
		}
		opts := odata.Options{IncludeTop: e.limit == LimitServerSide}
		raw, err := odata.Encode(q, opts)
		if err != nil {
			return transport.Request{}, "", err
		}
		escaped, err := odata.EncodeURL(q, opts)
		if err != nil {
			return transport.Request{}, "", err
		}
		return transport.NewODataRequest(t.BaseURL, d, escaped, hc), raw, nil
	}
	return transport.Request{}, "", errors.New("unknown api type " + string(d.APIType))
}
