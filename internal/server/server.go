package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/lnquery/internal/catalog"
	"github.com/roach88/lnquery/internal/config"
	"github.com/roach88/lnquery/internal/engine"
	"github.com/roach88/lnquery/internal/queryir"
	"github.com/roach88/lnquery/internal/schema"
)

// APIPrefix is the path prefix of every JSON route.
const APIPrefix = "/api"

// MaxRequestBody caps the size of a JSON request body.
const MaxRequestBody = 1 << 20

// QueryEngine is the subset of *engine.Engine the server calls.
type QueryEngine interface {
	Execute(ctx context.Context, req engine.Request) (*engine.Result, error)
	Encode(ctx context.Context, req engine.Request) (*engine.Encoded, error)
	Describe(ctx context.Context, tenant, service string) (schema.TableSchema, error)
}

// Catalog is the subset of *catalog.Catalog the server reads.
type Catalog interface {
	Tenants(ctx context.Context) ([]config.Tenant, error)
	Runs(ctx context.Context, f catalog.RunFilter) ([]catalog.Run, error)
}

// Server serves the HTTP API.
type Server struct {
	engine   QueryEngine
	catalog  Catalog
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	timeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves /metrics from g. Without it /metrics is not routed.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithQueryTimeout bounds each query. Zero means no bound beyond the
// client's own connection.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a Server.
func New(eng QueryEngine, cat Catalog, opts ...Option) *Server {
	s := &Server{engine: eng, catalog: cat, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches handlers to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+APIPrefix+"/query", s.handleQuery)
	mux.HandleFunc("POST "+APIPrefix+"/encode", s.handleEncode)
	mux.HandleFunc("GET "+APIPrefix+"/tenants", s.handleTenants)
	mux.HandleFunc("GET "+APIPrefix+"/tenants/{tenant}/services/{service}/schema", s.handleSchema)
	mux.HandleFunc("GET "+APIPrefix+"/runs", s.handleRuns)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

func (s *Server) queryContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(r.Context(), s.timeout)
	}
	return context.WithCancel(r.Context())
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.queryContext(r)
	defer cancel()

	res, err := s.engine.Execute(ctx, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	enc, err := s.engine.Encode(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, enc)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.queryContext(r)
	defer cancel()

	ts, err := s.engine.Describe(ctx, r.PathValue("tenant"), r.PathValue("service"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ts)
}

type serviceView struct {
	Name        string          `json:"name"`
	API         queryir.APIType `json:"api"`
	Entity      string          `json:"entity,omitempty"`
	Description string          `json:"description,omitempty"`
}

type tenantView struct {
	Name     string        `json:"name"`
	Company  string        `json:"company,omitempty"`
	Services []serviceView `json:"services"`
}

func (s *Server) handleTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.catalog.Tenants(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Credential paths stay server-side.
	out := make([]tenantView, len(tenants))
	for i, t := range tenants {
		out[i] = tenantView{Name: t.Name, Company: t.Company, Services: make([]serviceView, len(t.Services))}
		for j, svc := range t.Services {
			out[i].Services[j] = serviceView{Name: svc.Name, API: svc.API, Entity: svc.Entity, Description: svc.Description}
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.RunFilter{
		Tenant:      q.Get("tenant"),
		Service:     q.Get("service"),
		Fingerprint: q.Get("fingerprint"),
		Limit:       50,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		f.Limit = n
	}

	runs, err := s.catalog.Runs(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (engine.Request, bool) {
	var req engine.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return req, false
	}
	if req.Tenant == "" || req.Service == "" || req.SQL == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "tenant, service and sql are required"})
		return req, false
	}
	return req, true
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

// writeError maps engine failures onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var qe *engine.QueryError
	if errors.As(err, &qe) {
		resp.Code = string(qe.Code)
		resp.RunID = qe.RunID
		switch qe.Code {
		case engine.ErrCodeResolve:
			status = http.StatusNotFound
		case engine.ErrCodeEncode:
			status = http.StatusBadRequest
		case engine.ErrCodeRemoteFault, engine.ErrCodeTransport, engine.ErrCodeNormalize, engine.ErrCodeAuth:
			status = http.StatusBadGateway
		case engine.ErrCodeCancelled:
			status = http.StatusGatewayTimeout
		}
	}
	s.writeJSON(w, status, resp)
}

// writeJSON writes data as JSON with proper headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "body", v)
	} else if status >= http.StatusBadRequest {
		s.logger.Warn("request rejected", "status", status, "body", v)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
