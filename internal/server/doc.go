// Package server exposes the query engine as a JSON HTTP API for the web
// UI, plus Prometheus metrics.
//
// Routes:
//
//	POST /api/query                                     execute a query
//	POST /api/encode                                    translate without sending
//	GET  /api/tenants                                   list tenants and services
//	GET  /api/tenants/{tenant}/services/{service}/schema infer a service schema
//	GET  /api/runs                                      recent query history
//	GET  /metrics                                       Prometheus exposition
package server
