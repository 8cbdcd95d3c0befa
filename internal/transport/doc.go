// Package transport executes encoded requests against the ION API gateway.
//
// It builds HTTP requests for both surfaces (SOAP POSTs and OData GETs),
// applies a client-side rate limit, and returns the raw status and body.
// Interpreting the body is left to the normalizer; a not-ok status is only
// reported, never parsed here.
package transport
