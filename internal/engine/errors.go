package engine

import (
	"errors"
	"fmt"
)

// QueryError represents a failed query execution.
//
// QueryError includes structured fields for diagnostics. The wrapped error
// stays reachable through errors.As, so callers can still match
// normalize.ProtocolFault or transport.StatusError.
type QueryError struct {
	// Code identifies the pipeline stage that failed.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	Tenant  string
	Service string

	// RunID identifies the run in the query history.
	RunID string

	Err error
}

// QueryErrorCode categorizes query failures.
type QueryErrorCode string

const (
	// ErrCodeResolve indicates the tenant or service could not be resolved.
	ErrCodeResolve QueryErrorCode = "RESOLVE_FAILED"

	// ErrCodeEncode indicates the query could not be encoded for the service.
	ErrCodeEncode QueryErrorCode = "ENCODE_FAILED"

	// ErrCodeAuth indicates no access token could be obtained.
	ErrCodeAuth QueryErrorCode = "AUTH_FAILED"

	// ErrCodeTransport indicates a network failure or an unexpected status.
	ErrCodeTransport QueryErrorCode = "TRANSPORT_FAILED"

	// ErrCodeRemoteFault indicates the service answered with a fault.
	ErrCodeRemoteFault QueryErrorCode = "REMOTE_FAULT"

	// ErrCodeNormalize indicates the response body could not be read.
	ErrCodeNormalize QueryErrorCode = "NORMALIZE_FAILED"

	// ErrCodeCancelled indicates the caller's context ended.
	ErrCodeCancelled QueryErrorCode = "CANCELLED"
)

// Error implements the error interface. Remote faults render the remote
// message verbatim.
func (e *QueryError) Error() string {
	if e.Code == ErrCodeRemoteFault && e.Err != nil {
		return e.Err.Error()
	}
	if e.Tenant != "" && e.Service != "" {
		return fmt.Sprintf("%s: %s (tenant=%s, service=%s)", e.Code, e.Message, e.Tenant, e.Service)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsRemoteFault returns true if the remote service answered with a fault.
// Uses errors.As to handle wrapped errors.
func IsRemoteFault(err error) bool {
	return hasCode(err, ErrCodeRemoteFault)
}

// IsCancelled returns true if the query stopped because its context ended.
func IsCancelled(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

// IsResolveError returns true if the tenant or service was unknown.
func IsResolveError(err error) bool {
	return hasCode(err, ErrCodeResolve)
}

func hasCode(err error, code QueryErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}
