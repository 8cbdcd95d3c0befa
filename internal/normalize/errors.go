package normalize

import (
	"errors"
	"fmt"

	"github.com/roach88/lnquery/internal/record"
)

// ProtocolFault is a failure reported by the remote service inside an
// otherwise readable body.
type ProtocolFault struct {
	// API is the surface that reported the fault.
	API record.Kind

	// Code is the remote fault or error code, when one was given.
	Code string

	// Message is the remote message, unmodified.
	Message string
}

// Error returns the remote message exactly as it was received.
func (e *ProtocolFault) Error() string {
	return e.Message
}

// IsProtocolFault returns true if err is or wraps a ProtocolFault.
func IsProtocolFault(err error) bool {
	var pf *ProtocolFault
	return errors.As(err, &pf)
}

// FormatError reports a body that is neither usable XML nor usable JSON.
type FormatError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unknown format: %s: %v", e.Reason, e.Err)
	}
	return "unknown format: " + e.Reason
}

// Unwrap returns the underlying decode error.
func (e *FormatError) Unwrap() error { return e.Err }

// IsFormatError returns true if err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
