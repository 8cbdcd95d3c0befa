// Package ir provides the literal value types shared by the query
// representation, both request encoders and the fingerprinting code.
//
// This package contains value definitions only. All other internal packages
// may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - non-integral numbers are IRDecimal so that the
//     text a user typed is the text an encoder renders
//   - Values are immutable once constructed
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for content-addressed identity
package ir
