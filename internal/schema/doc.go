// Package schema infers a best-effort TableSchema from a query response.
//
// Two strategies share the FieldSchema output. SOAP responses are re-read
// from the raw XML, because the normalizer's coercion hides whether a value
// was empty text or what its literal form was. REST responses are inferred
// from the first few normalized records. The strategy is chosen by the
// Source variant.
//
// Inference never fails: malformed input or an internal panic yields a
// schema with no fields and a Warning.
package schema
