// Package engine executes SQL-like queries against ERP services.
//
// One execution runs a fixed pipeline:
//
//  1. Resolve the tenant and service into a Target (descriptor, base URL,
//     credentials, rate-limited transport)
//  2. Parse the SQL text into a queryir.ParsedQuery, keeping diagnostics
//     for skipped clauses
//  3. Merge the descriptor's expand list into the query
//  4. Encode a SOAP envelope or an OData query string
//  5. Send the request
//  6. Normalize the response into a record.RecordSet, or surface the
//     remote fault
//  7. Project selected fields and infer the table schema
//
// Every step before the request is pure. The context is checked before
// encoding and again after normalizing, so a cancelled caller never pays
// for schema inference.
//
// # Record Limiting
//
// By default LIMIT is applied client-side after the full response arrives
// (LimitClientSide). Schema inference then samples a representative set
// of records instead of an artificially truncated one, at the cost of
// bandwidth. LimitServerSide sends $top to OData services instead.
//
// Every run is stamped with a UUIDv7 ID and, when a RunRecorder is set,
// appended to the query history together with the query fingerprint.
package engine
