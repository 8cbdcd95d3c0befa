// Package queryir provides the structured intermediate representation (IR)
// produced by the SQL parser and consumed by the wire encoders.
//
// ParsedQuery is the abstraction boundary between the SQL-like surface the
// user types and the two ERP wire protocols:
//
//	[SQL text] → [ParsedQuery] → [SOAP envelope]
//	                           → [OData query string]
//
// A ParsedQuery is constructed fresh per query invocation and is never
// mutated afterwards; helpers such as WithExpand return modified copies.
//
// CONDITIONS:
//
// Every filter is a Condition{Field, Operator, Value, Value2}. The operator
// set is closed (see Operator). Conditions are implicitly AND-ed; there is no
// OR node because neither target protocol can express it uniformly.
//
// VALIDATION:
//
// Validate rejects malformed queries before any wire construction (a
// between without its upper bound, an IN without a list, ...). Encoders call
// it first and never half-render a query.
package queryir
