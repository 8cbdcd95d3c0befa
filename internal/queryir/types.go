package queryir

import (
	"encoding/json"
	"slices"

	"github.com/roach88/lnquery/internal/ir"
)

// Operator is the closed set of filter operators.
type Operator string

const (
	OpEq        Operator = "eq"
	OpNe        Operator = "ne"
	OpGt        Operator = "gt"
	OpLt        Operator = "lt"
	OpGe        Operator = "ge"
	OpLe        Operator = "le"
	OpLike      Operator = "like"
	OpIn        Operator = "in"
	OpBetween   Operator = "between"
	OpIsNull    Operator = "is_null"
	OpIsNotNull Operator = "is_not_null"
	OpNot       Operator = "not"
)

// Operators lists every supported operator in declaration order.
var Operators = []Operator{
	OpEq, OpNe, OpGt, OpLt, OpGe, OpLe,
	OpLike, OpIn, OpBetween, OpIsNull, OpIsNotNull, OpNot,
}

// Valid reports whether op is a member of the operator set.
func (op Operator) Valid() bool {
	return slices.Contains(Operators, op)
}

// IsComparison reports whether op is one of the six binary comparisons.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe:
		return true
	}
	return false
}

// Condition is a single filter predicate.
//
// Semantics by operator:
//
//	eq/ne/gt/lt/ge/le   Field <op> Value
//	like                Field LIKE Value (string pattern)
//	in                  Field IN Value (Value is ir.IRArray)
//	between             Value <= Field <= Value2
//	is_null             Field IS NULL (values ignored)
//	is_not_null         Field IS NOT NULL (values ignored)
//	not                 NOT (Field = Value)
type Condition struct {
	Field    string     `json:"field"`
	Operator Operator   `json:"operator"`
	Value    ir.IRValue `json:"value"`
	Value2   ir.IRValue `json:"value2,omitempty"`
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderBy is a single sort key.
type OrderBy struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// ParsedQuery is the parser output and the single input of both encoders.
type ParsedQuery struct {
	// Service is the FROM target as written by the user.
	Service string `json:"service,omitempty"`

	// Fields lists explicitly selected columns; empty means SELECT *.
	Fields []string `json:"fields,omitempty"`

	// Conditions are AND-ed filters in source order.
	Conditions []Condition `json:"conditions"`

	OrderBy *OrderBy `json:"order_by,omitempty"`
	Limit   *int     `json:"limit,omitempty"`
	Offset  *int     `json:"offset,omitempty"`

	// Expand lists OData navigation properties to inline.
	Expand []string `json:"expand,omitempty"`
}

// MarshalJSON always writes conditions as a list, empty for an unfiltered
// query.
func (q ParsedQuery) MarshalJSON() ([]byte, error) {
	type alias ParsedQuery
	a := alias(q)
	if a.Conditions == nil {
		a.Conditions = []Condition{}
	}
	return json.Marshal(a)
}

// HasLimit reports whether a LIMIT was given.
func (q ParsedQuery) HasLimit() bool { return q.Limit != nil }

// LimitOr returns the limit or def when none was given.
func (q ParsedQuery) LimitOr(def int) int {
	if q.Limit == nil {
		return def
	}
	return *q.Limit
}

// WithExpand returns a copy of q whose Expand list is replaced by expand.
// An empty expand leaves the copy's list untouched.
func (q ParsedQuery) WithExpand(expand []string) ParsedQuery {
	out := q.clone()
	if len(expand) > 0 {
		out.Expand = slices.Clone(expand)
	}
	return out
}

// WithLimit returns a copy of q with the given limit.
func (q ParsedQuery) WithLimit(n int) ParsedQuery {
	out := q.clone()
	out.Limit = &n
	return out
}

func (q ParsedQuery) clone() ParsedQuery {
	out := q
	out.Fields = slices.Clone(q.Fields)
	out.Conditions = slices.Clone(q.Conditions)
	out.Expand = slices.Clone(q.Expand)
	if q.OrderBy != nil {
		ob := *q.OrderBy
		out.OrderBy = &ob
	}
	if q.Limit != nil {
		n := *q.Limit
		out.Limit = &n
	}
	if q.Offset != nil {
		n := *q.Offset
		out.Offset = &n
	}
	return out
}

// Diagnostic describes a clause the parser skipped.
type Diagnostic struct {
	Clause string `json:"clause"`
	Reason string `json:"reason"`
}

// IntPtr is a small helper for building queries in code and tests.
func IntPtr(n int) *int { return &n }
