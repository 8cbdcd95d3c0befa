package odata

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/lnquery/internal/ir"
	"github.com/roach88/lnquery/internal/queryir"
)

// Options tunes the encoder.
type Options struct {
	// IncludeTop emits $top from ParsedQuery.Limit.
	IncludeTop bool
}

// Param is one query option.
type Param struct {
	Name  string
	Value string
}

// Params renders q as ordered query options. Malformed queries are rejected
// with a *queryir.ValidationError.
func Params(q queryir.ParsedQuery, opts Options) ([]Param, error) {
	if err := queryir.Validate(q); err != nil {
		return nil, fmt.Errorf("odata encode: %w", err)
	}

	var params []Param
	if len(q.Conditions) > 0 {
		parts := make([]string, 0, len(q.Conditions))
		for _, c := range q.Conditions {
			frag, err := Fragment(c)
			if err != nil {
				return nil, err
			}
			parts = append(parts, frag)
		}
		params = append(params, Param{"$filter", strings.Join(parts, " and ")})
	}
	if len(q.Fields) > 0 {
		params = append(params, Param{"$select", strings.Join(q.Fields, ",")})
	}
	if q.OrderBy != nil {
		params = append(params, Param{"$orderby", q.OrderBy.Field + " " + string(q.OrderBy.Direction)})
	}
	if q.Offset != nil && *q.Offset > 0 {
		params = append(params, Param{"$skip", strconv.Itoa(*q.Offset)})
	}
	if opts.IncludeTop && q.Limit != nil {
		params = append(params, Param{"$top", strconv.Itoa(*q.Limit)})
	}
	if len(q.Expand) > 0 {
		params = append(params, Param{"$expand", strings.Join(q.Expand, ",")})
	}
	return params, nil
}

// Encode returns the query string without a leading '?' and without percent
// encoding, e.g. "$filter=a eq 'v' and b gt 5".
func Encode(q queryir.ParsedQuery, opts Options) (string, error) {
	params, err := Params(q, opts)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + "=" + p.Value
	}
	return strings.Join(parts, "&"), nil
}

// EncodeURL is Encode with every value percent-encoded for use in a URL.
// Spaces become %20; the $ of option names is kept literal.
func EncodeURL(q queryir.ParsedQuery, opts Options) (string, error) {
	params, err := Params(q, opts)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + "=" + Escape(p.Value)
	}
	return strings.Join(parts, "&"), nil
}

// Escape percent-encodes a query option value.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Fragment renders a single condition as a $filter expression.
func Fragment(c queryir.Condition) (string, error) {
	if err := queryir.ValidateCondition(c); err != nil {
		return "", fmt.Errorf("odata encode: %w", err)
	}

	switch c.Operator {
	case queryir.OpEq, queryir.OpNe, queryir.OpGt, queryir.OpLt, queryir.OpGe, queryir.OpLe:
		return c.Field + " " + string(c.Operator) + " " + Literal(c.Value), nil
	case queryir.OpLike:
		pattern := strings.Trim(ir.Text(c.Value), "%")
		return "contains(" + c.Field + ", " + Literal(ir.IRString(pattern)) + ")", nil
	case queryir.OpIn:
		list := c.Value.(ir.IRArray)
		alts := make([]string, len(list))
		for i, v := range list {
			alts[i] = c.Field + " eq " + Literal(v)
		}
		return "(" + strings.Join(alts, " or ") + ")", nil
	case queryir.OpBetween:
		return "(" + c.Field + " ge " + Literal(c.Value) + " and " + c.Field + " le " + Literal(c.Value2) + ")", nil
	case queryir.OpIsNull:
		return c.Field + " eq null", nil
	case queryir.OpIsNotNull:
		return c.Field + " ne null", nil
	case queryir.OpNot:
		return "not(" + c.Field + " eq " + Literal(c.Value) + ")", nil
	}
	return "", fmt.Errorf("odata encode: unsupported operator %q", c.Operator)
}

// Literal renders a value as an OData literal. Strings are single-quoted
// with embedded quotes doubled; numbers and booleans are bare.
func Literal(v ir.IRValue) string {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return "null"
	case ir.IRString:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	default:
		return ir.Text(val)
	}
}
