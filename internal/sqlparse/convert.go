package sqlparse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/roach88/lnquery/internal/ir"
	"github.com/roach88/lnquery/internal/queryir"
)

var errNotColumn = errors.New("left side of a condition must be a column")

// comparisonOps maps sqlparser comparison operators onto the IR.
var comparisonOps = map[string]queryir.Operator{
	sqlparser.EqualStr:        queryir.OpEq,
	sqlparser.NotEqualStr:     queryir.OpNe,
	sqlparser.GreaterThanStr:  queryir.OpGt,
	sqlparser.LessThanStr:     queryir.OpLt,
	sqlparser.GreaterEqualStr: queryir.OpGe,
	sqlparser.LessEqualStr:    queryir.OpLe,
	sqlparser.LikeStr:         queryir.OpLike,
	sqlparser.InStr:           queryir.OpIn,
}

// flipped gives the operator to use when a literal is on the left: 5 < a is a > 5.
var flipped = map[queryir.Operator]queryir.Operator{
	queryir.OpEq: queryir.OpEq,
	queryir.OpNe: queryir.OpNe,
	queryir.OpGt: queryir.OpLt,
	queryir.OpLt: queryir.OpGt,
	queryir.OpGe: queryir.OpLe,
	queryir.OpLe: queryir.OpGe,
}

// convertCondition converts a single WHERE leaf into a Condition.
func convertCondition(expr sqlparser.Expr) (queryir.Condition, error) {
	switch e := expr.(type) {
	case *sqlparser.ComparisonExpr:
		return convertComparison(e)

	case *sqlparser.RangeCond:
		if e.Operator != sqlparser.BetweenStr {
			return queryir.Condition{}, fmt.Errorf("%s is not supported", strings.ToUpper(e.Operator))
		}
		field, err := columnName(e.Left)
		if err != nil {
			return queryir.Condition{}, err
		}
		lo, err := convertValue(e.From)
		if err != nil {
			return queryir.Condition{}, err
		}
		hi, err := convertValue(e.To)
		if err != nil {
			return queryir.Condition{}, err
		}
		return queryir.Condition{Field: field, Operator: queryir.OpBetween, Value: lo, Value2: hi}, nil

	case *sqlparser.IsExpr:
		field, err := columnName(e.Expr)
		if err != nil {
			return queryir.Condition{}, err
		}
		switch e.Operator {
		case sqlparser.IsNullStr:
			return queryir.Condition{Field: field, Operator: queryir.OpIsNull}, nil
		case sqlparser.IsNotNullStr:
			return queryir.Condition{Field: field, Operator: queryir.OpIsNotNull}, nil
		}
		return queryir.Condition{}, fmt.Errorf("%s is not supported", strings.ToUpper(e.Operator))

	case *sqlparser.NotExpr:
		return convertNot(e.Expr)

	case *sqlparser.ParenExpr:
		return convertCondition(e.Expr)
	}
	return queryir.Condition{}, fmt.Errorf("unsupported condition %T", expr)
}

func convertComparison(e *sqlparser.ComparisonExpr) (queryir.Condition, error) {
	op, ok := comparisonOps[e.Operator]
	if !ok {
		return queryir.Condition{}, fmt.Errorf("operator %s is not supported", strings.ToUpper(e.Operator))
	}

	left, right := e.Left, e.Right
	field, err := columnName(left)
	if err != nil {
		// Literal on the left: only plain comparisons can be turned around
		rev, canFlip := flipped[op]
		if !canFlip {
			return queryir.Condition{}, err
		}
		field, err = columnName(right)
		if err != nil {
			return queryir.Condition{}, errNotColumn
		}
		op, right = rev, left
	}

	if op == queryir.OpIn {
		tuple, ok := right.(sqlparser.ValTuple)
		if !ok {
			return queryir.Condition{}, errors.New("IN requires a parenthesized value list")
		}
		list := make(ir.IRArray, 0, len(tuple))
		for _, elem := range tuple {
			v, err := convertValue(elem)
			if err != nil {
				return queryir.Condition{}, err
			}
			list = append(list, v)
		}
		return queryir.Condition{Field: field, Operator: op, Value: list}, nil
	}

	value, err := convertValue(right)
	if err != nil {
		return queryir.Condition{}, err
	}
	if ir.IsNull(value) {
		// a = NULL is almost always a typo for IS NULL
		switch op {
		case queryir.OpEq:
			return queryir.Condition{Field: field, Operator: queryir.OpIsNull}, nil
		case queryir.OpNe:
			return queryir.Condition{Field: field, Operator: queryir.OpIsNotNull}, nil
		}
		return queryir.Condition{}, fmt.Errorf("cannot compare %s with NULL", field)
	}
	return queryir.Condition{Field: field, Operator: op, Value: value}, nil
}

// convertNot handles NOT <cond>. Only NOT over equality and NULL tests can
// be represented.
func convertNot(inner sqlparser.Expr) (queryir.Condition, error) {
	cond, err := convertCondition(inner)
	if err != nil {
		return queryir.Condition{}, err
	}
	switch cond.Operator {
	case queryir.OpEq:
		cond.Operator = queryir.OpNot
	case queryir.OpIsNull:
		cond.Operator = queryir.OpIsNotNull
	case queryir.OpIsNotNull:
		cond.Operator = queryir.OpIsNull
	default:
		return queryir.Condition{}, fmt.Errorf("NOT is only supported over equality, got %s", cond.Operator)
	}
	return cond, nil
}

func columnName(expr sqlparser.Expr) (string, error) {
	col, ok := expr.(*sqlparser.ColName)
	if !ok {
		return "", errNotColumn
	}
	return col.Name.String(), nil
}

// convertValue converts a literal expression into an IR value.
func convertValue(expr sqlparser.Expr) (ir.IRValue, error) {
	switch e := expr.(type) {
	case *sqlparser.SQLVal:
		switch e.Type {
		case sqlparser.StrVal:
			return ir.IRString(e.Val), nil
		case sqlparser.IntVal, sqlparser.FloatVal:
			return ir.ParseNumber(string(e.Val))
		}
		return nil, fmt.Errorf("unsupported literal %s", sqlparser.String(e))
	case sqlparser.BoolVal:
		return ir.IRBool(e), nil
	case *sqlparser.NullVal:
		return ir.IRNull{}, nil
	case *sqlparser.UnaryExpr:
		if e.Operator == sqlparser.UMinusStr {
			if lit, ok := e.Expr.(*sqlparser.SQLVal); ok && (lit.Type == sqlparser.IntVal || lit.Type == sqlparser.FloatVal) {
				return ir.ParseNumber("-" + string(lit.Val))
			}
		}
	case *sqlparser.ColName:
		// Bare words that the grammar did not turn into literals
		switch strings.ToLower(e.Name.String()) {
		case "true":
			return ir.IRBool(true), nil
		case "false":
			return ir.IRBool(false), nil
		}
		return nil, fmt.Errorf("column %s used as a value; quote string literals", e.Name.String())
	}
	return nil, fmt.Errorf("unsupported value %s", sqlparser.String(expr))
}

func asInt(v ir.IRValue) (int, bool) {
	n, ok := v.(ir.IRInt)
	if !ok {
		return 0, false
	}
	return int(n), true
}
