package queryir

import (
	"errors"
	"fmt"

	"github.com/roach88/lnquery/internal/ir"
)

// ValidationErrorCode categorizes validation failures.
type ValidationErrorCode string

const (
	ErrCodeMissingField       ValidationErrorCode = "MISSING_FIELD"
	ErrCodeUnknownOperator    ValidationErrorCode = "UNKNOWN_OPERATOR"
	ErrCodeMissingValue       ValidationErrorCode = "MISSING_VALUE"
	ErrCodeMissingSecondValue ValidationErrorCode = "MISSING_SECOND_VALUE"
	ErrCodeInvalidList        ValidationErrorCode = "INVALID_LIST"
	ErrCodeInvalidPattern     ValidationErrorCode = "INVALID_PATTERN"
	ErrCodeInvalidPaging      ValidationErrorCode = "INVALID_PAGING"
)

// ValidationError reports a malformed ParsedQuery reaching an encoder.
type ValidationError struct {
	Code ValidationErrorCode

	// Index is the offending condition's position, or -1 for query-level errors.
	Index int

	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: condition %d (%s): %s", e.Code, e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks that every condition is well formed and paging values are
// non-negative. All problems are reported, joined with errors.Join.
//
// Validate is a pure function with no side effects.
func Validate(q ParsedQuery) error {
	var errs []error
	for i, c := range q.Conditions {
		if err := validateCondition(i, c); err != nil {
			errs = append(errs, err)
		}
	}
	if q.Limit != nil && *q.Limit < 0 {
		errs = append(errs, &ValidationError{Code: ErrCodeInvalidPaging, Index: -1, Message: fmt.Sprintf("negative limit %d", *q.Limit)})
	}
	if q.Offset != nil && *q.Offset < 0 {
		errs = append(errs, &ValidationError{Code: ErrCodeInvalidPaging, Index: -1, Message: fmt.Sprintf("negative offset %d", *q.Offset)})
	}
	if q.OrderBy != nil && q.OrderBy.Field == "" {
		errs = append(errs, &ValidationError{Code: ErrCodeMissingField, Index: -1, Message: "order by without field"})
	}
	return errors.Join(errs...)
}

// ValidateCondition checks a single condition in isolation.
func ValidateCondition(c Condition) error {
	if err := validateCondition(0, c); err != nil {
		return err
	}
	return nil
}

func validateCondition(i int, c Condition) *ValidationError {
	fail := func(code ValidationErrorCode, format string, args ...any) *ValidationError {
		return &ValidationError{Code: code, Index: i, Field: c.Field, Message: fmt.Sprintf(format, args...)}
	}

	if c.Field == "" {
		return fail(ErrCodeMissingField, "condition has no field")
	}
	if !c.Operator.Valid() {
		return fail(ErrCodeUnknownOperator, "unknown operator %q", c.Operator)
	}

	switch c.Operator {
	case OpIsNull, OpIsNotNull:
		return nil
	case OpBetween:
		if ir.IsNull(c.Value) {
			return fail(ErrCodeMissingValue, "between requires a lower bound")
		}
		if ir.IsNull(c.Value2) {
			return fail(ErrCodeMissingSecondValue, "between requires an upper bound")
		}
	case OpIn:
		list, ok := c.Value.(ir.IRArray)
		if !ok {
			return fail(ErrCodeInvalidList, "in requires a list, got %T", c.Value)
		}
		if len(list) == 0 {
			return fail(ErrCodeInvalidList, "in requires at least one value")
		}
		for j, v := range list {
			if ir.IsNull(v) {
				return fail(ErrCodeInvalidList, "in list element %d is null", j)
			}
		}
	case OpLike:
		if _, ok := c.Value.(ir.IRString); !ok {
			return fail(ErrCodeInvalidPattern, "like requires a string pattern, got %T", c.Value)
		}
	default:
		if c.Value == nil {
			return fail(ErrCodeMissingValue, "%s requires a value", c.Operator)
		}
		if _, ok := c.Value.(ir.IRArray); ok {
			return fail(ErrCodeMissingValue, "%s does not accept a list", c.Operator)
		}
	}
	return nil
}
