package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/lnquery/internal/engine"
	"github.com/roach88/lnquery/internal/schema"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  expected: %s\n  actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in order.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(r, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertPayloadContains, AssertPayloadExcludes:
		return assertSubstring(a, "payload", r.payload())
	case AssertURLContains, AssertURLExcludes:
		return assertSubstring(a, "url", r.url())
	case AssertRecordCount:
		return assertCount(a, r.Records.Count())
	case AssertTotalAvailable:
		return assertCount(a, r.Records.TotalAvailable)
	case AssertFaultMessage:
		return assertFault(r, a)
	case AssertErrorCode:
		return assertErrorCode(r, a)
	case AssertSchemaFields:
		return assertSchemaFields(r, a)
	case AssertFieldType:
		return assertFieldType(r, a)
	}
	return fmt.Errorf("unknown assertion type: %s", a.Type)
}

func (r *Result) payload() string {
	if r.Encoded == nil {
		return ""
	}
	return r.Encoded.Payload
}

func (r *Result) url() string {
	if r.Encoded == nil {
		return ""
	}
	return r.Encoded.URL
}

func assertSubstring(a Assertion, what, got string) error {
	want := strings.HasSuffix(a.Type, "_contains")
	if strings.Contains(got, a.Text) == want {
		return nil
	}
	verb := "contains"
	if !want {
		verb = "does not contain"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s %s %q", what, verb, a.Text),
		Actual:   fmt.Sprintf("%q", got),
	}
}

func assertCount(a Assertion, got int) error {
	if got == *a.Count {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(got)}
}

func assertFault(r *Result, a Assertion) error {
	switch {
	case r.Err == nil:
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("fault %q", a.Text), Actual: "query succeeded"}
	case !engine.IsRemoteFault(r.Err):
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("fault %q", a.Text), Actual: "non-fault error: " + r.Err.Error()}
	case r.Err.Error() != a.Text:
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("fault %q", a.Text), Actual: fmt.Sprintf("fault %q", r.Err.Error())}
	}
	return nil
}

func assertErrorCode(r *Result, a Assertion) error {
	var qe *engine.QueryError
	if !errors.As(r.Err, &qe) {
		actual := "query succeeded"
		if r.Err != nil {
			actual = "untyped error: " + r.Err.Error()
		}
		return &AssertionError{Type: a.Type, Expected: a.Code, Actual: actual}
	}
	if string(qe.Code) != a.Code {
		return &AssertionError{Type: a.Type, Expected: a.Code, Actual: fmt.Sprintf("%s (%s)", qe.Code, qe.Error())}
	}
	return nil
}

func assertSchemaFields(r *Result, a Assertion) error {
	got := make([]string, len(r.Schema.Fields))
	for i, f := range r.Schema.Fields {
		got[i] = f.FieldName
	}
	if strings.Join(got, ",") == strings.Join(a.Fields, ",") {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Fields), Actual: fmt.Sprint(got)}
}

func assertFieldType(r *Result, a Assertion) error {
	f, ok := r.Schema.Field(a.Field)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s: %s", a.Field, a.DataType), Actual: "field not inferred"}
	}
	if f.DataType != schema.DataType(a.DataType) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s: %s", a.Field, a.DataType), Actual: fmt.Sprintf("%s: %s", a.Field, f.DataType)}
	}
	return nil
}
