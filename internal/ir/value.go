package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/shopspring/decimal"
)

// IRValue is a sealed interface representing constrained literal types.
// Only IRNull, IRString, IRInt, IRDecimal, IRBool, IRArray and IRObject
// implement it. There is deliberately no float type: decimals keep their
// textual precision.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents a SQL/JSON null literal.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a quoted string literal.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer literal.
type IRInt int64

func (IRInt) irValue() {}

// IRDecimal represents a non-integral numeric literal.
type IRDecimal struct {
	decimal.Decimal
}

func (IRDecimal) irValue() {}

// MarshalJSON renders the decimal as a bare JSON number.
func (d IRDecimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// IRBool represents a boolean literal.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents a list literal, e.g. the right-hand side of IN (...).
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// NewIRDecimal parses s into an IRDecimal.
func NewIRDecimal(s string) (IRDecimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return IRDecimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return IRDecimal{Decimal: d}, nil
}

// ParseNumber converts numeric literal text into IRInt when it is integral
// and fits in int64, or IRDecimal otherwise.
func ParseNumber(s string) (IRValue, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IRInt(n), nil
	}
	return NewIRDecimal(s)
}

// IsNull reports whether v is absent or the null literal.
func IsNull(v IRValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(IRNull)
	return ok
}

// Text returns the unquoted textual form of a scalar value, as it would be
// typed into an ERP filter field. Arrays are comma-joined.
func Text(v IRValue) string {
	switch val := v.(type) {
	case nil, IRNull:
		return ""
	case IRString:
		return string(val)
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRDecimal:
		return val.String()
	case IRBool:
		return strconv.FormatBool(bool(val))
	case IRArray:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Text(elem)
		}
		return strings.Join(parts, ",")
	case IRObject:
		b, err := MarshalCanonical(val)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// MarshalJSON implements json.Marshaler for IRObject with sorted keys.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	ordered := make([]json.RawMessage, 0, len(obj))
	for _, k := range obj.SortedKeys() {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		ordered = append(ordered, append(append(key, ':'), val...))
	}
	out := []byte{'{'}
	for i, kv := range ordered {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, kv...)
	}
	return append(out, '}'), nil
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
