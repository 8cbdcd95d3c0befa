package schema

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/roach88/lnquery/internal/record"
)

func inferREST(src RESTSource) []FieldSchema {
	sample := src.Records
	if len(sample) > RESTSampleSize {
		sample = sample[:RESTSampleSize]
	}

	obs := newObservations()
	for _, r := range sample {
		for _, key := range r.Keys() {
			v, _ := r.Get(key)
			f := obs.get(key)
			f.seen++
			if v == nil {
				f.nullable = true
				continue
			}
			t := valueType(v)
			f.types[t] = true
			if s, ok := v.(string); ok {
				f.text(s)
			}
		}
	}
	// A field absent from some sampled records may be null there.
	for _, f := range obs.fields {
		if f.seen < len(sample) {
			f.nullable = true
		}
	}
	return obs.build(resolveREST, restKey)
}

func valueType(v any) DataType {
	switch val := v.(type) {
	case bool:
		return TypeBoolean
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return TypeInteger
		}
		return TypeDecimal
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return TypeInteger
		}
		return TypeDecimal
	case int, int64:
		return TypeInteger
	case string:
		switch {
		case dateTimeRe.MatchString(val):
			return TypeDateTime
		case dateRe.MatchString(val):
			return TypeDate
		}
		return TypeString
	case []any:
		return TypeArray
	case *record.Record, map[string]any:
		return TypeObject
	}
	return TypeString
}

// resolveREST returns the single observed type, widening integer+decimal to
// decimal and date+datetime to datetime. Any other mix is a string.
func resolveREST(types map[DataType]bool) DataType {
	switch len(types) {
	case 0:
		return TypeString
	case 1:
		for t := range types {
			return t
		}
	}
	if len(types) == 2 {
		switch {
		case types[TypeInteger] && types[TypeDecimal]:
			return TypeDecimal
		case types[TypeDate] && types[TypeDateTime]:
			return TypeDateTime
		}
	}
	return TypeString
}

// restKey flags "id", names ending in "id", and names containing "key".
func restKey(name string) bool {
	lower := strings.ToLower(name)
	return lower == "id" || strings.HasSuffix(lower, "id") || strings.Contains(lower, "key")
}
