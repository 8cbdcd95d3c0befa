// Package record defines the normalized result shape shared by both response
// formats: an insertion-ordered Record and the RecordSet that carries records
// from a single response.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Record maps field names to values and remembers the order in which fields
// first appeared in the source payload.
//
// Values are nil, string, bool, json.Number, []any or *Record.
type Record struct {
	keys   []string
	values map[string]any
}

// New returns an empty record.
func New() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores v under key. A key that already exists keeps its position.
func (r *Record) Set(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns field names in first-appearance order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.keys) }

// Project returns a record holding only fields, in the order given. Fields
// the record lacks are skipped.
func (r *Record) Project(fields []string) *Record {
	out := New()
	for _, f := range fields {
		if v, ok := r.values[f]; ok {
			out.Set(f, v)
		}
	}
	return out
}

// Map returns the record as a plain map. Nested records are converted too.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = plain(r.values[k])
	}
	return out
}

func plain(v any) any {
	switch val := v.(type) {
	case *Record:
		return val.Map()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = plain(elem)
		}
		return out
	}
	return v
}

// MarshalJSON writes the fields in first-appearance order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Kind names the extraction algorithm that produced a RecordSet.
type Kind string

const (
	KindSOAP Kind = "soap"
	KindREST Kind = "rest"
)

// RecordSet is the ordered result of normalizing one response.
type RecordSet struct {
	Kind    Kind      `json:"kind"`
	Records []*Record `json:"records"`

	// TotalAvailable counts the records in the response before client-side
	// limiting, or the server-reported count when one was present.
	TotalAvailable int `json:"total_available"`

	Summary string `json:"summary"`

	// Context is the response namespace (SOAP) or @odata.context (OData).
	Context string `json:"context,omitempty"`
}

// Count returns the number of records held.
func (rs RecordSet) Count() int { return len(rs.Records) }

// Truncated reports whether records were dropped by limiting.
func (rs RecordSet) Truncated() bool { return rs.TotalAvailable > len(rs.Records) }

// Fields returns the union of record keys in first-appearance order.
func (rs RecordSet) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rs.Records {
		for _, k := range r.keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

// Project applies Record.Project to every record.
func (rs RecordSet) Project(fields []string) RecordSet {
	if len(fields) == 0 {
		return rs
	}
	out := rs
	out.Records = make([]*Record, len(rs.Records))
	for i, r := range rs.Records {
		out.Records[i] = r.Project(fields)
	}
	return out
}

// Limit keeps at most n records. TotalAvailable is unchanged and the
// summary is rebuilt, so a limited set reports what it dropped.
func (rs RecordSet) Limit(n int) RecordSet {
	if n < 0 || n >= len(rs.Records) {
		return rs
	}
	out := rs
	out.Records = rs.Records[:n:n]
	out.Summary = Summarize(n, rs.TotalAvailable)
	return out
}

// Skip drops the first n records. TotalAvailable is unchanged.
func (rs RecordSet) Skip(n int) RecordSet {
	if n <= 0 {
		return rs
	}
	if n > len(rs.Records) {
		n = len(rs.Records)
	}
	out := rs
	out.Records = rs.Records[n:]
	out.Summary = Summarize(len(out.Records), rs.TotalAvailable)
	return out
}

// Sort returns the records stably ordered by field. Numbers compare
// numerically, and missing or null values sort last in either direction.
func (rs RecordSet) Sort(field string, desc bool) RecordSet {
	out := rs
	out.Records = append([]*Record(nil), rs.Records...)
	sort.SliceStable(out.Records, func(i, j int) bool {
		a, _ := out.Records[i].Get(field)
		b, _ := out.Records[j].Get(field)
		if a == nil || b == nil {
			return a != nil
		}
		c := compareValues(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compareValues orders two non-nil values. Values of different kinds are
// ordered by kind: booleans, then numbers, then strings, then the rest.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case json.Number:
		dx, errx := decimal.NewFromString(string(x))
		dy, erry := decimal.NewFromString(string(b.(json.Number)))
		if errx != nil || erry != nil {
			return strings.Compare(string(x), string(b.(json.Number)))
		}
		return dx.Cmp(dy)
	case string:
		return strings.Compare(x, b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func rank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case json.Number:
		return 1
	case string:
		return 2
	}
	return 3
}

// Summarize builds the human-readable retrieval summary. It distinguishes a
// truncated result ("Retrieved 5 of 120 records") from a complete one.
func Summarize(count, total int) string {
	noun := "records"
	if total == 1 && count == 1 {
		noun = "record"
	}
	if total > count {
		return fmt.Sprintf("Retrieved %d of %d %s", count, total, noun)
	}
	return fmt.Sprintf("Retrieved %d %s", count, noun)
}

// MarshalJSON adds the record count next to the stored fields.
func (rs RecordSet) MarshalJSON() ([]byte, error) {
	type alias RecordSet
	records := rs.Records
	if records == nil {
		records = []*Record{}
	}
	a := alias(rs)
	a.Records = records
	return json.Marshal(struct {
		alias
		Count int `json:"count"`
	}{alias: a, Count: len(records)})
}
