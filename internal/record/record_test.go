package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_PreservesFirstAppearanceOrder(t *testing.T) {
	r := New()
	r.Set("zeta", "z")
	r.Set("alpha", json.Number("1"))
	r.Set("mid", nil)
	r.Set("zeta", "again")

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Keys())
	assert.Equal(t, 3, r.Len())
	v, ok := r.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, "again", v)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"again","alpha":1,"mid":null}`, string(b))
}

func TestRecord_NestedMarshal(t *testing.T) {
	inner := New()
	inner.Set("city", "Monterrey")
	r := New()
	r.Set("id", json.Number("7"))
	r.Set("address", inner)
	r.Set("tags", []any{"a", true})

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":7,"address":{"city":"Monterrey"},"tags":["a",true]}`, string(b))

	assert.Equal(t, map[string]any{
		"id":      json.Number("7"),
		"address": map[string]any{"city": "Monterrey"},
		"tags":    []any{"a", true},
	}, r.Map())
}

func TestRecord_Project(t *testing.T) {
	r := New()
	r.Set("id", "1")
	r.Set("name", "Acme")
	r.Set("country", "MX")

	p := r.Project([]string{"country", "missing", "id"})
	assert.Equal(t, []string{"country", "id"}, p.Keys())
}

func TestRecordSet_FieldsAndCounts(t *testing.T) {
	a := New()
	a.Set("id", "1")
	a.Set("name", "A")
	b := New()
	b.Set("id", "2")
	b.Set("email", "b@example.com")

	rs := RecordSet{Kind: KindREST, Records: []*Record{a, b}, TotalAvailable: 5}

	assert.Equal(t, []string{"id", "name", "email"}, rs.Fields())
	assert.Equal(t, 2, rs.Count())
	assert.True(t, rs.Truncated())

	projected := rs.Project([]string{"id"})
	assert.Equal(t, []string{"id"}, projected.Fields())
	assert.Equal(t, []string{"id", "name"}, a.Keys())
}

func TestRecordSet_MarshalJSON(t *testing.T) {
	rs := RecordSet{Kind: KindSOAP, Summary: Summarize(0, 0)}

	b, err := json.Marshal(rs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"soap","records":[],"total_available":0,"summary":"Retrieved 0 records","count":0}`, string(b))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "Retrieved 0 records", Summarize(0, 0))
	assert.Equal(t, "Retrieved 1 record", Summarize(1, 1))
	assert.Equal(t, "Retrieved 3 records", Summarize(3, 3))
	assert.Equal(t, "Retrieved 5 of 120 records", Summarize(5, 120))
	assert.Equal(t, "Retrieved 1 of 2 records", Summarize(1, 2))
}

func TestRecordSet_Limit(t *testing.T) {
	var records []*Record
	for _, id := range []string{"1", "2", "3"} {
		r := New()
		r.Set("id", id)
		records = append(records, r)
	}
	rs := RecordSet{Kind: KindSOAP, Records: records, TotalAvailable: 3, Summary: Summarize(3, 3)}

	limited := rs.Limit(2)
	assert.Equal(t, 2, limited.Count())
	assert.Equal(t, 3, limited.TotalAvailable)
	assert.Equal(t, "Retrieved 2 of 3 records", limited.Summary)
	assert.Equal(t, 3, rs.Count())

	assert.Equal(t, rs, rs.Limit(3))
	assert.Equal(t, rs, rs.Limit(-1))
	assert.Equal(t, 0, rs.Limit(0).Count())
}

func sortable() RecordSet {
	rows := []struct {
		id   string
		name any
		amt  any
	}{
		{"C1", "Comercial Azteca", json.Number("9.5")},
		{"C2", nil, json.Number("10")},
		{"C3", "Distribuidora del Norte", json.Number("-2")},
		{"C4", "Almacenes", nil},
	}
	rs := RecordSet{TotalAvailable: len(rows)}
	for _, row := range rows {
		r := New()
		r.Set("id", row.id)
		r.Set("name", row.name)
		r.Set("amount", row.amt)
		rs.Records = append(rs.Records, r)
	}
	return rs
}

func ids(rs RecordSet) []string {
	out := make([]string, len(rs.Records))
	for i, r := range rs.Records {
		v, _ := r.Get("id")
		out[i] = v.(string)
	}
	return out
}

func TestRecordSet_Sort(t *testing.T) {
	rs := sortable()

	assert.Equal(t, []string{"C4", "C1", "C3", "C2"}, ids(rs.Sort("name", false)))
	assert.Equal(t, []string{"C3", "C1", "C4", "C2"}, ids(rs.Sort("name", true)))
	assert.Equal(t, []string{"C3", "C1", "C2", "C4"}, ids(rs.Sort("amount", false)), "numbers compare numerically")
	assert.Equal(t, []string{"C1", "C2", "C3", "C4"}, ids(rs.Sort("missing", true)), "stable when every key is absent")
	assert.Equal(t, []string{"C1", "C2", "C3", "C4"}, ids(rs), "the receiver is not reordered")
}

func TestRecordSet_Skip(t *testing.T) {
	rs := sortable()

	skipped := rs.Skip(1)
	assert.Equal(t, []string{"C2", "C3", "C4"}, ids(skipped))
	assert.Equal(t, 4, skipped.TotalAvailable)
	assert.Equal(t, "Retrieved 3 of 4 records", skipped.Summary)

	assert.Empty(t, rs.Skip(10).Records)
	assert.Len(t, rs.Skip(0).Records, 4)
}
