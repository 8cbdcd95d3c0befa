package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lnquery/internal/record"
)

func rec(pairs ...any) *record.Record {
	r := record.New()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

func field(t *testing.T, ts TableSchema, name string) FieldSchema {
	t.Helper()
	f, ok := ts.Field(name)
	require.True(t, ok, "missing field %q", name)
	return f
}

func TestInfer_RESTBasic(t *testing.T) {
	src := RESTSource{Records: []*record.Record{
		rec("id", json.Number("1"), "name", "A", "active", true),
		rec("id", json.Number("2"), "name", nil, "active", false),
	}}

	ts := Infer(src, "Customers", ResponseMetadata{RecordCount: 2})

	assert.Equal(t, record.KindREST, ts.API)
	assert.Empty(t, ts.Warning)
	require.Len(t, ts.Fields, 3)
	assert.Equal(t, []string{"id", "name", "active"}, []string{ts.Fields[0].FieldName, ts.Fields[1].FieldName, ts.Fields[2].FieldName})

	name := field(t, ts, "name")
	assert.Equal(t, TypeString, name.DataType)
	assert.True(t, name.IsNullable)
	require.NotNil(t, name.MaxLength)
	assert.Equal(t, 1, *name.MaxLength)

	active := field(t, ts, "active")
	assert.Equal(t, TypeBoolean, active.DataType)
	assert.False(t, active.IsNullable)

	id := field(t, ts, "id")
	assert.True(t, id.IsPrimaryKey)
	assert.Equal(t, TypeInteger, id.DataType)
}

func TestInfer_RESTTypes(t *testing.T) {
	src := RESTSource{Records: []*record.Record{
		rec("amount", json.Number("1"), "created", "2024-03-01T10:00:00Z", "due", "2024-03-01",
			"tags", []any{"x"}, "address", rec("city", "DF"), "mixed", "a", "CustomerID", "C1", "sortKey", "k"),
		rec("amount", json.Number("2.5"), "created", "2024-03-02", "due", "2024-04-01",
			"tags", []any{}, "address", rec(), "mixed", json.Number("3"), "CustomerID", "C2", "sortKey", "k2"),
	}}

	ts := Infer(src, "Orders", ResponseMetadata{})

	assert.Equal(t, TypeDecimal, field(t, ts, "amount").DataType)
	assert.Equal(t, TypeDateTime, field(t, ts, "created").DataType)
	assert.Equal(t, TypeDate, field(t, ts, "due").DataType)
	assert.Equal(t, TypeArray, field(t, ts, "tags").DataType)
	assert.Equal(t, TypeObject, field(t, ts, "address").DataType)
	assert.Equal(t, TypeString, field(t, ts, "mixed").DataType)
	assert.True(t, field(t, ts, "CustomerID").IsPrimaryKey)
	assert.True(t, field(t, ts, "sortKey").IsPrimaryKey)
	assert.False(t, field(t, ts, "due").IsPrimaryKey)
	assert.Nil(t, field(t, ts, "amount").MaxLength)
}

func TestInfer_RESTSamplesFirstFive(t *testing.T) {
	var records []*record.Record
	for i := 0; i < RESTSampleSize; i++ {
		records = append(records, rec("code", "abc"))
	}
	records = append(records, rec("code", nil, "late", "x"))

	ts := Infer(RESTSource{Records: records}, "Items", ResponseMetadata{})

	code := field(t, ts, "code")
	assert.False(t, code.IsNullable)
	_, ok := ts.Field("late")
	assert.False(t, ok)
}

func TestInfer_RESTMissingFieldIsNullable(t *testing.T) {
	ts := Infer(RESTSource{Records: []*record.Record{
		rec("id", json.Number("1"), "email", "a@example.com"),
		rec("id", json.Number("2")),
	}}, "Contacts", ResponseMetadata{})

	assert.True(t, field(t, ts, "email").IsNullable)
	assert.False(t, field(t, ts, "id").IsNullable)
}

const soapBody = `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<S:Body><ListResponse><DataArea>
  <Customer>
    <id>1</id><customerID>C001</customerID><name>Acme</name><credit>10.5</credit>
    <active>true</active><since>2020-01-15</since><updated>2024-05-01T08:30:00</updated>
    <fax xsi:nil="true"/>
  </Customer>
  <Customer>
    <id>2</id><customerID>C002</customerID><name>Globex Industrial</name><credit></credit>
    <active>false</active><since>2021-02-01</since><updated>2024-05-02T09:00:00</updated>
    <fax>555</fax>
  </Customer>
</DataArea></ListResponse></S:Body></S:Envelope>`

func TestInfer_SOAP(t *testing.T) {
	meta := ResponseMetadata{ResponseTime: 120 * time.Millisecond, ResponseSize: len(soapBody), RecordCount: 2, ContentType: "text/xml"}
	ts := Infer(SOAPSource{Raw: soapBody, Service: "Customer_v1"}, "Customer_v1", meta)

	assert.Equal(t, record.KindSOAP, ts.API)
	assert.Equal(t, meta, ts.Metadata)
	require.Len(t, ts.Fields, 8)

	id := field(t, ts, "id")
	assert.Equal(t, TypeNumeric, id.DataType)
	assert.False(t, id.IsPrimaryKey)

	assert.True(t, field(t, ts, "customerID").IsPrimaryKey)
	assert.Equal(t, TypeString, field(t, ts, "customerID").DataType)

	credit := field(t, ts, "credit")
	assert.Equal(t, TypeNumeric, credit.DataType)
	assert.True(t, credit.IsNullable)

	assert.Equal(t, TypeBoolean, field(t, ts, "active").DataType)
	assert.Equal(t, TypeDate, field(t, ts, "since").DataType)
	assert.Equal(t, TypeDateTime, field(t, ts, "updated").DataType)

	fax := field(t, ts, "fax")
	assert.True(t, fax.IsNullable)
	assert.Equal(t, TypeNumeric, fax.DataType)

	name := field(t, ts, "name")
	require.NotNil(t, name.MaxLength)
	assert.Equal(t, len("Globex Industrial"), *name.MaxLength)
}

func TestInfer_SOAPPriority(t *testing.T) {
	assert.Equal(t, TypeDateTime, resolveSOAP(map[DataType]bool{TypeDate: true, TypeDateTime: true}))
	assert.Equal(t, TypeNumeric, resolveSOAP(map[DataType]bool{TypeString: true, TypeNumeric: true}))
	assert.Equal(t, TypeBoolean, resolveSOAP(map[DataType]bool{TypeBoolean: true, TypeString: true}))
	assert.Equal(t, TypeString, resolveSOAP(map[DataType]bool{}))
}

func TestInfer_NeverFails(t *testing.T) {
	testCases := []struct {
		name string
		src  Source
	}{
		{"malformed xml", SOAPSource{Raw: "<Envelope><Body>", Service: "X"}},
		{"not xml", SOAPSource{Raw: "oops", Service: "X"}},
		{"fault", SOAPSource{Raw: `<Envelope><Body><Fault><faultstring>Invalid tenant</faultstring></Fault></Body></Envelope>`, Service: "X"}},
		{"nil record", RESTSource{Records: []*record.Record{nil}}},
		{"nil source", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var ts TableSchema
			require.NotPanics(t, func() {
				ts = Infer(tc.src, "X", ResponseMetadata{Query: "q"})
			})
			assert.Empty(t, ts.Fields)
			assert.NotNil(t, ts.Fields)
			assert.NotEmpty(t, ts.Warning)
			assert.Equal(t, "q", ts.Metadata.Query)
		})
	}
}

func TestInfer_EmptyRecords(t *testing.T) {
	ts := Infer(RESTSource{}, "X", ResponseMetadata{})
	assert.Empty(t, ts.Fields)
	assert.Empty(t, ts.Warning)
}

func TestTableSchema_JSON(t *testing.T) {
	ts := Infer(RESTSource{Records: []*record.Record{rec("id", json.Number("1"))}}, "X", ResponseMetadata{ContentType: "application/json"})

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"table_name": "X",
		"api": "rest",
		"fields": [{"field_name": "id", "data_type": "integer", "is_nullable": false, "is_primary_key": true}],
		"metadata": {"response_time_ns": 0, "response_size": 0, "record_count": 0, "content_type": "application/json", "query": ""}
	}`, string(b))
}
