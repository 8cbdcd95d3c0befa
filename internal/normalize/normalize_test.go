package normalize

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lnquery/internal/queryir"
	"github.com/roach88/lnquery/internal/record"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func value(t *testing.T, r *record.Record, key string) any {
	t.Helper()
	v, ok := r.Get(key)
	require.True(t, ok, "missing field %q", key)
	return v
}

func TestSniff(t *testing.T) {
	assert.Equal(t, FormatXML, Sniff("  <?xml version=\"1.0\"?><a/>"))
	assert.Equal(t, FormatJSON, Sniff("\n{\"value\":[]}"))
	assert.Equal(t, FormatJSON, Sniff("[]"))
	assert.Equal(t, FormatJSON, Sniff("\uFEFF{}"))
	assert.Equal(t, FormatUnknown, Sniff("Service Unavailable"))
	assert.Equal(t, FormatUnknown, Sniff("   "))
}

func TestNormalize_SOAPList(t *testing.T) {
	rs, err := Normalize(readFixture(t, "customer_list.xml"), "Customer_v1", nil)
	require.NoError(t, err)

	assert.Equal(t, record.KindSOAP, rs.Kind)
	require.Equal(t, 3, rs.Count())
	assert.Equal(t, 3, rs.TotalAvailable)
	assert.Equal(t, "Retrieved 3 records", rs.Summary)
	assert.Equal(t, "http://www.infor.com/businessinterface/Customer_v1", rs.Context)

	first := rs.Records[0]
	assert.Equal(t, []string{"id", "name", "country", "creditLimit", "active", "postalCode", "fax"}, first.Keys())
	assert.Equal(t, "C001", value(t, first, "id"))
	assert.Equal(t, json.Number("15000.50"), value(t, first, "creditLimit"))
	assert.Equal(t, true, value(t, first, "active"))
	assert.Equal(t, "06600", value(t, first, "postalCode"))
	assert.Nil(t, value(t, first, "fax"))

	second := rs.Records[1]
	assert.Equal(t, false, value(t, second, "active"))
	assert.Nil(t, value(t, second, "fax"))

	assert.Equal(t, "Textiles & Co", value(t, rs.Records[2], "name"))
	assert.Equal(t, "+52 33 1234", value(t, rs.Records[2], "fax"))
}

func TestNormalize_SOAPIdempotent(t *testing.T) {
	body := readFixture(t, "customer_list.xml")

	first, err := Normalize(body, "Customer_v1", nil)
	require.NoError(t, err)
	second, err := Normalize(body, "Customer_v1", nil)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestNormalize_SOAPLimit(t *testing.T) {
	rs, err := Normalize(readFixture(t, "customer_list.xml"), "Customer_v1", queryir.IntPtr(2))
	require.NoError(t, err)

	assert.Equal(t, 2, rs.Count())
	assert.Equal(t, 3, rs.TotalAvailable)
	assert.True(t, rs.Truncated())
	assert.Equal(t, "Retrieved 2 of 3 records", rs.Summary)
}

func TestNormalize_SOAPVersionlessBlocks(t *testing.T) {
	body := `<Envelope><Body><ListResponse><DataArea>` +
		`<Customer><id>1</id></Customer><Customer><id>2</id></Customer>` +
		`</DataArea></ListResponse></Body></Envelope>`

	rs, err := Normalize(body, "Customer_v1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Count())
	assert.Equal(t, json.Number("2"), value(t, rs.Records[1], "id"))
}

func TestNormalize_SOAPGenericFallback(t *testing.T) {
	body := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<ShowResponse><DataArea><Header><orderNo>SO1</orderNo><status>Open</status></Header>` +
		`<Header><orderNo>SO2</orderNo></Header></DataArea></ShowResponse>` +
		`</soap:Body></soap:Envelope>`

	rs, err := Normalize(body, "SalesOrder_v2", nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Count())
	assert.Equal(t, []string{"orderNo", "status"}, rs.Records[0].Keys())
	assert.Equal(t, "SO2", value(t, rs.Records[0], "orderNo"))
}

func TestNormalize_SOAPEmpty(t *testing.T) {
	body := `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body>` +
		`<ListResponse><DataArea/></ListResponse></S:Body></S:Envelope>`

	rs, err := Normalize(body, "Customer_v1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Count())
	assert.NotNil(t, rs.Records)
	assert.Equal(t, "Retrieved 0 records", rs.Summary)
}

func TestNormalize_SOAPFault(t *testing.T) {
	body := `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body>` +
		`<S:Fault><faultcode>S:Client</faultcode><faultstring>Invalid tenant</faultstring></S:Fault>` +
		`</S:Body></S:Envelope>`

	rs, err := Normalize(body, "Customer_v1", nil)
	require.Error(t, err)
	assert.Equal(t, "Invalid tenant", err.Error())
	assert.True(t, IsProtocolFault(err))
	assert.False(t, IsFormatError(err))
	assert.Empty(t, rs.Records)

	var pf *ProtocolFault
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, record.KindSOAP, pf.API)
	assert.Equal(t, "S:Client", pf.Code)
}

func TestNormalize_ODataCollection(t *testing.T) {
	body := `{"@odata.context":"$metadata#Customers","@odata.count":42,"value":[` +
		`{"@odata.etag":"W/\"1\"","CustomerID":"ALFKI","Country":"Mexico","Credit":12.5,"Active":true},` +
		`{"CustomerID":"ANATR","Country":"Mexico","Credit":null,"Active":false,"Tags":["a","b"],"Address":{"City":"DF"}}` +
		`]}`

	rs, err := Normalize(body, "Customers", nil)
	require.NoError(t, err)

	assert.Equal(t, record.KindREST, rs.Kind)
	require.Equal(t, 2, rs.Count())
	assert.Equal(t, 42, rs.TotalAvailable)
	assert.Equal(t, "Retrieved 2 of 42 records", rs.Summary)
	assert.Equal(t, "$metadata#Customers", rs.Context)

	assert.Equal(t, []string{"CustomerID", "Country", "Credit", "Active"}, rs.Records[0].Keys())
	assert.Equal(t, json.Number("12.5"), value(t, rs.Records[0], "Credit"))
	assert.Nil(t, value(t, rs.Records[1], "Credit"))
	assert.Equal(t, []any{"a", "b"}, value(t, rs.Records[1], "Tags"))
	addr, ok := value(t, rs.Records[1], "Address").(*record.Record)
	require.True(t, ok)
	assert.Equal(t, "DF", value(t, addr, "City"))
}

func TestNormalize_ODataLimit(t *testing.T) {
	body := `{"value":[{"id":1},{"id":2},{"id":3},{"id":4}]}`

	limited, err := Normalize(body, "X", queryir.IntPtr(3))
	require.NoError(t, err)
	assert.Equal(t, 3, limited.Count())
	assert.Equal(t, 4, limited.TotalAvailable)
	assert.Equal(t, "Retrieved 3 of 4 records", limited.Summary)

	full, err := Normalize(body, "X", queryir.IntPtr(10))
	require.NoError(t, err)
	assert.Equal(t, "Retrieved 4 records", full.Summary)

	zero, err := Normalize(body, "X", queryir.IntPtr(0))
	require.NoError(t, err)
	assert.Equal(t, 0, zero.Count())
	assert.Equal(t, "Retrieved 0 of 4 records", zero.Summary)
}

func TestNormalize_ODataEmptyValue(t *testing.T) {
	rs, err := Normalize(`{"value": []}`, "Customers", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Count())
	assert.Equal(t, 0, rs.TotalAvailable)
	assert.Equal(t, "Retrieved 0 records", rs.Summary)
}

func TestNormalize_ODataSingleEntity(t *testing.T) {
	rs, err := Normalize(`{"@odata.context":"$metadata#Customers/$entity","id":"C1","name":"Acme"}`, "Customers", nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Count())
	assert.Equal(t, []string{"id", "name"}, rs.Records[0].Keys())
	assert.Equal(t, "Retrieved 1 record", rs.Summary)
}

func TestNormalize_ODataV2Shapes(t *testing.T) {
	rs, err := Normalize(`{"d":{"__count":"7","results":[{"__metadata":{"uri":"x"},"id":"1"},{"id":"2"}]}}`, "X", nil)
	require.NoError(t, err)
	require.Equal(t, 2, rs.Count())
	assert.Equal(t, 7, rs.TotalAvailable)
	assert.Equal(t, []string{"id"}, rs.Records[0].Keys())

	single, err := Normalize(`{"d":{"id":"1","name":"n"}}`, "X", nil)
	require.NoError(t, err)
	require.Equal(t, 1, single.Count())
	assert.Equal(t, []string{"id", "name"}, single.Records[0].Keys())
}

func TestNormalize_ODataTopLevelArray(t *testing.T) {
	rs, err := Normalize(`[{"id":1},{"id":2},3]`, "X", nil)
	require.NoError(t, err)
	require.Equal(t, 3, rs.Count())
	assert.Equal(t, json.Number("3"), value(t, rs.Records[2], "value"))
}

func TestNormalize_ODataErrors(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		message string
		code    string
	}{
		{"v4", `{"error":{"code":"400","message":"Invalid filter expression"}}`, "Invalid filter expression", "400"},
		{"v2", `{"error":{"code":"SY/530","message":{"lang":"en","value":"Resource not found"}}}`, "Resource not found", "SY/530"},
		{"plain string", `{"error":"Unauthorized"}`, "Unauthorized", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.body, "X", nil)
			require.Error(t, err)

			var pf *ProtocolFault
			require.ErrorAs(t, err, &pf)
			assert.Equal(t, tc.message, pf.Message)
			assert.Equal(t, tc.code, pf.Code)
			assert.Equal(t, record.KindREST, pf.API)
		})
	}
}

func TestNormalize_FormatErrors(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"plain text", "Bad Gateway"},
		{"empty", ""},
		{"broken json", `{"value": [`},
		{"value not array", `{"value": 3}`},
		{"trailing data", `{"value": []} {"value": []}`},
		{"broken xml", `<Envelope><Body>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.body, "X", nil)
			require.Error(t, err)
			assert.True(t, IsFormatError(err), "got %v", err)
			assert.Contains(t, err.Error(), "unknown format")
		})
	}
}
