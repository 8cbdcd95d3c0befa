package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lnquery/internal/queryir"
)

func TestLoadScenario(t *testing.T) {
	s := loadScenario(t, "rest_orders_by_customer")

	assert.Equal(t, "rest_orders_by_customer", s.Name)
	assert.Equal(t, 200, s.Response.Status, "status defaults to 200")
	assert.Equal(t, queryir.ServiceDescriptor{
		Tenant:      "ACME_PRD",
		APIType:     queryir.APIREST,
		ServiceName: "tdsls.SalesOrders",
		EntityName:  "Orders",
		Company:     "100",
	}, s.Service.Descriptor())
	require.Len(t, s.Assertions, 4)
	assert.Equal(t, AssertPayloadContains, s.Assertions[0].Type)
	assert.Equal(t, 2, *s.Assertions[1].Count)

	body, err := s.ResponseBody()
	require.NoError(t, err)
	assert.Contains(t, body, `"@odata.count": 3`)
}

func TestLoadScenario_InlineBody(t *testing.T) {
	s := loadScenario(t, "soap_fault")
	body, err := s.ResponseBody()
	require.NoError(t, err)
	assert.Contains(t, body, "<faultstring>Company 999 does not exist</faultstring>")
	assert.Equal(t, 500, s.Response.Status)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{"unknown field", "unknown_field.yaml", "failed to parse YAML"},
		{"incomplete assertion", "bad_assertion.yaml", "non-negative count is required"},
		{"missing file", "nope.yaml", "failed to read scenario file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(filepath.Join("testdata", "invalid", tt.file))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateScenario(t *testing.T) {
	valid := func() Scenario {
		return Scenario{
			Name:        "s",
			Description: "d",
			Service:     ServiceSpec{Tenant: "T", API: queryir.APISOAP, Name: "Customer_v1"},
			SQL:         "SELECT * FROM Customer_v1",
			Assertions:  []Assertion{{Type: AssertErrorCode, Code: "ENCODE_FAILED"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{"valid", func(*Scenario) {}, ""},
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no sql", func(s *Scenario) { s.SQL = "" }, "sql is required"},
		{"bad api", func(s *Scenario) { s.Service.API = "grpc" }, "service.api must be soap or rest"},
		{"bad policy", func(s *Scenario) { s.LimitPolicy = "both" }, "limit_policy"},
		{"body and file", func(s *Scenario) { s.Response.Body = "x"; s.Response.File = "y" }, "mutually exclusive"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions[0].Type = "trace_order" }, `unknown assertion type "trace_order"`},
		{"field_type without field", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertFieldType, DataType: "string"} }, "field and data_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := validateScenario(&s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestResponseBody_AbsolutePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"value":[]}`), 0o644))

	s := &Scenario{Response: ResponseSpec{File: path}, dir: "elsewhere"}
	body, err := s.ResponseBody()
	require.NoError(t, err)
	assert.Equal(t, `{"value":[]}`, body)
}
