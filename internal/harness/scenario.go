package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lnquery/internal/queryir"
	"github.com/roach88/lnquery/internal/soap"
)

// Scenario defines one query conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Service ServiceSpec `yaml:"service"`

	// SQL is the statement under test.
	SQL string `yaml:"sql"`

	// Action selects the SOAP operation. Empty means List.
	Action soap.Action `yaml:"action,omitempty"`

	// LimitPolicy is "client" (default) or "server".
	LimitPolicy string `yaml:"limit_policy,omitempty"`

	Response ResponseSpec `yaml:"response"`

	Assertions []Assertion `yaml:"assertions"`

	// dir is the scenario file's directory, used to resolve Response.File.
	dir string
}

// ServiceSpec describes the service the scenario queries.
type ServiceSpec struct {
	Tenant  string          `yaml:"tenant"`
	API     queryir.APIType `yaml:"api"`
	Name    string          `yaml:"name"`
	Entity  string          `yaml:"entity,omitempty"`
	Company string          `yaml:"company,omitempty"`
	FullURL string          `yaml:"full_url,omitempty"`
	Expand  []string        `yaml:"expand,omitempty"`

	// BaseURL defaults to DefaultBaseURL + "/" + Tenant.
	BaseURL string `yaml:"base_url,omitempty"`
}

// Descriptor converts s into the descriptor the engine resolves to.
func (s ServiceSpec) Descriptor() queryir.ServiceDescriptor {
	return queryir.ServiceDescriptor{
		Tenant:      s.Tenant,
		APIType:     s.API,
		ServiceName: s.Name,
		EntityName:  s.Entity,
		Company:     s.Company,
		FullURL:     s.FullURL,
		Expand:      s.Expand,
	}
}

// ResponseSpec is the canned reply of the fake transport.
type ResponseSpec struct {
	Status      int    `yaml:"status"`
	ContentType string `yaml:"content_type"`
	Body        string `yaml:"body,omitempty"`
	File        string `yaml:"file,omitempty"`
}

// Assertion checks one aspect of the outcome.
type Assertion struct {
	Type string `yaml:"type"`

	// Text is the substring (payload_*, url_*) or message (fault_message).
	Text string `yaml:"text,omitempty"`

	// Count is used by record_count and total_available.
	Count *int `yaml:"count,omitempty"`

	// Code is used by error_code.
	Code string `yaml:"code,omitempty"`

	// Fields is used by schema_fields.
	Fields []string `yaml:"fields,omitempty"`

	// Field and DataType are used by field_type.
	Field    string `yaml:"field,omitempty"`
	DataType string `yaml:"data_type,omitempty"`
}

// Assertion type constants.
const (
	AssertPayloadContains = "payload_contains"
	AssertPayloadExcludes = "payload_excludes"
	AssertURLContains     = "url_contains"
	AssertURLExcludes     = "url_excludes"
	AssertRecordCount     = "record_count"
	AssertTotalAvailable  = "total_available"
	AssertFaultMessage    = "fault_message"
	AssertErrorCode       = "error_code"
	AssertSchemaFields    = "schema_fields"
	AssertFieldType       = "field_type"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as load errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = filepath.Dir(path)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ResponseBody returns the canned body, reading Response.File if set.
func (s *Scenario) ResponseBody() (string, error) {
	if s.Response.File == "" {
		return s.Response.Body, nil
	}
	path := s.Response.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read response file: %w", err)
	}
	return string(data), nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.SQL == "" {
		return fmt.Errorf("sql is required")
	}
	if s.Service.Tenant == "" || s.Service.Name == "" {
		return fmt.Errorf("service.tenant and service.name are required")
	}
	if !s.Service.API.Valid() {
		return fmt.Errorf("service.api must be soap or rest, got %q", s.Service.API)
	}
	switch s.LimitPolicy {
	case "", "client", "server":
	default:
		return fmt.Errorf("limit_policy must be client or server, got %q", s.LimitPolicy)
	}
	if s.Response.Body != "" && s.Response.File != "" {
		return fmt.Errorf("response: body and file are mutually exclusive")
	}
	if s.Response.Status == 0 {
		s.Response.Status = 200
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertPayloadContains, AssertPayloadExcludes, AssertURLContains, AssertURLExcludes, AssertFaultMessage:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertRecordCount, AssertTotalAvailable:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	case AssertSchemaFields:
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields list is required for schema_fields", index)
		}
	case AssertFieldType:
		if a.Field == "" || a.DataType == "" {
			return fmt.Errorf("assertions[%d]: field and data_type are required for field_type", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
