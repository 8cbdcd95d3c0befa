package schema

import (
	"time"

	"github.com/roach88/lnquery/internal/record"
)

// DataType is an inferred field type.
type DataType string

const (
	TypeString   DataType = "string"
	TypeInteger  DataType = "integer"
	TypeDecimal  DataType = "decimal"
	TypeNumeric  DataType = "numeric"
	TypeBoolean  DataType = "boolean"
	TypeDateTime DataType = "datetime"
	TypeDate     DataType = "date"
	TypeArray    DataType = "array"
	TypeObject   DataType = "object"
)

// FieldSchema describes one inferred field. It is a guess drawn from sample
// data, not metadata published by the remote system.
type FieldSchema struct {
	FieldName    string   `json:"field_name"`
	DataType     DataType `json:"data_type"`
	IsNullable   bool     `json:"is_nullable"`
	IsPrimaryKey bool     `json:"is_primary_key"`
	MaxLength    *int     `json:"max_length,omitempty"`
}

// ResponseMetadata describes the response the schema was drawn from. The
// caller measures and supplies it.
type ResponseMetadata struct {
	ResponseTime time.Duration `json:"response_time_ns"`
	ResponseSize int           `json:"response_size"`
	RecordCount  int           `json:"record_count"`
	ContentType  string        `json:"content_type"`
	Query        string        `json:"query"`

	// Context is the SOAP response namespace or the @odata.context URL.
	Context string `json:"context,omitempty"`
}

// TableSchema is the inferred schema of one service.
type TableSchema struct {
	TableName string           `json:"table_name"`
	API       record.Kind      `json:"api"`
	Fields    []FieldSchema    `json:"fields"`
	Metadata  ResponseMetadata `json:"metadata"`

	// Warning explains an empty schema.
	Warning string `json:"warning,omitempty"`
}

// Field returns the named field.
func (ts TableSchema) Field(name string) (FieldSchema, bool) {
	for _, f := range ts.Fields {
		if f.FieldName == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Source is the response to infer from: SOAPSource or RESTSource.
type Source interface {
	source()
}

// SOAPSource is a raw SOAP body plus the service whose blocks hold records.
type SOAPSource struct {
	Raw     string
	Service string
}

func (SOAPSource) source() {}

// RESTSource is the normalized records of an OData response.
type RESTSource struct {
	Records []*record.Record
}

func (RESTSource) source() {}
