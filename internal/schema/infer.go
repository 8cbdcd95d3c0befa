package schema

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/roach88/lnquery/internal/record"
)

// RESTSampleSize is the number of records the REST strategy inspects.
const RESTSampleSize = 5

var (
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?$`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	numericRe  = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// Infer derives a TableSchema from src. It never fails; see the package doc.
func Infer(src Source, table string, meta ResponseMetadata) (ts TableSchema) {
	ts = TableSchema{TableName: table, Fields: []FieldSchema{}, Metadata: meta}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("schema inference failed", "table", table, "panic", r)
			ts.Fields = []FieldSchema{}
			ts.Warning = fmt.Sprintf("schema unavailable: %v", r)
		}
	}()

	var (
		fields []FieldSchema
		err    error
	)
	switch s := src.(type) {
	case SOAPSource:
		ts.API = record.KindSOAP
		fields, err = inferSOAP(s)
	case *SOAPSource:
		ts.API = record.KindSOAP
		fields, err = inferSOAP(*s)
	case RESTSource:
		ts.API = record.KindREST
		fields = inferREST(s)
	case *RESTSource:
		ts.API = record.KindREST
		fields = inferREST(*s)
	default:
		err = fmt.Errorf("unsupported source %T", src)
	}
	if err != nil {
		ts.Warning = "schema unavailable: " + err.Error()
		return ts
	}
	if fields != nil {
		ts.Fields = fields
	}
	return ts
}

// observations accumulates what was seen for each field, in first-seen order.
type observations struct {
	order  []string
	fields map[string]*observed
}

type observed struct {
	types    map[DataType]bool
	nullable bool
	seen     int
	maxLen   int
	hasText  bool
}

func newObservations() *observations {
	return &observations{fields: make(map[string]*observed)}
}

func (o *observations) get(name string) *observed {
	f, ok := o.fields[name]
	if !ok {
		f = &observed{types: make(map[DataType]bool)}
		o.fields[name] = f
		o.order = append(o.order, name)
	}
	return f
}

func (f *observed) text(s string) {
	if n := utf8.RuneCountInString(s); n > f.maxLen {
		f.maxLen = n
	}
	f.hasText = true
}

// build resolves each field with resolve and flags keys with isKey.
func (o *observations) build(resolve func(map[DataType]bool) DataType, isKey func(string) bool) []FieldSchema {
	out := make([]FieldSchema, 0, len(o.order))
	for _, name := range o.order {
		f := o.fields[name]
		fs := FieldSchema{
			FieldName:    name,
			DataType:     resolve(f.types),
			IsNullable:   f.nullable,
			IsPrimaryKey: isKey(name),
		}
		if f.hasText && fs.DataType == TypeString {
			n := f.maxLen
			fs.MaxLength = &n
		}
		out = append(out, fs)
	}
	return out
}

// textType classifies literal text.
func textType(s string) DataType {
	switch {
	case dateTimeRe.MatchString(s):
		return TypeDateTime
	case dateRe.MatchString(s):
		return TypeDate
	case numericRe.MatchString(s):
		return TypeNumeric
	case strings.EqualFold(s, "true") || strings.EqualFold(s, "false"):
		return TypeBoolean
	}
	return TypeString
}
