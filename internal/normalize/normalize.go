package normalize

import (
	"strings"

	"github.com/roach88/lnquery/internal/record"
)

// Format is the detected body format.
type Format string

const (
	FormatXML     Format = "xml"
	FormatJSON    Format = "json"
	FormatUnknown Format = "unknown"
)

// Sniff detects the body format from its first significant character.
func Sniff(body string) Format {
	s := strings.TrimLeft(body, " \t\r\n\uFEFF")
	if s == "" {
		return FormatUnknown
	}
	switch s[0] {
	case '<':
		return FormatXML
	case '{', '[':
		return FormatJSON
	}
	return FormatUnknown
}

// Normalize converts body into a RecordSet. name is the SOAP service name
// (or OData entity name) whose repeating blocks hold the records. When limit
// is non-nil, records beyond it are dropped after the total is counted.
func Normalize(body, name string, limit *int) (record.RecordSet, error) {
	switch Sniff(body) {
	case FormatXML:
		return SOAP(body, name, limit)
	case FormatJSON:
		return JSON(body, limit)
	}
	return record.RecordSet{}, &FormatError{Reason: "body is neither XML nor JSON"}
}

// finish applies the limit and writes the summary.
func finish(rs record.RecordSet, total int, limit *int) record.RecordSet {
	if total < len(rs.Records) {
		total = len(rs.Records)
	}
	if limit != nil && *limit >= 0 && *limit < len(rs.Records) {
		rs.Records = rs.Records[:*limit]
	}
	if rs.Records == nil {
		rs.Records = []*record.Record{}
	}
	rs.TotalAvailable = total
	rs.Summary = record.Summarize(len(rs.Records), total)
	return rs
}
