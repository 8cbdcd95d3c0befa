package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/roach88/lnquery/internal/record"
	"github.com/roach88/lnquery/internal/soapxml"
)

// SOAP normalizes a SOAP/XML body. Records are the service-named blocks
// found under the Body (preferring its DataArea); each block contributes its
// leaf elements as fields. Without such blocks a single record is built from
// every leaf under the search root.
func SOAP(body, service string, limit *int) (record.RecordSet, error) {
	doc, err := soapxml.Parse(body)
	if err != nil {
		return record.RecordSet{}, &FormatError{Reason: "malformed XML", Err: err}
	}
	if fault := soapxml.FindFault(doc); fault != nil {
		return record.RecordSet{}, &ProtocolFault{API: record.KindSOAP, Code: fault.Code, Message: fault.String}
	}

	rs := record.RecordSet{Kind: record.KindSOAP}
	if first := soapxml.Body(doc).ChildElements(); len(first) > 0 {
		rs.Context = first[0].NamespaceURI()
	}

	root := soapxml.DataRoot(doc)
	blocks := soapxml.Blocks(root, service)
	if len(blocks) == 0 {
		if r := leafRecord(root); r.Len() > 0 {
			rs.Records = []*record.Record{r}
		}
		return finish(rs, 0, limit), nil
	}

	rs.Records = make([]*record.Record, 0, len(blocks))
	for _, block := range blocks {
		rs.Records = append(rs.Records, leafRecord(block))
	}
	return finish(rs, 0, limit), nil
}

func leafRecord(el *etree.Element) *record.Record {
	r := record.New()
	for _, leaf := range soapxml.Leaves(el) {
		if leaf.Empty() {
			r.Set(leaf.Name, nil)
			continue
		}
		r.Set(leaf.Name, coerce(leaf.Text))
	}
	return r
}

// numberRe is the JSON number grammar. Text such as "007" or "1e" stays a
// string so codes with leading zeros survive.
var numberRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// coerce turns "true"/"false" into booleans and numeric text into
// json.Number. Everything else is returned unchanged.
func coerce(text string) any {
	switch {
	case strings.EqualFold(text, "true"):
		return true
	case strings.EqualFold(text, "false"):
		return false
	case numberRe.MatchString(text):
		return json.Number(text)
	}
	return text
}
