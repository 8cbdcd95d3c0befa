package schema

import (
	"fmt"
	"strings"

	"github.com/roach88/lnquery/internal/soapxml"
)

// soapPriority orders SOAP types from most to least specific.
var soapPriority = []DataType{TypeDateTime, TypeDate, TypeNumeric, TypeBoolean, TypeString}

func inferSOAP(src SOAPSource) ([]FieldSchema, error) {
	doc, err := soapxml.Parse(src.Raw)
	if err != nil {
		return nil, err
	}
	if fault := soapxml.FindFault(doc); fault != nil {
		return nil, fmt.Errorf("response is a fault: %s", fault.String)
	}

	root := soapxml.DataRoot(doc)
	blocks := soapxml.Blocks(root, src.Service)
	if len(blocks) == 0 {
		blocks = append(blocks, root)
	}

	obs := newObservations()
	for _, block := range blocks {
		for _, leaf := range soapxml.Leaves(block) {
			f := obs.get(leaf.Name)
			f.seen++
			if leaf.Empty() {
				f.nullable = true
				continue
			}
			f.types[textType(leaf.Text)] = true
			f.text(leaf.Text)
		}
	}
	return obs.build(resolveSOAP, soapKey), nil
}

// resolveSOAP picks the most specific observed type.
func resolveSOAP(types map[DataType]bool) DataType {
	for _, t := range soapPriority {
		if types[t] {
			return t
		}
	}
	return TypeString
}

// soapKey flags names containing "id", except the bare name "id".
func soapKey(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "id") && lower != "id"
}
