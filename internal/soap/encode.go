package soap

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/roach88/lnquery/internal/ir"
	"github.com/roach88/lnquery/internal/queryir"
	"github.com/roach88/lnquery/internal/soapxml"
)

// NamespaceBase is the prefix every business interface namespace shares.
const NamespaceBase = "http://www.infor.com/businessinterface"

// Namespace returns the business interface namespace for a service. It is
// the single place the naming convention lives.
func Namespace(service string) string {
	return NamespaceBase + "/" + service
}

// SOAPAction returns the SOAPAction header value for an action on service.
func SOAPAction(service string, action Action) string {
	return Namespace(service) + "/" + string(action)
}

// Action is a business interface operation.
type Action string

const (
	ActionList   Action = "List"
	ActionShow   Action = "Show"
	ActionCreate Action = "Create"
	ActionChange Action = "Change"
	ActionDelete Action = "Delete"
)

// IsRead reports whether the action takes a Filter.
func (a Action) IsRead() bool {
	return a == ActionList || a == ActionShow
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionList, ActionShow, ActionCreate, ActionChange, ActionDelete:
		return true
	}
	return false
}

const xsiNS = "http://www.w3.org/2001/XMLSchema-instance"

// prefix bound to the business interface namespace in every envelope.
const prefix = "bi"

// Encode renders q as a SOAP envelope for action on service. The Activation
// header is emitted only when company is non-empty.
//
// Malformed queries are rejected with a *queryir.ValidationError before any
// XML is built.
func Encode(service string, action Action, q queryir.ParsedQuery, company string) (string, error) {
	if service == "" {
		return "", fmt.Errorf("soap encode: empty service name")
	}
	if !action.Valid() {
		return "", fmt.Errorf("soap encode: unknown action %q", action)
	}
	if err := queryir.Validate(q); err != nil {
		return "", fmt.Errorf("soap encode: %w", err)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", soapxml.EnvelopeNS)
	env.CreateAttr("xmlns:xsi", xsiNS)
	env.CreateAttr("xmlns:"+prefix, Namespace(service))

	header := env.CreateElement("soapenv:Header")
	if company != "" {
		activation := header.CreateElement(prefix + ":Activation")
		activation.CreateElement("company").SetText(company)
	}

	body := env.CreateElement("soapenv:Body")
	op := body.CreateElement(prefix + ":" + string(action))
	req := op.CreateElement(string(action) + "Request")
	control := req.CreateElement("ControlArea")
	control.CreateElement("processingScope").SetText("request")

	data := req.CreateElement("DataArea")
	entity := data.CreateElement(soapxml.StripVersion(service))

	if action.IsRead() {
		// An empty Filter still marks the request as a read of every record.
		filter := control.CreateElement("Filter")
		for _, c := range q.Conditions {
			writeComparisons(filter, c)
		}
	} else {
		if err := writeFlat(entity, action, q.Conditions); err != nil {
			return "", err
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("soap encode: %w", err)
	}
	return out, nil
}

// writeComparisons appends the ComparisonExpression elements for c. Most
// operators map to one expression; between maps to a ge/le pair.
func writeComparisons(filter *etree.Element, c queryir.Condition) {
	switch c.Operator {
	case queryir.OpBetween:
		comparison(filter, "ge", c.Field, c.Value)
		comparison(filter, "le", c.Field, c.Value2)
	case queryir.OpIsNull:
		comparison(filter, "isNull", c.Field, nil)
	case queryir.OpIsNotNull:
		comparison(filter, "isNotNull", c.Field, nil)
	case queryir.OpNot:
		comparison(filter, string(queryir.OpNe), c.Field, c.Value)
	default:
		// eq ne gt lt ge le like in share their names with the wire operators;
		// in values are comma-joined by ir.Text.
		comparison(filter, string(c.Operator), c.Field, c.Value)
	}
}

func comparison(filter *etree.Element, op, field string, value ir.IRValue) {
	expr := filter.CreateElement("ComparisonExpression")
	expr.CreateElement("comparisonOperator").SetText(op)
	expr.CreateElement("attributeName").SetText(field)
	if value != nil {
		expr.CreateElement("instanceValue").SetText(ir.Text(value))
	}
}

// writeFlat renders equality conditions as <field>value</field> children.
// IS NULL becomes an xsi:nil element.
func writeFlat(entity *etree.Element, action Action, conds []queryir.Condition) error {
	for i, c := range conds {
		switch c.Operator {
		case queryir.OpEq:
			entity.CreateElement(c.Field).SetText(ir.Text(c.Value))
		case queryir.OpIsNull:
			entity.CreateElement(c.Field).CreateAttr("xsi:nil", "true")
		default:
			return &queryir.ValidationError{
				Code:    queryir.ErrCodeUnknownOperator,
				Index:   i,
				Field:   c.Field,
				Message: fmt.Sprintf("%s accepts only equality parameters, got %s", action, c.Operator),
			}
		}
	}
	return nil
}
