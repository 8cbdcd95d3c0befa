package soapxml

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// EnvelopeNS is the SOAP 1.1 envelope namespace.
const EnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

var versionSuffix = regexp.MustCompile(`_v\d+$`)

// StripVersion removes a trailing _vN from a service name: Customer_v1 -> Customer.
func StripVersion(service string) string {
	return versionSuffix.ReplaceAllString(service, "")
}

// Parse reads raw XML into a document.
func Parse(raw string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse xml: no root element")
	}
	return doc, nil
}

// Find returns the first element named tag in a depth-first walk of root,
// including root itself.
func Find(root *etree.Element, tag string) *etree.Element {
	if root == nil {
		return nil
	}
	if root.Tag == tag {
		return root
	}
	for _, child := range root.ChildElements() {
		if found := Find(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// Body returns the SOAP Body, or the document root when the payload is not
// wrapped in an envelope.
func Body(doc *etree.Document) *etree.Element {
	if body := Find(doc.Root(), "Body"); body != nil {
		return body
	}
	return doc.Root()
}

// DataRoot returns the element records should be searched under: the first
// DataArea inside the Body when there is one, the Body otherwise.
func DataRoot(doc *etree.Document) *etree.Element {
	body := Body(doc)
	if area := Find(body, "DataArea"); area != nil {
		return area
	}
	return body
}

// Fault is a SOAP fault reported by the remote service.
type Fault struct {
	Code   string
	String string
}

// FindFault returns the fault carried by doc, or nil. Both the SOAP 1.1
// (faultcode/faultstring) and 1.2 (Code/Value, Reason/Text) layouts are read.
func FindFault(doc *etree.Document) *Fault {
	el := Find(doc.Root(), "Fault")
	if el == nil {
		return nil
	}
	f := &Fault{}
	if s := Find(el, "faultstring"); s != nil {
		f.String = strings.TrimSpace(s.Text())
	} else if r := Find(el, "Reason"); r != nil {
		if text := Find(r, "Text"); text != nil {
			f.String = strings.TrimSpace(text.Text())
		}
	}
	if c := Find(el, "faultcode"); c != nil {
		f.Code = strings.TrimSpace(c.Text())
	} else if c := Find(el, "Code"); c != nil {
		if v := Find(c, "Value"); v != nil {
			f.Code = strings.TrimSpace(v.Text())
		}
	}
	return f
}

// Blocks returns the outermost elements under root named after service.
// When none match, the version-less name is tried (Customer_v1 -> Customer).
func Blocks(root *etree.Element, service string) []*etree.Element {
	if root == nil || service == "" {
		return nil
	}
	blocks := collect(root, service, nil)
	if len(blocks) == 0 {
		if bare := StripVersion(service); bare != service {
			blocks = collect(root, bare, nil)
		}
	}
	return blocks
}

func collect(el *etree.Element, tag string, out []*etree.Element) []*etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
			continue
		}
		out = collect(child, tag, out)
	}
	return out
}

// Leaf is an element with no child elements.
type Leaf struct {
	Name string
	Text string
	Nil  bool
}

// Empty reports whether the leaf carries no value.
func (l Leaf) Empty() bool {
	return l.Nil || l.Text == ""
}

// Leaves returns the leaf elements under el in document order. Text is
// trimmed; xsi:nil="true" is reported through Leaf.Nil.
func Leaves(el *etree.Element) []Leaf {
	var out []Leaf
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			if len(child.ChildElements()) > 0 {
				walk(child)
				continue
			}
			out = append(out, Leaf{
				Name: child.Tag,
				Text: strings.TrimSpace(child.Text()),
				Nil:  IsNil(child),
			})
		}
	}
	walk(el)
	return out
}

// IsNil reports whether el carries xsi:nil="true".
func IsNil(el *etree.Element) bool {
	for _, attr := range el.Attr {
		if attr.Key == "nil" && strings.EqualFold(strings.TrimSpace(attr.Value), "true") {
			return true
		}
	}
	return false
}
