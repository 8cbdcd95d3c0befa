package transport

import (
	"net/http"
	"strings"

	"github.com/roach88/lnquery/internal/queryir"
	"github.com/roach88/lnquery/internal/soap"
)

// Header names the LN gateway reads.
const (
	HeaderCompany  = "X-Infor-LnCompany"
	HeaderIdentity = "X-Infor-LnIdentity"
)

// Request is an encoded request ready to send.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// Context carries the per-request header values supplied by the caller.
type Context struct {
	Authorization string
	Company       string
	Identity      string
}

func (c Context) apply(h http.Header) {
	if c.Authorization != "" {
		h.Set("Authorization", c.Authorization)
	}
	if c.Company != "" {
		h.Set(HeaderCompany, c.Company)
	}
	if c.Identity != "" {
		h.Set(HeaderIdentity, c.Identity)
	}
}

// SOAPURL returns the endpoint of a SOAP business interface.
func SOAPURL(baseURL string, d queryir.ServiceDescriptor) string {
	if d.FullURL != "" {
		return d.FullURL
	}
	return strings.TrimRight(baseURL, "/") + "/LN/c4ws/services/" + d.ServiceName
}

// ODataURL returns the collection URL of an OData service, without query.
func ODataURL(baseURL string, d queryir.ServiceDescriptor) string {
	if d.FullURL != "" {
		return d.FullURL
	}
	u := strings.TrimRight(baseURL, "/") + "/LN/lnapi/odata/" + d.ServiceName
	if d.EntityName != "" {
		u += "/" + d.EntityName
	}
	return u
}

// NewSOAPRequest builds a POST carrying envelope.
func NewSOAPRequest(baseURL string, d queryir.ServiceDescriptor, action soap.Action, envelope string, hc Context) Request {
	h := make(http.Header)
	h.Set("Content-Type", "text/xml; charset=utf-8")
	h.Set("Accept", "text/xml")
	h.Set("SOAPAction", soap.SOAPAction(d.ServiceName, action))
	hc.apply(h)
	return Request{Method: http.MethodPost, URL: SOAPURL(baseURL, d), Header: h, Body: envelope}
}

// NewODataRequest builds a GET for the encoded query string.
func NewODataRequest(baseURL string, d queryir.ServiceDescriptor, query string, hc Context) Request {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	hc.apply(h)

	u := ODataURL(baseURL, d)
	if query != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query
	}
	return Request{Method: http.MethodGet, URL: u, Header: h}
}
