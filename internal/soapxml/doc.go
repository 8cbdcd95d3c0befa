// Package soapxml holds the etree helpers shared by the SOAP response
// normalizer and the SOAP schema inference pass: envelope parsing, Body and
// DataArea lookup, fault extraction, and discovery of the repeating
// service-named blocks that carry records.
//
// All lookups compare local names only. Namespace prefixes on tags and
// attributes are ignored, so "S:Body", "soapenv:Body" and "Body" are the
// same element.
package soapxml
