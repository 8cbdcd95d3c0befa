// Package odata renders a queryir.ParsedQuery as an OData v4 query string.
//
// Output parameters, in order: $filter, $select, $orderby, $skip, $top,
// $expand. $top is only written when Options.IncludeTop is set; by default
// limiting happens client-side after the full response is retrieved so that
// schema inference sees an untruncated sample.
//
// Company and tenant context travel as HTTP headers and never appear here.
package odata
