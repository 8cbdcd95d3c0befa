// Package soap renders a queryir.ParsedQuery as an Infor LN business
// interface SOAP envelope.
//
// Read actions (List, Show) carry the conditions as a Filter of
// ComparisonExpression elements. Write actions (Create, Change, Delete) carry
// equality conditions as flat field elements. Encoding is pure and
// deterministic: the same inputs always produce byte-identical XML.
package soap
