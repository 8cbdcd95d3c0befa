// Package harness runs query conformance scenarios.
//
// A scenario pairs one SQL statement with a service descriptor and a canned
// remote response. The harness runs the statement through the real engine
// against a fake transport, then checks the encoded request, the normalized
// records and the inferred schema.
//
// # Scenario Format
//
//	name: soap_customers_in_mexico
//	description: "Equality filter becomes a ComparisonExpression"
//	service:
//	  tenant: ACME_PRD
//	  api: soap
//	  name: Customer_v1
//	  company: "100"
//	sql: "SELECT * FROM Customer_v1 WHERE country = 'Mexico' LIMIT 5"
//	response:
//	  status: 200
//	  content_type: text/xml
//	  file: responses/customer_list.xml
//	assertions:
//	  - type: payload_contains
//	    text: "<attributeName>country</attributeName>"
//	  - type: record_count
//	    count: 3
//
// Response files are resolved relative to the scenario file. A response may
// carry an inline body instead of a file.
//
// # Assertion Types
//
//   - payload_contains / payload_excludes: substring of the encoded payload
//   - url_contains / url_excludes: substring of the request URL
//   - record_count: number of records returned
//   - total_available: records available before limiting
//   - fault_message: the query failed with exactly this remote message
//   - error_code: the query failed with this engine error code
//   - schema_fields: inferred field names, in order
//   - field_type: inferred data type of one field
//
// # Deterministic Testing
//
// Every run uses a sequence run ID generator, a step clock and a fixed
// bearer token, so the snapshot compared by RunWithGolden is byte-stable.
package harness
