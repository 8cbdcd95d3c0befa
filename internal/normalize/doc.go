// Package normalize converts raw response bodies from either API surface
// into a record.RecordSet.
//
// The format is sniffed from the body: a leading '<' selects the SOAP/XML
// path, a leading '{' or '[' the OData/JSON path. A remote fault (SOAP Fault
// or OData error object) is returned as a *ProtocolFault carrying the remote
// message verbatim. A body that fits neither path is a *FormatError.
//
// Nothing here performs I/O. Normalizing the same body twice yields equal
// RecordSets.
package normalize
