// Package sqlparse turns the restricted SQL dialect users type into a
// queryir.ParsedQuery.
//
// Supported surface:
//
//	SELECT <* | col, ...> FROM <service>
//	  [WHERE <cond> [AND <cond>]*]
//	  [ORDER BY <field> [ASC|DESC]]
//	  [LIMIT <n>] [OFFSET <n>]
//	  [EXPAND <nav> [, <nav>]*]
//
// where <cond> is one of
//
//	field = | != | <> | > | < | >= | <= value
//	field LIKE 'pattern'
//	field IN (v1, v2, ...)
//	field BETWEEN x AND y
//	field IS [NOT] NULL
//	NOT field = value
//
// Parsing is lenient: the statement is first handed to a full MySQL grammar
// (github.com/xwb1989/sqlparser). When that fails, the text is split into
// clauses by keyword and each clause, and each WHERE condition, is parsed on
// its own. A clause that still cannot be understood is skipped and reported
// as a queryir.Diagnostic; the rest of the query survives. Parse never
// returns an error.
package sqlparse
