package sqlparse

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/roach88/lnquery/internal/queryir"
)

// Parse converts SQL text into a ParsedQuery plus the list of clauses that
// were skipped. It is a pure function and safe for concurrent use.
func Parse(sql string) (queryir.ParsedQuery, []queryir.Diagnostic) {
	p := &parser{}
	text := strings.TrimSpace(sql)
	text = strings.TrimSpace(strings.TrimSuffix(text, ";"))
	if text == "" {
		p.skip("", "empty query")
		return p.query, p.diags
	}

	text, expand := extractExpand(text)
	if expand != nil {
		p.parseExpand(expand.body)
	}

	stmt, err := sqlparser.Parse(text)
	if err == nil {
		if sel, ok := stmt.(*sqlparser.Select); ok {
			p.fromSelect(sel)
			return p.query, p.diags
		}
		p.skip(text, fmt.Sprintf("unsupported statement %T", stmt))
		return p.query, p.diags
	}

	p.lenient(text)
	return p.query, p.diags
}

// parser accumulates the query and diagnostics for a single Parse call.
type parser struct {
	query queryir.ParsedQuery
	diags []queryir.Diagnostic
}

func (p *parser) skip(clause, reason string) {
	p.diags = append(p.diags, queryir.Diagnostic{Clause: strings.TrimSpace(clause), Reason: reason})
}

func (p *parser) addCondition(c queryir.Condition, clause string) {
	if err := queryir.ValidateCondition(c); err != nil {
		p.skip(clause, err.Error())
		return
	}
	p.query.Conditions = append(p.query.Conditions, c)
}

// fromSelect converts a fully parsed SELECT statement.
func (p *parser) fromSelect(sel *sqlparser.Select) {
	p.selectList(sel.SelectExprs)

	if len(sel.From) > 0 {
		if len(sel.From) > 1 {
			p.skip(sqlparser.String(sel.From), "only a single FROM target is supported; using the first")
		}
		p.fromTable(sel.From[0])
	}

	if sel.Where != nil {
		p.whereExpr(sel.Where.Expr)
	}
	if len(sel.GroupBy) > 0 {
		p.skip(sqlparser.String(sel.GroupBy), "GROUP BY is not supported")
	}
	if sel.Having != nil {
		p.skip(sqlparser.String(sel.Having), "HAVING is not supported")
	}

	for i, order := range sel.OrderBy {
		if i > 0 {
			p.skip(sqlparser.String(order), "only the first ORDER BY key is used")
			continue
		}
		col, ok := order.Expr.(*sqlparser.ColName)
		if !ok {
			p.skip(sqlparser.String(order), "ORDER BY requires a plain column")
			continue
		}
		dir := queryir.Asc
		if strings.EqualFold(order.Direction, sqlparser.DescScr) {
			dir = queryir.Desc
		}
		p.query.OrderBy = &queryir.OrderBy{Field: col.Name.String(), Direction: dir}
	}

	if sel.Limit != nil {
		if sel.Limit.Rowcount != nil {
			if n, ok := p.intExpr(sel.Limit.Rowcount, "LIMIT"); ok {
				p.query.Limit = &n
			}
		}
		if sel.Limit.Offset != nil {
			if n, ok := p.intExpr(sel.Limit.Offset, "OFFSET"); ok {
				p.query.Offset = &n
			}
		}
	}
}

func (p *parser) selectList(exprs sqlparser.SelectExprs) {
	for _, expr := range exprs {
		switch e := expr.(type) {
		case *sqlparser.StarExpr:
			// SELECT * selects everything; explicit columns still win.
		case *sqlparser.AliasedExpr:
			col, ok := e.Expr.(*sqlparser.ColName)
			if !ok {
				p.skip(sqlparser.String(e), "only plain columns can be selected")
				continue
			}
			p.query.Fields = append(p.query.Fields, col.Name.String())
		default:
			p.skip(sqlparser.String(expr), "unsupported select expression")
		}
	}
}

func (p *parser) fromTable(expr sqlparser.TableExpr) {
	aliased, ok := expr.(*sqlparser.AliasedTableExpr)
	if !ok {
		p.skip(sqlparser.String(expr), "joins are not supported")
		return
	}
	name, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		p.skip(sqlparser.String(expr), "subqueries are not supported")
		return
	}
	p.query.Service = name.Name.String()
}

// whereExpr flattens the AND tree and converts each leaf.
func (p *parser) whereExpr(expr sqlparser.Expr) {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		p.whereExpr(e.Left)
		p.whereExpr(e.Right)
	case *sqlparser.ParenExpr:
		p.whereExpr(e.Expr)
	case *sqlparser.OrExpr:
		p.skip(sqlparser.String(e), "OR is not supported")
	default:
		cond, err := convertCondition(expr)
		if err != nil {
			p.skip(sqlparser.String(expr), err.Error())
			return
		}
		p.addCondition(cond, sqlparser.String(expr))
	}
}

func (p *parser) intExpr(expr sqlparser.Expr, clause string) (int, bool) {
	v, err := convertValue(expr)
	if err != nil {
		p.skip(clause+" "+sqlparser.String(expr), err.Error())
		return 0, false
	}
	n, ok := asInt(v)
	if !ok || n < 0 {
		p.skip(clause+" "+sqlparser.String(expr), "expected a non-negative integer")
		return 0, false
	}
	return n, true
}

func (p *parser) parseExpand(body string) {
	for _, part := range strings.Split(body, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if !isIdentifier(name) {
			p.skip("EXPAND "+name, "invalid navigation property")
			continue
		}
		p.query.Expand = append(p.query.Expand, name)
	}
}
