package sqlparse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/xwb1989/sqlparser"

	"github.com/roach88/lnquery/internal/ir"
	"github.com/roach88/lnquery/internal/queryir"
)

// word is a keyword-shaped token found outside quotes and parentheses.
type word struct {
	text       string
	start, end int
}

// topLevelWords returns the bare words of text that sit at parenthesis depth
// zero and outside any quoted section.
func topLevelWords(text string) []word {
	var (
		words []word
		quote rune
		depth int
		start = -1
	)
	flush := func(end int) {
		if start >= 0 {
			words = append(words, word{text: text[start:end], start: start, end: end})
			start = -1
		}
	}
	for i, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			continue
		case r == '\'' || r == '"' || r == '`':
			flush(i)
			quote = r
			continue
		case r == '(':
			flush(i)
			depth++
			continue
		case r == ')':
			flush(i)
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 {
			continue
		}
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return words
}

type expandClause struct {
	body string
}

var expandStops = map[string]bool{"where": true, "order": true, "limit": true, "offset": true}

// extractExpand removes a top-level EXPAND clause from text. The clause runs
// until the next WHERE, ORDER BY, LIMIT or OFFSET keyword.
func extractExpand(text string) (string, *expandClause) {
	words := topLevelWords(text)
	for i, w := range words {
		if !strings.EqualFold(w.text, "expand") {
			continue
		}
		end := len(text)
		for _, next := range words[i+1:] {
			if expandStops[strings.ToLower(next.text)] {
				end = next.start
				break
			}
		}
		body := strings.TrimSpace(text[w.end:end])
		rest := strings.TrimSpace(text[:w.start]) + " " + strings.TrimSpace(text[end:])
		return strings.TrimSpace(rest), &expandClause{body: body}
	}
	return text, nil
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

func isIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// clause is one keyword-delimited section of the statement.
type clause struct {
	keyword string
	body    string
}

var clauseKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "order": true,
	"group": true, "having": true, "limit": true, "offset": true,
}

// splitClauses cuts text at top-level clause keywords. ORDER and GROUP only
// count when followed by BY.
func splitClauses(text string) (lead string, clauses []clause) {
	words := topLevelWords(text)
	type mark struct {
		keyword   string
		start     int
		bodyStart int
	}
	var marks []mark
	for i := 0; i < len(words); i++ {
		kw := strings.ToLower(words[i].text)
		if !clauseKeywords[kw] {
			continue
		}
		start, bodyStart := words[i].start, words[i].end
		if kw == "order" || kw == "group" {
			if i+1 >= len(words) || !strings.EqualFold(words[i+1].text, "by") {
				continue
			}
			bodyStart = words[i+1].end
			i++
		}
		marks = append(marks, mark{keyword: kw, start: start, bodyStart: bodyStart})
	}
	if len(marks) == 0 {
		return text, nil
	}
	lead = strings.TrimSpace(text[:marks[0].start])
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		clauses = append(clauses, clause{keyword: m.keyword, body: strings.TrimSpace(text[m.bodyStart:end])})
	}
	return lead, clauses
}

// lenient parses text clause by clause when the full grammar rejects it.
// Every clause that cannot be understood is recorded and skipped.
func (p *parser) lenient(text string) {
	lead, clauses := splitClauses(text)
	hasSelect := false
	for _, c := range clauses {
		if c.keyword == "select" || c.keyword == "from" {
			hasSelect = true
		}
	}
	if !hasSelect {
		p.skip(text, "not a SELECT statement")
		return
	}
	if lead != "" {
		p.skip(lead, "unexpected text before SELECT")
	}

	for _, c := range clauses {
		switch c.keyword {
		case "select":
			p.lenientSelect(c.body)
		case "from":
			p.lenientFrom(c.body)
		case "where":
			p.lenientWhere(c.body)
		case "order":
			p.lenientOrder(c.body)
		case "limit":
			p.lenientLimit(c.body)
		case "offset":
			if n, ok := p.atoi("OFFSET", c.body); ok {
				p.query.Offset = &n
			}
		case "group":
			p.skip("GROUP BY "+c.body, "GROUP BY is not supported")
		case "having":
			p.skip("HAVING "+c.body, "HAVING is not supported")
		}
	}
}

func (p *parser) lenientSelect(body string) {
	for _, part := range splitTopLevel(body, ',') {
		name := unquoteIdent(part)
		switch {
		case name == "*" || name == "":
		case isIdentifier(name):
			p.query.Fields = append(p.query.Fields, name)
		default:
			p.skip(part, "only plain columns can be selected")
		}
	}
}

var fromTargetRe = regexp.MustCompile("^`?([A-Za-z0-9_.]+)`?")

func (p *parser) lenientFrom(body string) {
	m := fromTargetRe.FindStringSubmatchIndex(body)
	if m == nil {
		p.skip("FROM "+body, "missing FROM target")
		return
	}
	p.query.Service = body[m[2]:m[3]]
	if rest := strings.TrimSpace(body[m[1]:]); rest != "" {
		p.skip(rest, "only a single FROM target is supported")
	}
}

// lenientWhere splits the WHERE body on top-level AND, keeping the AND that
// belongs to a BETWEEN, and parses each condition on its own.
func (p *parser) lenientWhere(body string) {
	words := topLevelWords(body)
	var parts []string
	last := 0
	inBetween := false
	for _, w := range words {
		switch strings.ToLower(w.text) {
		case "between":
			inBetween = true
		case "and":
			if inBetween {
				inBetween = false
				continue
			}
			parts = append(parts, body[last:w.start])
			last = w.end
		}
	}
	parts = append(parts, body[last:])

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			p.skip("AND", "empty condition")
			continue
		}
		p.lenientCondition(part)
	}
}

var leadingIdentRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)`)

func (p *parser) lenientCondition(cond string) {
	quoted := cond
	if m := leadingIdentRe.FindStringIndex(cond); m != nil && !strings.EqualFold(cond[:m[1]], "not") {
		// Quote the column so reserved words like key or status still parse.
		quoted = "`" + cond[:m[1]] + "`" + cond[m[1]:]
	}
	stmt, err := sqlparser.Parse("select * from t where " + quoted)
	if err != nil {
		p.skip(cond, "malformed condition")
		return
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok || sel.Where == nil {
		p.skip(cond, "malformed condition")
		return
	}
	if _, isOr := sel.Where.Expr.(*sqlparser.OrExpr); isOr {
		p.skip(cond, "OR is not supported")
		return
	}
	p.whereExpr(sel.Where.Expr)
}

var orderKeyRe = regexp.MustCompile("(?i)^`?([A-Za-z_][A-Za-z0-9_.]*)`?(?:\\s+(asc|desc))?$")

func (p *parser) lenientOrder(body string) {
	for i, key := range splitTopLevel(body, ',') {
		if i > 0 {
			p.skip("ORDER BY "+key, "only the first ORDER BY key is used")
			continue
		}
		m := orderKeyRe.FindStringSubmatch(key)
		if m == nil {
			p.skip("ORDER BY "+key, "ORDER BY requires a plain column")
			continue
		}
		dir := queryir.Asc
		if strings.EqualFold(m[2], "desc") {
			dir = queryir.Desc
		}
		p.query.OrderBy = &queryir.OrderBy{Field: m[1], Direction: dir}
	}
}

func (p *parser) lenientLimit(body string) {
	parts := splitTopLevel(body, ',')
	switch len(parts) {
	case 1:
		if n, ok := p.atoi("LIMIT", parts[0]); ok {
			p.query.Limit = &n
		}
	case 2:
		// MySQL form: LIMIT offset, count
		if off, ok := p.atoi("LIMIT", parts[0]); ok {
			p.query.Offset = &off
		}
		if n, ok := p.atoi("LIMIT", parts[1]); ok {
			p.query.Limit = &n
		}
	default:
		p.skip("LIMIT "+body, "expected LIMIT n or LIMIT offset, n")
	}
}

func (p *parser) atoi(keyword, s string) (int, bool) {
	v, err := ir.ParseNumber(strings.TrimSpace(s))
	if err != nil {
		p.skip(keyword+" "+s, "expected a non-negative integer")
		return 0, false
	}
	n, ok := asInt(v)
	if !ok || n < 0 {
		p.skip(keyword+" "+s, "expected a non-negative integer")
		return 0, false
	}
	return n, true
}

// splitTopLevel splits s on sep where sep is not quoted or parenthesized.
func splitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		quote rune
		depth int
		last  int
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(s[last:i]))
			last = i + 1
		}
	}
	return append(parts, strings.TrimSpace(s[last:]))
}

func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '`' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
