package console

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/ougirez/sisagua/internal/pkg/constants"
)

var (
	ErrEmptyQuery         = errors.New("empty query")
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
	ErrNotReadOnly        = errors.New("only SELECT and WITH queries are allowed")
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenQuotedIdent
	tokenString
	tokenParam
	tokenNumber
	tokenSymbol
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits a query into words, quoted identifiers, literals and
// symbols. Comments are dropped.
func tokenize(query string) []token {
	rs := []rune(query)
	var tokens []token

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			i += 2
			for i < len(rs) && !(rs[i] == '*' && i+1 < len(rs) && rs[i+1] == '/') {
				i++
			}
			i += 2
		case r == '\'':
			j := closing(rs, i, '\'')
			tokens = append(tokens, token{kind: tokenString, text: string(rs[i:j])})
			i = j
		case r == '"' || r == '`':
			j := closing(rs, i, r)
			inner := strings.ReplaceAll(string(rs[i+1:max(i+1, j-1)]), string([]rune{r, r}), string(r))
			tokens = append(tokens, token{kind: tokenQuotedIdent, text: inner})
			i = j
		case r == '[':
			j := i + 1
			for j < len(rs) && rs[j] != ']' {
				j++
			}
			tokens = append(tokens, token{kind: tokenQuotedIdent, text: string(rs[i+1 : min(j, len(rs))])})
			i = min(j+1, len(rs))
		case r == ':' || r == '@' || r == '$' || r == '?':
			j := i + 1
			for j < len(rs) && isWordRune(rs[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenParam, text: string(rs[i:j])})
			i = j
		case unicode.IsDigit(r):
			j := i
			for j < len(rs) && (isWordRune(rs[j]) || rs[j] == '.') {
				j++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: string(rs[i:j])})
			i = j
		case isWordRune(r):
			j := i
			for j < len(rs) && isWordRune(rs[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenWord, text: string(rs[i:j])})
			i = j
		default:
			tokens = append(tokens, token{kind: tokenSymbol, text: string(r)})
			i++
		}
	}

	return tokens
}

// closing returns the index just past the quote that closes rs[start]; a doubled quote is an escape.
func closing(rs []rune, start int, quote rune) int {
	for j := start + 1; j < len(rs); j++ {
		if rs[j] != quote {
			continue
		}
		if j+1 < len(rs) && rs[j+1] == quote {
			j++
			continue
		}
		return j + 1
	}
	return len(rs)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// normalizeQuery trims the query and its trailing semicolons, then rejects
// anything that is not a single read-only statement.
func normalizeQuery(query string) (string, []token, error) {
	query = strings.TrimSpace(query)
	for strings.HasSuffix(query, ";") {
		query = strings.TrimSpace(strings.TrimSuffix(query, ";"))
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return "", nil, ErrEmptyQuery
	}
	for _, t := range tokens {
		if t.kind == tokenSymbol && t.text == ";" {
			return "", nil, ErrMultipleStatements
		}
	}

	first := ""
	for _, t := range tokens {
		if t.kind == tokenSymbol && t.text == "(" {
			continue
		}
		first = strings.ToUpper(t.text)
		break
	}
	if first != "SELECT" && first != "WITH" {
		return "", nil, ErrNotReadOnly
	}

	return query, tokens, nil
}

// nameIndex holds the exact loaded table and column names and their case-folded forms.
type nameIndex struct {
	tables  map[string]struct{}
	columns map[string]struct{}
	// folded maps strings.ToLower(name) to the loaded spelling.
	foldedTables  map[string]string
	foldedColumns map[string]string
}

func newNameIndex(tables []*Table) *nameIndex {
	idx := &nameIndex{
		tables:        make(map[string]struct{}),
		columns:       make(map[string]struct{}),
		foldedTables:  make(map[string]string),
		foldedColumns: make(map[string]string),
	}
	for _, t := range tables {
		idx.tables[t.Name] = struct{}{}
		idx.foldedTables[strings.ToLower(t.Name)] = t.Name
		for _, c := range t.Columns {
			idx.columns[c] = struct{}{}
			idx.foldedColumns[strings.ToLower(c)] = c
		}
	}
	return idx
}

func (idx *nameIndex) known(name string) bool {
	_, isTable := idx.tables[name]
	_, isColumn := idx.columns[name]
	return isTable || isColumn
}

// checkIdentifiers rejects identifiers that name a loaded table or column in a
// different letter case. The engine would resolve them case-insensitively or
// not at all, so they are reported before execution.
func (idx *nameIndex) checkIdentifiers(tokens []token) error {
	declared := declaredNames(tokens)

	for i, t := range tokens {
		if t.kind != tokenWord && t.kind != tokenQuotedIdent {
			continue
		}
		if t.kind == tokenWord && isKeyword(t.text) {
			continue
		}
		if idx.known(t.text) {
			continue
		}
		if _, ok := declared[t.text]; ok {
			continue
		}
		// function call
		if t.kind == tokenWord && i+1 < len(tokens) && tokens[i+1].kind == tokenSymbol && tokens[i+1].text == "(" {
			continue
		}

		folded := strings.ToLower(t.text)
		if name, ok := idx.foldedTables[folded]; ok {
			return &constants.QueryExecutionError{
				Msg:  fmt.Sprintf("unknown table %q (did you mean %q?)", t.text, name),
				Hint: constants.CaseSensitivityHint,
			}
		}
		if name, ok := idx.foldedColumns[folded]; ok {
			return &constants.QueryExecutionError{
				Msg:  fmt.Sprintf("unknown column %q (did you mean %q?)", t.text, name),
				Hint: constants.CaseSensitivityHint,
			}
		}
	}

	return nil
}

// declaredNames collects aliases introduced with AS, CTE names (`name AS (`)
// and bare aliases following a table reference or a parenthesized subquery in
// the FROM clause (`FROM Estado e, Municipio m JOIN Analise a`).
func declaredNames(tokens []token) map[string]struct{} {
	declared := make(map[string]struct{})
	inFrom := false

	for i, t := range tokens {
		switch {
		case t.kind == tokenWord && strings.EqualFold(t.text, "AS"):
			if i+1 < len(tokens) {
				next := tokens[i+1]
				if next.kind == tokenWord || next.kind == tokenQuotedIdent {
					declared[next.text] = struct{}{}
				}
				if next.kind == tokenSymbol && next.text == "(" && i > 0 {
					declared[tokens[i-1].text] = struct{}{}
				}
			}

		case t.kind == tokenWord && (strings.EqualFold(t.text, "FROM") || strings.EqualFold(t.text, "JOIN")):
			inFrom = true
			declareAlias(tokens, tableRefEnd(tokens, i+1), declared)

		case t.kind == tokenSymbol && t.text == "," && inFrom:
			declareAlias(tokens, tableRefEnd(tokens, i+1), declared)

		case t.kind == tokenSymbol && t.text == ")":
			declareAlias(tokens, i+1, declared)

		case t.kind == tokenWord && isClauseEnd(t.text):
			inFrom = false
		}
	}

	return declared
}

// tableRefEnd returns the index just past a possibly qualified table name starting at i.
func tableRefEnd(tokens []token, i int) int {
	if i >= len(tokens) || (tokens[i].kind != tokenWord && tokens[i].kind != tokenQuotedIdent) {
		return i
	}
	i++
	for i+1 < len(tokens) && tokens[i].kind == tokenSymbol && tokens[i].text == "." {
		i += 2
	}
	return i
}

func declareAlias(tokens []token, i int, declared map[string]struct{}) {
	if i >= len(tokens) {
		return
	}
	t := tokens[i]
	if t.kind == tokenQuotedIdent || (t.kind == tokenWord && !isKeyword(t.text)) {
		declared[t.text] = struct{}{}
	}
}

func isClauseEnd(word string) bool {
	switch strings.ToUpper(word) {
	case "WHERE", "GROUP", "ORDER", "HAVING", "LIMIT", "WINDOW", "UNION", "INTERSECT", "EXCEPT", "SELECT":
		return true
	}
	return false
}

func isKeyword(word string) bool {
	_, ok := sqlKeywords[strings.ToUpper(word)]
	return ok
}

// sqlKeywords are the SQLite keywords a bare word can never be an identifier for.
var sqlKeywords = map[string]struct{}{}

func init() {
	for _, kw := range strings.Fields(`
		ABORT ALL ALWAYS AND AS ASC BETWEEN BY CASE CAST COLLATE CROSS CURRENT
		CURRENT_DATE CURRENT_TIME CURRENT_TIMESTAMP DESC DISTINCT ELSE END ESCAPE
		EXCEPT EXCLUDE EXISTS FILTER FIRST FOLLOWING FROM FULL GLOB GROUP GROUPS
		HAVING IN INDEXED INNER INTERSECT IS ISNULL JOIN LAST LEFT LIKE LIMIT
		MATCH MATERIALIZED NATURAL NO NOT NOTHING NOTNULL NULL NULLS OF OFFSET ON
		OR ORDER OTHERS OUTER OVER PARTITION PRECEDING RANGE RECURSIVE REGEXP
		RIGHT ROW ROWS SELECT THEN TIES TO UNBOUNDED UNION USING VALUES WHEN
		WHERE WINDOW WITH`) {
		sqlKeywords[kw] = struct{}{}
	}
}
