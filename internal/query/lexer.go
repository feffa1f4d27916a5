// Package query implements the query grammar (spec §4.6): a lexer, a
// recursive-descent parser producing a small AST, and a compiler that
// turns the AST into a bleve query.Query against a schema.Schema.
package query

import "regexp"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokString
	tokField
	tokMatchAll
	tokStar
	tokTerm
)

type token struct {
	kind tokenKind
	text string // field name (without ":"), string/term body, etc.
	pos  int    // 0-indexed byte position where this token starts
}

// Lexer priority order, matching spec §4.6: whitespace, AND, OR,
// NOT/!, (, ), string, field, *:*, *, term.
var (
	reWhitespace = regexp.MustCompile(`^[ \t\n\r]+`)
	reAnd        = regexp.MustCompile(`^AND\b`)
	reOr         = regexp.MustCompile(`^OR\b`)
	reNot        = regexp.MustCompile(`^(NOT\b|!)`)
	reLParen     = regexp.MustCompile(`^\(`)
	reRParen     = regexp.MustCompile(`^\)`)
	reString     = regexp.MustCompile(`^"[^"]*"`)
	reField      = regexp.MustCompile(`^[A-Za-z_]+:`)
	reMatchAll   = regexp.MustCompile(`^\*:\*`)
	reStar       = regexp.MustCompile(`^\*`)
	reTerm       = regexp.MustCompile(`^[^ \t\n\r()*]+`)
)

// lex tokenizes the full input, skipping unknown bytes (spec §4.6
// "unknown bytes are skipped by default").
func lex(input string) []token {
	var toks []token
	pos := 0
	for pos < len(input) {
		rest := input[pos:]

		if m := reWhitespace.FindString(rest); m != "" {
			pos += len(m)
			continue
		}
		if m := reAnd.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokAnd, text: m, pos: pos})
			pos += len(m)
			continue
		}
		if m := reOr.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokOr, text: m, pos: pos})
			pos += len(m)
			continue
		}
		if m := reNot.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokNot, text: m, pos: pos})
			pos += len(m)
			continue
		}
		if m := reLParen.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokLParen, text: m, pos: pos})
			pos += len(m)
			continue
		}
		if m := reRParen.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokRParen, text: m, pos: pos})
			pos += len(m)
			continue
		}
		if m := reString.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokString, text: m[1 : len(m)-1], pos: pos})
			pos += len(m)
			continue
		}
		if m := reField.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokField, text: m[:len(m)-1], pos: pos})
			pos += len(m)
			continue
		}
		if m := reMatchAll.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokMatchAll, text: m, pos: pos})
			pos += len(m)
			continue
		}
		if m := reStar.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokStar, text: m, pos: pos})
			pos += len(m)
			continue
		}
		if m := reTerm.FindString(rest); m != "" {
			toks = append(toks, token{kind: tokTerm, text: m, pos: pos})
			pos += len(m)
			continue
		}

		// Unknown byte: skip it.
		pos++
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks
}
