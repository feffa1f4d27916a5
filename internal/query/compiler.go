package query

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/hbollon/go-edlib"

	bdxerrors "github.com/standardbeagle/bdx/internal/errors"
	"github.com/standardbeagle/bdx/internal/schema"
)

// Options controls compilation-time behavior left configurable by the
// spec (§4.6).
type Options struct {
	// AutoWildcard compiles bare (unprefixed) terms as wildcards
	// against the default fields, so "foo" behaves as "name:foo*".
	// Resolved default: true (see SPEC_FULL.md Open Questions).
	AutoWildcard bool
}

// DefaultOptions matches the resolved Open Question: auto-wildcard on
// by default.
func DefaultOptions() Options { return Options{AutoWildcard: true} }

// Compile parses and compiles a raw query string into a bleve query
// against sch.
func Compile(raw string, sch *schema.Schema, opts Options) (query.Query, error) {
	ast, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return compileNode(ast, sch, opts)
}

func compileNode(n Node, sch *schema.Schema, opts Options) (query.Query, error) {
	switch v := n.(type) {
	case MatchAllNode:
		return bleve.NewMatchAllQuery(), nil

	case NotNode:
		child, err := compileNode(v.Child, sch, opts)
		if err != nil {
			return nil, err
		}
		bq := bleve.NewBooleanQuery()
		bq.AddMust(bleve.NewMatchAllQuery())
		bq.AddMustNot(child)
		return bq, nil

	case AndNode:
		parts, err := compileChildren(v.Children, sch, opts)
		if err != nil {
			return nil, err
		}
		return bleve.NewConjunctionQuery(parts...), nil

	case OrNode:
		parts, err := compileChildren(v.Children, sch, opts)
		if err != nil {
			return nil, err
		}
		return bleve.NewDisjunctionQuery(parts...), nil

	case FieldNode:
		f, ok := sch.Lookup(v.Field)
		if !ok {
			return nil, unknownFieldError(v.Field, sch)
		}
		if !v.HasValue {
			// Missing value after a field name: permissive empty
			// match (spec §4.6 "configurable: either an empty match
			// ... or a parse error"; resolved to permissive here).
			return bleve.NewMatchNoneQuery(), nil
		}
		return f.MakeQuery(v.Value, v.Wildcard)

	case BareNode:
		fields := sch.DefaultSearchFields()
		if len(fields) == 0 {
			return bleve.NewMatchNoneQuery(), nil
		}
		wildcard := v.Wildcard || opts.AutoWildcard
		parts := make([]query.Query, 0, len(fields))
		for _, f := range fields {
			q, err := f.MakeQuery(v.Value, wildcard)
			if err != nil {
				return nil, err
			}
			parts = append(parts, q)
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return bleve.NewDisjunctionQuery(parts...), nil

	default:
		return nil, fmt.Errorf("query: unhandled node %T", n)
	}
}

func compileChildren(children []Node, sch *schema.Schema, opts Options) ([]query.Query, error) {
	out := make([]query.Query, 0, len(children))
	for _, c := range children {
		q, err := compileNode(c, sch, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// unknownFieldError reports an unknown field name, suggesting the
// closest known field name via edit distance when one is plausible
// (spec §4.6 "Unknown field name -> error ... must be one of [...]").
func unknownFieldError(name string, sch *schema.Schema) error {
	names := sch.Names()
	msg := fmt.Sprintf("Unknown field %q, must be one of [%s]", name, strings.Join(names, ", "))

	if suggestion, err := edlib.FuzzySearch(name, names, edlib.Levenshtein); err == nil && suggestion != "" {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, suggestion)
	}

	return &bdxerrors.QueryParseError{
		Position: 0,
		Message:  msg,
	}
}
