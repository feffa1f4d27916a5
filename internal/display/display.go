// Package display implements the out-of-core output formatter (spec
// §1 "Lisp/JSON output formatter"): rendering a Symbol as JSON, as an
// s-expression, or through an arbitrary text/template, for the search
// and graph CLI subcommands. None of the core components depend on
// it; it exists only so the CLI has somewhere to turn a Symbol into
// text (§6 "search ... -f json|sexp|<format>").
package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/standardbeagle/bdx/internal/types"
)

// Format selects how Render renders one Symbol.
type Format int

const (
	// Default renders "<basename>: <name>", matching the original
	// tool's default format string.
	Default Format = iota
	JSON
	Sexp
	// Template renders through a user-supplied text/template string,
	// the Go replacement for the original's Python str.format escape
	// hatch (SPEC_FULL.md "SUPPLEMENTED FEATURES").
	Template
)

// Formatter renders Symbols to text. It is stateless except for a
// compiled template when Format is Template, so one Formatter can be
// reused across every hit in a result set.
type Formatter struct {
	format   Format
	demangle bool
	tmpl     *template.Template
}

// New builds a Formatter. demangleNames controls whether Name is
// swapped for Demangled when rendering (spec §6 "--demangle-names").
// templateText is only consulted when format is Template.
func New(format Format, demangleNames bool, templateText string) (*Formatter, error) {
	f := &Formatter{format: format, demangle: demangleNames}
	if format == Template {
		t, err := template.New("bdx-format").Parse(templateText)
		if err != nil {
			return nil, fmt.Errorf("display: invalid --format template: %w", err)
		}
		f.tmpl = t
	}
	return f, nil
}

// ParseFormat maps a -f/--format CLI value to a Format plus the
// template body, if the value doesn't name a built-in format.
func ParseFormat(value string) (format Format, templateText string) {
	switch value {
	case "", "default":
		return Default, ""
	case "json":
		return JSON, ""
	case "sexp":
		return Sexp, ""
	default:
		return Template, value
	}
}

// fields returns a Symbol's display fields as an ordered list of
// (key, value) pairs, mirroring the original's asdict() field set
// plus a derived "basename".
func (f *Formatter) fields(sym types.Symbol) []field {
	name := sym.Name
	if f.demangle && sym.Demangled != "" {
		name = sym.Demangled
	}
	return []field{
		{"basename", basename(sym.Path)},
		{"path", sym.Path},
		{"source", sym.Source},
		{"name", name},
		{"section", sym.Section},
		{"address", sym.Address},
		{"size", sym.Size},
		{"type", sym.Type.String()},
		{"relocations", sym.Relocations},
		{"mtime", sym.Mtime.Unix()},
	}
}

type field struct {
	key string
	val interface{}
}

// Render renders one Symbol according to the Formatter's format.
func (f *Formatter) Render(sym types.Symbol) (string, error) {
	switch f.format {
	case JSON:
		return f.renderJSON(sym)
	case Sexp:
		return f.renderSexp(sym), nil
	case Template:
		return f.renderTemplate(sym)
	default:
		fields := f.fields(sym)
		return fmt.Sprintf("%s: %s", mustString(fields, "basename"), mustString(fields, "name")), nil
	}
}

func (f *Formatter) renderJSON(sym types.Symbol) (string, error) {
	fields := f.fields(sym)
	m := make(map[string]interface{}, len(fields))
	for _, fl := range fields {
		if fl.key == "basename" {
			continue // the original's json format drops the derived basename
		}
		m[fl.key] = fl.val
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// renderSexp renders a Symbol as a flat association-list
// s-expression, e.g. ((name . "foo") (address . #x1000) ...).
func (f *Formatter) renderSexp(sym types.Symbol) string {
	fields := f.fields(sym)
	var b strings.Builder
	b.WriteString("(")
	first := true
	for _, fl := range fields {
		if fl.key == "basename" {
			continue
		}
		if !first {
			b.WriteString(" ")
		}
		first = false
		b.WriteString("(")
		b.WriteString(fl.key)
		b.WriteString(" . ")
		b.WriteString(sexpValue(fl.val))
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

func sexpValue(v interface{}) string {
	switch t := v.(type) {
	case uint64:
		return "#x" + strconv.FormatUint(t, 16)
	case int64:
		return strconv.FormatInt(t, 10)
	case []string:
		sort.Strings(t)
		quoted := make([]string, len(t))
		for i, s := range t {
			quoted[i] = strconv.Quote(s)
		}
		return "(" + strings.Join(quoted, " ") + ")"
	case string:
		return strconv.Quote(t)
	default:
		return strconv.Quote(fmt.Sprintf("%v", t))
	}
}

func (f *Formatter) renderTemplate(sym types.Symbol) (string, error) {
	fields := f.fields(sym)
	data := make(map[string]interface{}, len(fields))
	for _, fl := range fields {
		data[fl.key] = fl.val
	}
	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("display: invalid --format template: %w", err)
	}
	return buf.String(), nil
}

func mustString(fields []field, key string) string {
	for _, fl := range fields {
		if fl.key == key {
			if s, ok := fl.val.(string); ok {
				return s
			}
		}
	}
	return ""
}

func basename(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}
