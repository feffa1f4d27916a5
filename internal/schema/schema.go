// Package schema defines, per field, how a Symbol value is
// tokenized/serialized into the Index Store's documents, and how a
// user-level query value maps back to an index-level predicate
// (spec §4.3). It is built on top of blevesearch/bleve/v2, the
// general-purpose index engine the Index Store façade wraps.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/standardbeagle/bdx/pkg/pathutil"
	"github.com/standardbeagle/bdx/internal/tokenizer"
	"github.com/standardbeagle/bdx/internal/types"
)

// MaxTermSize is the term length cap (including any prefix),
// inherited from the underlying index engine's term-size limit
// (spec §6).
const MaxTermSize = 244

// Stable field prefixes, preserved across index format versions
// (spec §6 "Persisted index layout"). bleve documents are keyed by
// field name rather than byte-prefixed terms, so these constants
// double as the literal bleve field keys.
const (
	PrefixPath        = "XP"
	PrefixSource      = "XS"
	PrefixName        = "XN"
	PrefixFullname    = "XF"
	PrefixSection     = "XSN"
	PrefixRelocations = "XR"
	PrefixType        = "XT"
)

// Value-slot field keys (spec §6: "Value slots: 0 address, 1 size,
// 2 mtime").
const (
	SlotAddress = "addr"
	SlotSize    = "size"
	SlotMtime   = "mtime"
)

// BlobField carries the full serialized Symbol so a search hit can be
// reconstructed without a second lookup (spec §4.5 "add_symbol").
const BlobField = "_blob"

// pathAbsSuffix is reserved for an absolute-path companion field; no
// field of this name is indexed or mapped (pathField.MakeQuery queries
// the absolute form against the prefix field itself).
const pathAbsSuffix = "_abs"

// pathBaseSuffix names the companion field holding a path's basename.
const pathBaseSuffix = "_base"

// Field is one schema-defined column: it knows how to index a Go
// value into a bleve document and how to compile a query-level value
// into a bleve predicate.
type Field interface {
	Name() string
	Prefix() string
	// Index mutates doc, adding whatever bleve fields this Field's
	// codec needs to represent value.
	Index(doc map[string]interface{}, value interface{})
	// MakeQuery compiles a raw query-level value (already quote/escape
	// stripped) into a predicate. wildcard indicates the value had a
	// trailing/embedded `*`, or auto-wildcard is in effect.
	MakeQuery(value string, wildcard bool) (query.Query, error)
}

// Schema is the ordered, fixed set of Field definitions bdx indexes
// every Symbol with. It is process-wide and persisted to the index on
// first write (spec §3 "Schema").
type Schema struct {
	fields  []Field
	byName  map[string]Field
}

// New builds a Schema from an ordered field list, rejecting duplicate
// names.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{fields: fields, byName: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if _, dup := s.byName[f.Name()]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q", f.Name())
		}
		s.byName[f.Name()] = f
	}
	return s, nil
}

// Default returns the schema used by the core (spec §3 "fields used by
// the core").
func Default() *Schema {
	s, err := New(
		NewPathField("path", PrefixPath),
		NewPathField("source", PrefixSource),
		NewSymbolNameField("name", PrefixName),
		NewTokenField("fullname", PrefixFullname, false),
		NewTokenField("section", PrefixSection, true),
		NewIntegerField("address", SlotAddress),
		NewIntegerField("size", SlotSize),
		NewTypeField("type", PrefixType),
		NewRelocationsField("relocations", PrefixRelocations),
		NewIntegerField("mtime", SlotMtime),
	)
	if err != nil {
		panic(err) // the built-in schema is a programming invariant
	}
	return s
}

// Fields returns the ordered field list.
func (s *Schema) Fields() []Field { return s.fields }

// Lookup finds a field by name.
func (s *Schema) Lookup(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Names returns the sorted list of field names, e.g. for "must be one
// of [...]" error messages (spec §4.6).
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// DefaultSearchFields returns the fields a bare (unprefixed) query
// term is OR'd/wildcarded against: the name (tokenized) field.
func (s *Schema) DefaultSearchFields() []Field {
	if f, ok := s.byName["name"]; ok {
		return []Field{f}
	}
	return nil
}

// Fingerprint is a structural signature of the schema used to detect
// drift between the in-code schema and one persisted to an index
// (spec §3 invariant "Schema persisted on disk equals the in-code
// schema on every open").
func (s *Schema) Fingerprint() string {
	var b strings.Builder
	for _, f := range s.fields {
		fmt.Fprintf(&b, "%s:%s;", f.Name(), f.Prefix())
	}
	return b.String()
}

// BuildIndexMapping returns the bleve index mapping every Store opens
// with. Every term field (the XP/XS/XN/XF/XSN/XR/XT prefixes and the
// path companion _base fields) uses the keyword analyzer so a value is
// indexed as a single unanalyzed term: the default standard analyzer
// would tokenize on punctuation and lowercase everything, which
// silently turns every exact/prefix TermQuery MakeQuery issues into a
// non-match (a path's "/" or a section's "." would otherwise split the
// term; an upper-case enum value would otherwise never match its own
// unanalyzed query term). pathField never stores a separate _abs
// field — MakeQuery resolves the absolute form as an alternate query
// term against the same prefix field instead — so only _base has a
// mapping entry here. Value slots get the numeric mapping; the blob
// field is stored only, never indexed. Mirrors the aide-pkg-store
// symbol mapping's keyword fields for exact-match filtering, built the
// same way (bleve.NewDocumentMapping + AddFieldMappingsAt).
func BuildIndexMapping() *mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()

	term := bleve.NewTextFieldMapping()
	term.Analyzer = keyword.Name
	for _, name := range []string{
		PrefixPath, PrefixPath + pathBaseSuffix,
		PrefixSource, PrefixSource + pathBaseSuffix,
		PrefixName, PrefixFullname, PrefixSection, PrefixRelocations, PrefixType,
	} {
		doc.AddFieldMappingsAt(name, term)
	}

	num := bleve.NewNumericFieldMapping()
	for _, slot := range []string{SlotAddress, SlotSize, SlotMtime} {
		doc.AddFieldMappingsAt(slot, num)
	}

	blob := bleve.NewTextFieldMapping()
	blob.Analyzer = keyword.Name
	blob.Index = false
	doc.AddFieldMappingsAt(BlobField, blob)

	im.DefaultMapping = doc
	return im
}

// IndexSymbol builds the bleve document for sym by running every
// field's Index method, then attaches the serialized-Symbol blob.
func IndexSymbol(s *Schema, sym types.Symbol, blob string) map[string]interface{} {
	doc := make(map[string]interface{})
	values := map[string]interface{}{
		"path":        sym.Path,
		"source":      sym.Source,
		"name":        sym.Name,
		"fullname":    sym.Name,
		"section":     sym.Section,
		"address":     sym.Address,
		"size":        sym.Size,
		"type":        sym.Type.String(),
		"relocations": sym.Relocations,
		"mtime":       sym.Mtime.Unix(),
	}
	for _, f := range s.fields {
		f.Index(doc, values[f.Name()])
	}
	doc[BlobField] = blob
	return doc
}

// --- Token field ---

// tokenField stores the stringified value as a single term under the
// field's prefix key (spec §4.3 "Token field").
type tokenField struct {
	name      string
	prefix    string
	lowercase bool
}

func NewTokenField(name, prefix string, lowercase bool) Field {
	return &tokenField{name: name, prefix: prefix, lowercase: lowercase}
}

func (f *tokenField) Name() string   { return f.name }
func (f *tokenField) Prefix() string { return f.prefix }

func (f *tokenField) Index(doc map[string]interface{}, value interface{}) {
	s := stringify(value)
	if f.lowercase {
		s = strings.ToLower(s)
	}
	doc[f.prefix] = truncateTerm(f.prefix, s)
}

func (f *tokenField) MakeQuery(value string, wildcard bool) (query.Query, error) {
	if f.lowercase {
		value = strings.ToLower(value)
	}
	return termOrWildcard(f.prefix, value, wildcard), nil
}

// --- Integer field ---

// integerField stores a lexicographically sortable numeric slot and
// compiles literal/range query syntax (spec §4.3 "Integer field").
type integerField struct {
	name string
	slot string
}

func NewIntegerField(name, slot string) Field {
	return &integerField{name: name, slot: slot}
}

func (f *integerField) Name() string   { return f.name }
func (f *integerField) Prefix() string { return f.slot }

func (f *integerField) Index(doc map[string]interface{}, value interface{}) {
	doc[f.slot] = toFloat64(value)
}

func (f *integerField) MakeQuery(value string, _ bool) (query.Query, error) {
	lo, hi, err := parseIntegerOrRange(value)
	if err != nil {
		return nil, err
	}
	q := bleve.NewNumericRangeInclusiveQuery(lo, hi, boolPtr(lo != nil), boolPtr(hi != nil))
	q.SetField(f.slot)
	return q, nil
}

func parseIntegerOrRange(raw string) (lo, hi *float64, err error) {
	if idx := strings.Index(raw, ".."); idx >= 0 {
		loStr := raw[:idx]
		hiStr := raw[idx+2:]
		if loStr != "" {
			v, err := parseUint(loStr)
			if err != nil {
				return nil, nil, err
			}
			f := float64(v)
			lo = &f
		}
		if hiStr != "" {
			v, err := parseUint(hiStr)
			if err != nil {
				return nil, nil, err
			}
			f := float64(v)
			hi = &f
		}
		return lo, hi, nil
	}

	v, err := parseUint(raw)
	if err != nil {
		return nil, nil, err
	}
	f := float64(v)
	return &f, &f, nil
}

func parseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func boolPtr(b bool) *bool { return &b }

// --- Path field ---

// pathField stores the full path token and basename token; MakeQuery
// ORs a term for the value given with a term for its absolute form
// resolved under the current working directory, so relative queries
// match (spec §4.3 "Path field").
type pathField struct {
	name   string
	prefix string
}

func NewPathField(name, prefix string) Field {
	return &pathField{name: name, prefix: prefix}
}

func (f *pathField) Name() string   { return f.name }
func (f *pathField) Prefix() string { return f.prefix }

func (f *pathField) Index(doc map[string]interface{}, value interface{}) {
	s := stringify(value)
	doc[f.prefix] = truncateTerm(f.prefix, s)
	doc[f.prefix+pathBaseSuffix] = truncateTerm(f.prefix, pathutil.Base(s))
}

func (f *pathField) MakeQuery(value string, wildcard bool) (query.Query, error) {
	direct := termOrWildcard(f.prefix, value, wildcard)
	abs := pathutil.ToAbsolute(value)
	if abs == value {
		return direct, nil
	}
	absQ := termOrWildcard(f.prefix, abs, wildcard)
	return bleve.NewDisjunctionQuery(direct, absQ), nil
}

// --- Relocations field ---

// relocationsField is a multi-valued token field: every element of
// the input slice is indexed as its own term (spec §4.3 "Relocations
// field").
type relocationsField struct {
	name   string
	prefix string
}

func NewRelocationsField(name, prefix string) Field {
	return &relocationsField{name: name, prefix: prefix}
}

func (f *relocationsField) Name() string   { return f.name }
func (f *relocationsField) Prefix() string { return f.prefix }

func (f *relocationsField) Index(doc map[string]interface{}, value interface{}) {
	names, _ := value.([]string)
	terms := make([]string, 0, len(names))
	for _, n := range names {
		terms = append(terms, truncateTerm(f.prefix, strings.ToLower(n)))
	}
	doc[f.prefix] = terms
}

func (f *relocationsField) MakeQuery(value string, wildcard bool) (query.Query, error) {
	return termOrWildcard(f.prefix, strings.ToLower(value), wildcard), nil
}

// --- Symbol-name field ---

// symbolNameField indexes the tokenizer's multi-token expansion of a
// symbol name under the name field's prefix (spec §4.3 "Symbol-name
// field", §4.4).
type symbolNameField struct {
	name   string
	prefix string
}

func NewSymbolNameField(name, prefix string) Field {
	return &symbolNameField{name: name, prefix: prefix}
}

func (f *symbolNameField) Name() string   { return f.name }
func (f *symbolNameField) Prefix() string { return f.prefix }

func (f *symbolNameField) Index(doc map[string]interface{}, value interface{}) {
	raw := stringify(value)
	tokens := tokenizer.Tokenize(raw)
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, truncateTerm(f.prefix, strings.ToLower(tok)))
	}
	doc[f.prefix] = terms
}

func (f *symbolNameField) MakeQuery(value string, wildcard bool) (query.Query, error) {
	return termOrWildcard(f.prefix, strings.ToLower(value), wildcard), nil
}

// --- Type field ---

// typeField performs a case-insensitive enum lookup; unknown values
// are a parse-time error, not a silent empty match (spec §4.3 "Type
// field").
type typeField struct {
	name   string
	prefix string
}

func NewTypeField(name, prefix string) Field {
	return &typeField{name: name, prefix: prefix}
}

func (f *typeField) Name() string   { return f.name }
func (f *typeField) Prefix() string { return f.prefix }

func (f *typeField) Index(doc map[string]interface{}, value interface{}) {
	doc[f.prefix] = strings.ToLower(stringify(value))
}

func (f *typeField) MakeQuery(value string, _ bool) (query.Query, error) {
	t, err := types.ParseSymbolType(value)
	if err != nil {
		return nil, err
	}
	return termOrWildcard(f.prefix, strings.ToLower(t.String()), false), nil
}

// --- shared helpers ---

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toFloat64(value interface{}) float64 {
	switch v := value.(type) {
	case uint64:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}

func truncateTerm(prefix, value string) string {
	term := prefix + value
	if len(term) <= MaxTermSize {
		return value
	}
	return value[:MaxTermSize-len(prefix)]
}

// termOrWildcard builds an exact term query, or a wildcard query when
// wildcard is set or value already carries an explicit "*". The parser
// strips a trailing "*" off the raw token and reports it via wildcard
// rather than leaving it in value (parser.go's parseValue), so a
// wildcard match here must append the metacharacter back on rather
// than pass value through unchanged.
func termOrWildcard(field, value string, wildcard bool) query.Query {
	if strings.Contains(value, "*") {
		q := bleve.NewWildcardQuery(value)
		q.SetField(field)
		return q
	}
	if wildcard {
		q := bleve.NewWildcardQuery(value + "*")
		q.SetField(field)
		return q
	}
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}
