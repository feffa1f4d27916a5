// Package types holds the primitive data model shared across bdx's
// components: the Symbol record and the closed SymbolType enum.
package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// SymbolType is the closed enum of ELF symbol kinds bdx understands.
// Unknown STT_* codes fall back to NOTYPE; see internal/elf.
type SymbolType int

const (
	NOTYPE SymbolType = iota
	OBJECT
	FUNC
	SECTION
	FILE
	COMMON
	TLS
	NUM
	RELC
	SRELC
	LOOS
	LOOS_PLUS_ONE
	HIOS
	LOPROC
	LOPROC_PLUS_ONE
	HIPROC
)

var symbolTypeNames = [...]string{
	"NOTYPE", "OBJECT", "FUNC", "SECTION", "FILE", "COMMON", "TLS",
	"NUM", "RELC", "SRELC", "LOOS", "LOOS_PLUS_ONE", "HIOS",
	"LOPROC", "LOPROC_PLUS_ONE", "HIPROC",
}

// String renders the canonical upper-case name of the type.
func (t SymbolType) String() string {
	if int(t) < 0 || int(t) >= len(symbolTypeNames) {
		return "NOTYPE"
	}
	return symbolTypeNames[t]
}

// ParseSymbolType performs a case-insensitive lookup of a type name, as
// used by the `type:` query field. Unknown names are a parse error, not
// a silent empty match (spec §4.3 "Type field").
func ParseSymbolType(s string) (SymbolType, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range symbolTypeNames {
		if name == upper {
			return SymbolType(i), nil
		}
	}
	return NOTYPE, fmt.Errorf("unknown symbol type %q", s)
}

// Symbol is the immutable record extracted from one ELF symbol-table
// entry, identified by (Path, Name, Address, Section).
type Symbol struct {
	// Path is the absolute path of the containing object file.
	Path string
	// Source is the originating source file, if known, else "".
	Source string
	// Name is the raw, possibly-mangled identifier.
	Name string
	// Demangled is the human-readable form, populated on demand.
	Demangled string
	// Section is the name of the section the symbol lives in.
	Section string
	Address uint64
	Size    uint64
	Type    SymbolType
	// Relocations is the deduplicated, lexicographically sorted list
	// of outgoing relocation target symbol names.
	Relocations []string
	// Mtime is the modification time of the containing object file
	// at extraction time, nanosecond resolution.
	Mtime time.Time
}

// Key returns the document identity key used by the Index Store's
// primary term and by set-membership comparisons in tests. The
// identity tuple is hashed with xxhash rather than stored verbatim, so
// the key stays short (at most 16 hex digits) regardless of path/name
// length.
func (s Symbol) Key() string {
	raw := fmt.Sprintf("%s\x00%s\x00%d\x00%s", s.Path, s.Name, s.Address, s.Section)
	return strconv.FormatUint(xxhash.Sum64String(raw), 16)
}

// IsPlaceholder reports whether s is the empty-name, zero-size
// placeholder document used to mark a symbol-less object file as
// indexed (spec §3 invariant 1).
func (s Symbol) IsPlaceholder() bool {
	return s.Name == "" && s.Size == 0
}

// Placeholder builds the placeholder document for an object file that
// produced no real symbols.
func Placeholder(path string, mtime time.Time) Symbol {
	return Symbol{Path: path, Mtime: mtime}
}
