// Package elf implements the ELF Reader component: it opens one
// object file and yields its Symbol records together with each
// symbol's outgoing relocation targets (spec §4.1).
package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/standardbeagle/bdx/internal/types"
)

// magic is the four-byte ELF identifier checked before attempting a
// full parse; files without it are ignored at scan time, not treated
// as an error (spec §4.1 "Failures").
var magic = []byte{0x7f, 'E', 'L', 'F'}

// IsELF reports whether path begins with the ELF magic bytes.
func IsELF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var buf [4]byte
	if _, err := f.Read(buf[:]); err != nil {
		return false
	}
	return bytes.Equal(buf[:], magic)
}

// Options controls extraction behavior.
type Options struct {
	// MinSymbolSize excludes symbol-table entries smaller than this
	// many bytes. Default (zero value) is treated as 1 by Read.
	MinSymbolSize uint64
	// ResolveRelocations enables the relocation-resolution pass
	// (spec §4.1 "Relocation resolution").
	ResolveRelocations bool
	// SourceFor optionally attributes a source file to the object
	// file being read (from a compilation database); "" means
	// unknown. This package does no DWARF lookup of its own, which
	// keeps ELF parsing free of subprocess dependencies.
	SourceFor string
}

// Read extracts Symbols from the object file at path.
func Read(path string, opts Options) ([]types.Symbol, error) {
	minSize := opts.MinSymbolSize
	if minSize == 0 {
		minSize = 1
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("elf: stat %s: %w", path, err)
	}

	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elf: open %s: %w", path, err)
	}
	defer f.Close()

	symtab, err := f.Symbols()
	if err != nil && len(symtab) == 0 {
		// No symbol table is not fatal: the file still counts as
		// indexed via the placeholder document (spec §3 invariant 1).
		return nil, nil
	}

	mtime := info.ModTime()
	out := make([]types.Symbol, 0, len(symtab))
	// index -> position in out, used by relocation resolution to find
	// the Symbol whose address range contains a relocation offset.
	bySection := make(map[int][]int)

	for _, sym := range symtab {
		if sym.Size < minSize {
			continue
		}
		section := sectionName(f, sym.Section)
		s := types.Symbol{
			Path:    path,
			Source:  opts.SourceFor,
			Name:    sym.Name,
			Section: section,
			Address: sym.Value,
			Size:    sym.Size,
			Type:    mapSymbolType(elf.ST_TYPE(sym.Info)),
			Mtime:   mtime,
		}
		bySection[int(sym.Section)] = append(bySection[int(sym.Section)], len(out))
		out = append(out, s)
	}

	if opts.ResolveRelocations {
		resolveRelocations(f, out, bySection)
	}

	return out, nil
}

func sectionName(f *elf.File, idx elf.SectionIndex) string {
	i := int(idx)
	if i < 0 || i >= len(f.Sections) {
		return ""
	}
	return f.Sections[i].Name
}

// mapSymbolType maps an ELF STT_* code to the closed SymbolType enum.
// Unknown codes fall back to NOTYPE (spec §9 "Unknown-ELF-type
// codes").
func mapSymbolType(t elf.SymType) types.SymbolType {
	switch t {
	case elf.STT_NOTYPE:
		return types.NOTYPE
	case elf.STT_OBJECT:
		return types.OBJECT
	case elf.STT_FUNC:
		return types.FUNC
	case elf.STT_SECTION:
		return types.SECTION
	case elf.STT_FILE:
		return types.FILE
	case elf.STT_COMMON:
		return types.COMMON
	case elf.STT_TLS:
		return types.TLS
	default:
		return types.NOTYPE
	}
}

// resolveRelocations groups symbols by section, then for every
// relocation section whose linked symbol table is the file's main
// symbol table, binary-searches the containing group by address and
// assigns the referenced name to that symbol's Relocations list
// (spec §4.1 "Relocation resolution").
func resolveRelocations(f *elf.File, syms []types.Symbol, bySection map[int][]int) {
	for _, sec := range f.Sections {
		var entries []relocEntry
		switch sec.Type {
		case elf.SHT_RELA:
			entries = parseRela(f, sec)
		case elf.SHT_REL:
			entries = parseRel(f, sec)
		default:
			continue
		}
		if entries == nil {
			continue
		}
		if int(sec.Link) >= len(f.Sections) || f.Sections[sec.Link].Type != elf.SHT_SYMTAB {
			continue
		}

		targetSection := int(sec.Info)
		group := bySection[targetSection]
		if len(group) == 0 {
			continue
		}
		// sort indices by address once for binary search.
		sort.Slice(group, func(i, j int) bool {
			return syms[group[i]].Address < syms[group[j]].Address
		})

		symtab, err := f.Symbols()
		if err != nil {
			continue
		}

		for _, e := range entries {
			// debug/elf symbol indices returned by Symbols() exclude
			// the null symtab entry 0; relocation symbol indices are
			// 1-based against the raw table, so offset by one.
			symIdx := e.symIndex
			if symIdx == 0 || int(symIdx)-1 >= len(symtab) {
				continue
			}
			refName := symtab[symIdx-1].Name
			if refName == "" {
				continue
			}

			owner, ok := findOwner(syms, group, e.offset)
			if !ok {
				continue
			}
			syms[owner].Relocations = append(syms[owner].Relocations, refName)
		}
	}

	for i := range syms {
		syms[i].Relocations = dedupeSorted(syms[i].Relocations)
	}
}

type relocEntry struct {
	offset   uint64
	symIndex uint32
}

func parseRela(f *elf.File, sec *elf.Section) []relocEntry {
	data, err := sec.Data()
	if err != nil {
		return nil
	}
	var out []relocEntry
	switch f.Class {
	case elf.ELFCLASS64:
		var r elf.Rela64
		size := 24
		for off := 0; off+size <= len(data); off += size {
			readBinary(f, data[off:off+size], &r)
			out = append(out, relocEntry{offset: r.Off, symIndex: uint32(r.Info >> 32)})
		}
	default:
		var r elf.Rela32
		size := 12
		for off := 0; off+size <= len(data); off += size {
			readBinary(f, data[off:off+size], &r)
			out = append(out, relocEntry{offset: uint64(r.Off), symIndex: r.Info >> 8})
		}
	}
	return out
}

func parseRel(f *elf.File, sec *elf.Section) []relocEntry {
	data, err := sec.Data()
	if err != nil {
		return nil
	}
	var out []relocEntry
	switch f.Class {
	case elf.ELFCLASS64:
		var r elf.Rel64
		size := 16
		for off := 0; off+size <= len(data); off += size {
			readBinary(f, data[off:off+size], &r)
			out = append(out, relocEntry{offset: r.Off, symIndex: uint32(r.Info >> 32)})
		}
	default:
		var r elf.Rel32
		size := 8
		for off := 0; off+size <= len(data); off += size {
			readBinary(f, data[off:off+size], &r)
			out = append(out, relocEntry{offset: uint64(r.Off), symIndex: r.Info >> 8})
		}
	}
	return out
}

func readBinary(f *elf.File, data []byte, v any) {
	order := byteOrder(f)
	_ = binary.Read(bytes.NewReader(data), order, v)
}

func byteOrder(f *elf.File) binary.ByteOrder {
	if f.ByteOrder == nil {
		return binary.LittleEndian
	}
	return f.ByteOrder
}

// findOwner binary-searches group (indices into syms, sorted by
// address) for the symbol whose [address, address+size) range
// contains offset.
func findOwner(syms []types.Symbol, group []int, offset uint64) (int, bool) {
	lo, hi := 0, len(group)-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		s := syms[group[mid]]
		if offset < s.Address {
			hi = mid - 1
			continue
		}
		if offset >= s.Address+s.Size && s.Size > 0 {
			lo = mid + 1
			continue
		}
		best = group[mid]
		break
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
