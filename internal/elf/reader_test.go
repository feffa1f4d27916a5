package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/bdx/internal/types"
)

func TestIsELF(t *testing.T) {
	dir := t.TempDir()

	elfPath := filepath.Join(dir, "obj.o")
	require.NoError(t, os.WriteFile(elfPath, []byte{0x7f, 'E', 'L', 'F', 1, 2, 3}, 0o644))
	require.True(t, IsELF(elfPath))

	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("hello world"), 0o644))
	require.False(t, IsELF(textPath))
}

func TestMapSymbolTypeUnknownFallsBackToNotype(t *testing.T) {
	require.Equal(t, types.NOTYPE, mapSymbolType(elf.SymType(0x0f)))
	require.Equal(t, types.FUNC, mapSymbolType(elf.STT_FUNC))
	require.Equal(t, types.OBJECT, mapSymbolType(elf.STT_OBJECT))
}

func TestDedupeSorted(t *testing.T) {
	got := dedupeSorted([]string{"b", "a", "a", "c", "b"})
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Nil(t, dedupeSorted(nil))
}

// --- minimal hand-built ELF64 relocatable object, used to exercise
// Read() end to end without shelling out to a real compiler.

type builtELF struct {
	path  string
	names []string // symbol names in symtab order, index 0 is the null entry
}

// buildObject writes a minimal valid ELF64 relocatable object with a
// .text section, one defined symbol "top_level_symbol" of size 8 at
// address 0x10 in .text, and (optionally) a second symbol
// "other_top_level_symbol" with a relocation referencing the first.
func buildObject(t *testing.T, dir string, withRelocation bool) builtELF {
	t.Helper()

	const (
		shstrtabIdx = 1
		textIdx     = 2
		symtabIdx   = 3
		strtabIdx   = 4
		relaIdx     = 5
	)

	shstrtab := buildStrtab("", ".shstrtab", ".text", ".symtab", ".strtab", ".rela.text")
	strtab := buildStrtab("", "top_level_symbol", "other_top_level_symbol")

	textData := make([]byte, 0x20)

	var symtab bytes.Buffer
	// null symbol
	binary.Write(&symtab, binary.LittleEndian, elf.Sym64{})
	// top_level_symbol: OBJECT, in .text, addr 0x10, size 8
	binary.Write(&symtab, binary.LittleEndian, elf.Sym64{
		Name:  uint32(strtab.offsets["top_level_symbol"]),
		Info:  byte(elf.ST_INFO(elf.STB_GLOBAL, elf.STT_OBJECT)),
		Shndx: uint16(textIdx),
		Value: 0x10,
		Size:  8,
	})
	nSyms := 2
	if withRelocation {
		binary.Write(&symtab, binary.LittleEndian, elf.Sym64{
			Name:  uint32(strtab.offsets["other_top_level_symbol"]),
			Info:  byte(elf.ST_INFO(elf.STB_GLOBAL, elf.STT_OBJECT)),
			Shndx: uint16(textIdx),
			Value: 0x0,
			Size:  8,
		})
		nSyms = 3
	}

	var relaData bytes.Buffer
	if withRelocation {
		// relocation inside "other_top_level_symbol" (offset 0)
		// referencing symbol index 1 (top_level_symbol).
		binary.Write(&relaData, binary.LittleEndian, elf.Rela64{
			Off:  0x0,
			Info: elf.R_INFO(1, uint32(0)),
		})
	}

	sections := []elf.Section64{{}} // index 0 is SHT_NULL
	sections = append(sections, elf.Section64{
		Name: uint32(shstrtab.offsets[".shstrtab"]),
		Type: uint32(elf.SHT_STRTAB),
		Size: uint64(len(shstrtab.buf)),
	})
	sections = append(sections, elf.Section64{
		Name:  uint32(shstrtab.offsets[".text"]),
		Type:  uint32(elf.SHT_PROGBITS),
		Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
		Size:  uint64(len(textData)),
	})
	sections = append(sections, elf.Section64{
		Name:    uint32(shstrtab.offsets[".symtab"]),
		Type:    uint32(elf.SHT_SYMTAB),
		Link:    uint32(strtabIdx),
		Info:    uint32(1), // one local symbol (the null entry)
		Entsize: elf.Sym64Size,
		Size:    uint64(nSyms * elf.Sym64Size),
	})
	sections = append(sections, elf.Section64{
		Name: uint32(shstrtab.offsets[".strtab"]),
		Type: uint32(elf.SHT_STRTAB),
		Size: uint64(len(strtab.buf)),
	})
	if withRelocation {
		sections = append(sections, elf.Section64{
			Name:    uint32(shstrtab.offsets[".rela.text"]),
			Type:    uint32(elf.SHT_RELA),
			Link:    uint32(symtabIdx),
			Info:    uint32(textIdx),
			Entsize: 24,
			Size:    uint64(relaData.Len()),
		})
	}

	// Lay out section contents after the header + section header table.
	hdrSize := 64
	shdrTableOff := hdrSize
	shNum := len(sections)
	dataOff := shdrTableOff + shNum*64

	blobs := [][]byte{shstrtab.buf, textData, symtab.Bytes(), strtab.buf}
	if withRelocation {
		blobs = append(blobs, relaData.Bytes())
	}

	offsets := make([]uint64, len(sections))
	cur := dataOff
	for i, b := range blobs {
		offsets[i+1] = uint64(cur)
		cur += len(b)
	}
	for i := range sections {
		if i == 0 {
			continue
		}
		sections[i].Off = offsets[i]
	}

	hdr := elf.Header64{
		Ident:     [16]byte{0x7f, 'E', 'L', 'F', 2, 1, 1},
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_X86_64),
		Version:   1,
		Shoff:     uint64(shdrTableOff),
		Ehsize:    uint16(hdrSize),
		Shentsize: 64,
		Shnum:     uint16(shNum),
		Shstrndx:  uint16(shstrtabIdx),
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, hdr)
	for _, s := range sections {
		binary.Write(&out, binary.LittleEndian, s)
	}
	for _, b := range blobs {
		out.Write(b)
	}

	path := filepath.Join(dir, "obj.o")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))

	names := []string{"", "top_level_symbol"}
	if withRelocation {
		names = append(names, "other_top_level_symbol")
	}
	return builtELF{path: path, names: names}
}

type strtabBuilder struct {
	buf     []byte
	offsets map[string]int
}

func buildStrtab(names ...string) strtabBuilder {
	b := strtabBuilder{buf: []byte{0}, offsets: map[string]int{"": 0}}
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := b.offsets[n]; ok {
			continue
		}
		b.offsets[n] = len(b.buf)
		b.buf = append(b.buf, []byte(n)...)
		b.buf = append(b.buf, 0)
	}
	return b
}

func TestReadExtractsAttributes(t *testing.T) {
	dir := t.TempDir()
	built := buildObject(t, dir, false)

	syms, err := Read(built.path, Options{})
	require.NoError(t, err)
	require.Len(t, syms, 1)

	sym := syms[0]
	require.Equal(t, "top_level_symbol", sym.Name)
	require.Equal(t, ".text", sym.Section)
	require.Equal(t, uint64(0x10), sym.Address)
	require.Equal(t, uint64(8), sym.Size)
	require.Equal(t, types.OBJECT, sym.Type)
	require.Empty(t, sym.Relocations)
}

func TestReadResolvesRelocations(t *testing.T) {
	dir := t.TempDir()
	built := buildObject(t, dir, true)

	syms, err := Read(built.path, Options{ResolveRelocations: true})
	require.NoError(t, err)
	require.Len(t, syms, 2)

	byName := make(map[string]types.Symbol, len(syms))
	for _, s := range syms {
		byName[s.Name] = s
	}

	other := byName["other_top_level_symbol"]
	require.Equal(t, []string{"top_level_symbol"}, other.Relocations)
}

func TestReadHonorsMinSymbolSize(t *testing.T) {
	dir := t.TempDir()
	built := buildObject(t, dir, false)

	syms, err := Read(built.path, Options{MinSymbolSize: 100})
	require.NoError(t, err)
	require.Empty(t, syms)
}
