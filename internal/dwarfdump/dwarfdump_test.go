package dwarfdump

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupUnavailableBinaryReturnsEmpty(t *testing.T) {
	l := New("bdx-dwarfdump-does-not-exist")
	require.False(t, l.Available())
	require.Equal(t, "", l.Source("/tmp/whatever.o"))
}

func TestParsesNameAndCompDir(t *testing.T) {
	out := `0x0000000b: DW_TAG_compile_unit
	          DW_AT_name	("main.c")
	          DW_AT_comp_dir	("/home/build/src")
`
	nameMatch := reName.FindStringSubmatch(out)
	require.NotNil(t, nameMatch)
	require.Equal(t, "main.c", nameMatch[1])

	compDirMatch := reCompDir.FindStringSubmatch(out)
	require.NotNil(t, compDirMatch)
	require.Equal(t, "/home/build/src", compDirMatch[1])
}
