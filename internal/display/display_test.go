package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/bdx/internal/types"
)

func sample() types.Symbol {
	return types.Symbol{
		Path:        "/bin/app/a.o",
		Name:        "_Z3fooi",
		Demangled:   "foo(int)",
		Section:     ".text",
		Address:     0x1000,
		Size:        32,
		Type:        types.FUNC,
		Relocations: []string{"bar", "baz"},
		Mtime:       time.Unix(1000, 0),
	}
}

func TestRenderDefault(t *testing.T) {
	f, err := New(Default, false, "")
	require.NoError(t, err)
	out, err := f.Render(sample())
	require.NoError(t, err)
	require.Equal(t, "a.o: _Z3fooi", out)
}

func TestRenderJSON(t *testing.T) {
	f, err := New(JSON, false, "")
	require.NoError(t, err)
	out, err := f.Render(sample())
	require.NoError(t, err)
	require.Contains(t, out, `"name":"_Z3fooi"`)
	require.NotContains(t, out, "basename")
}

func TestRenderSexpAndDemangle(t *testing.T) {
	f, err := New(Sexp, true, "")
	require.NoError(t, err)
	out, err := f.Render(sample())
	require.NoError(t, err)
	require.Contains(t, out, `(name . "foo(int)")`)
	require.Contains(t, out, "#x1000")
}

func TestRenderTemplate(t *testing.T) {
	f, err := New(Template, false, "{{.name}}@{{.section}}")
	require.NoError(t, err)
	out, err := f.Render(sample())
	require.NoError(t, err)
	require.Equal(t, "_Z3fooi@.text", out)
}

func TestParseFormat(t *testing.T) {
	fmt1, _ := ParseFormat("json")
	require.Equal(t, JSON, fmt1)
	fmt2, tmpl := ParseFormat("{{.name}}")
	require.Equal(t, Template, fmt2)
	require.Equal(t, "{{.name}}", tmpl)
}
