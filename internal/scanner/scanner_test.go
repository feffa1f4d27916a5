package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{0x7f, 'E', 'L', 'F'}, 0o644))
}

func TestCandidatesFromGlobRecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.o"))
	writeFile(t, filepath.Join(dir, "sub", "b.o"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	s := New(dir, Options{})
	got, db, err := s.Candidates()
	require.NoError(t, err)
	require.Nil(t, db)
	require.Len(t, got, 2)
}

func TestCandidatesFromCompdbMissingErrors(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, Options{UseCompilationDatabase: true})
	_, _, err := s.Candidates()
	require.Error(t, err)
}

func TestCandidatesFromCompdb(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "a.o")
	writeFile(t, objPath)

	compdbJSON := `[{"directory": "` + dir + `", "file": "a.c", "output": "a.o"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compile_commands.json"), []byte(compdbJSON), 0o644))

	s := New(dir, Options{UseCompilationDatabase: true})
	got, db, err := s.Candidates()
	require.NoError(t, err)
	require.NotNil(t, db)
	require.Equal(t, []string{objPath}, got)
}

func TestDiffComputesChangedAndDeleted(t *testing.T) {
	dir := t.TempDir()
	unchanged := filepath.Join(dir, "unchanged.o")
	changed := filepath.Join(dir, "changed.o")
	fresh := filepath.Join(dir, "new.o")
	writeFile(t, unchanged)
	writeFile(t, changed)
	writeFile(t, fresh)

	since := time.Now()
	require.NoError(t, os.WriteFile(changed, []byte{0x7f, 'E', 'L', 'F', 'x'}, 0o644))
	// Diff compares whole seconds, so move the rewritten file's mtime
	// past since's second.
	later := since.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(changed, later, later))

	previous := []string{unchanged, changed, filepath.Join(dir, "gone.o")}
	current := []string{unchanged, changed, fresh}

	cs := Diff(current, previous, since)
	require.ElementsMatch(t, []string{changed, fresh}, cs.Changed)
	require.ElementsMatch(t, []string{filepath.Join(dir, "gone.o")}, cs.Deleted)
	require.Equal(t, 1, cs.Unchanged)
}
