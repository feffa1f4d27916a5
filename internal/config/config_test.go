package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "absent.kdl"))
	require.NoError(t, err)
	require.Equal(t, DefaultIndexingOptions().MinSymbolSize, cfg.Indexing.MinSymbolSize)
	require.True(t, cfg.Query.AutoWildcard)
}

func TestLoadKDLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".bdx.kdl")
	contents := `
binary_dir "build/obj"
index_path "/tmp/bdx-idx"
indexing {
    num_processes 4
    min_symbol_size 8
    resolve_relocations false
    use_compilation_database true
}
query {
    auto_wildcard false
    strict true
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "build/obj", cfg.BinaryDir)
	require.Equal(t, "/tmp/bdx-idx", cfg.IndexPath)
	require.Equal(t, 4, cfg.Indexing.NumProcesses)
	require.Equal(t, uint64(8), cfg.Indexing.MinSymbolSize)
	require.False(t, cfg.Indexing.ResolveRelocations)
	require.True(t, cfg.Indexing.UseCompilationDatabase)
	require.False(t, cfg.Query.AutoWildcard)
	require.True(t, cfg.Query.Strict)
}

func TestResolveBinaryDirFallsBackToRoot(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	require.Equal(t, dir, ResolveBinaryDir(cfg, dir))
}

func TestDetectCargoTarget(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname = \"demo\"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target", "debug"), 0o755))

	got := NewBuildArtifactDetector(dir).DetectBinaryDir()
	require.Equal(t, filepath.Join(dir, "target", "debug"), got)
}
