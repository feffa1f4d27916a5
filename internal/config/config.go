// Package config holds bdx's runtime configuration: the options the
// Indexer Pipeline and Query Parser read, loaded from an optional KDL
// project file (sblinch/kdl-go) and layered with CLI flag overrides,
// following the shape of the teacher repo's internal/config package.
package config

import (
	"os"
	"runtime"
)

// DefaultConfigFile is the conventional project config file name,
// analogous to the teacher's ".lci.kdl".
const DefaultConfigFile = ".bdx.kdl"

// IndexingOptions controls one run of the Indexer Pipeline (spec
// §4.7).
type IndexingOptions struct {
	// NumProcesses is the worker pool size; zero means runtime.NumCPU().
	NumProcesses int
	// MinSymbolSize excludes symbol-table entries smaller than this
	// many bytes (spec §4.1).
	MinSymbolSize uint64
	// ResolveRelocations enables the relocation-resolution pass.
	ResolveRelocations bool
	// UseCompilationDatabase enables compdb-based source attribution
	// and, when true but no compdb is found, is a fatal error (spec
	// §7 "CompilationDatabaseNotFound").
	UseCompilationDatabase bool
	// UseDWARFFallback is loaded from the config file and the
	// "-o use_dwarf_fallback=" override. The Indexer Pipeline does not
	// read it: no dwarfdump lookup runs during indexing, and source
	// attribution comes from the compilation database alone.
	UseDWARFFallback bool
}

// DefaultIndexingOptions mirrors bdx's CLI defaults.
func DefaultIndexingOptions() IndexingOptions {
	return IndexingOptions{
		NumProcesses:       runtime.NumCPU(),
		MinSymbolSize:      1,
		ResolveRelocations: true,
	}
}

// QueryOptions controls the Query Parser (spec §4.6).
type QueryOptions struct {
	// AutoWildcard compiles bare terms as wildcards against the
	// default field set. Resolved Open Question default: true.
	AutoWildcard bool
	// Strict is loaded from the config file's query section. The
	// query lexer does not read it: unrecognized bytes are always
	// skipped, and no UnknownToken error is raised.
	Strict bool
}

// DefaultQueryOptions mirrors the resolved auto-wildcard default.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{AutoWildcard: true}
}

// Config is bdx's top-level, KDL-loadable configuration.
type Config struct {
	// BinaryDir is the tree of object files to index. Empty means
	// "use the build-artifact-detector guess or the current
	// directory".
	BinaryDir string
	// IndexPath overrides the default index location (spec §4.5
	// "Default index path").
	IndexPath string

	Indexing IndexingOptions
	Query    QueryOptions
}

// Default returns bdx's built-in configuration, used when no project
// config file exists.
func Default() *Config {
	return &Config{
		Indexing: DefaultIndexingOptions(),
		Query:    DefaultQueryOptions(),
	}
}

// Load reads path if it exists and merges it over Default(); a
// missing file is not an error, matching the teacher's
// LoadKDL "no config found, use defaults" behavior.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := mergeKDL(cfg, data); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveBinaryDir returns cfg.BinaryDir if set, else the
// build-artifact detector's best guess under root, else root itself.
func ResolveBinaryDir(cfg *Config, root string) string {
	if cfg.BinaryDir != "" {
		return cfg.BinaryDir
	}
	if guess := NewBuildArtifactDetector(root).DetectBinaryDir(); guess != "" {
		return guess
	}
	return root
}
