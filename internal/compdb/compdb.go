// Package compdb reads a compilation database (compile_commands.json
// style build-tool description) mapping source files to object files
// (spec §4.2).
package compdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Entry is one compilation-database record.
type Entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Output    string   `json:"output,omitempty"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

// DB is a parsed compilation database with forward (source -> object)
// and reverse (object -> source) lookup maps, both keyed by absolute
// path.
type DB struct {
	forward map[string]string // source -> object
	reverse map[string]string // object -> source
}

// SourceForObject returns the source path attributed to an object
// file, or "" if unknown.
func (d *DB) SourceForObject(objectPath string) (string, bool) {
	src, ok := d.reverse[objectPath]
	return src, ok
}

// ObjectForSource returns the object path produced from a source
// file, or "" if unknown.
func (d *DB) ObjectForSource(sourcePath string) (string, bool) {
	obj, ok := d.forward[sourcePath]
	return obj, ok
}

// Objects returns every object path known to the database.
func (d *DB) Objects() []string {
	out := make([]string, 0, len(d.reverse))
	for obj := range d.reverse {
		out = append(out, obj)
	}
	return out
}

type cacheKey struct {
	path  string
	mtime int64
}

// reader memoizes parsed databases by (path, mtime) so repeated
// lookups within a single pipeline run are O(1) (spec §4.2).
type reader struct {
	mu    sync.Mutex
	cache map[cacheKey]*DB
}

var defaultReader = &reader{cache: make(map[cacheKey]*DB)}

// Load parses the compilation database at path, memoized by
// (path, mtime) across calls on the process-wide default reader.
func Load(path string) (*DB, error) {
	return defaultReader.load(path)
}

func (r *reader) load(path string) (*DB, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("compdb: stat %s: %w", path, err)
	}
	key := cacheKey{path: path, mtime: info.ModTime().UnixNano()}

	r.mu.Lock()
	if db, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return db, nil
	}
	r.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compdb: read %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("compdb: parse %s: %w", path, err)
	}

	db := &DB{
		forward: make(map[string]string, len(entries)),
		reverse: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		obj := outputPath(e)
		if obj == "" {
			continue
		}
		src := e.File
		if !filepath.IsAbs(src) {
			src = filepath.Join(e.Directory, src)
		}
		if !filepath.IsAbs(obj) {
			obj = filepath.Join(e.Directory, obj)
		}
		src = filepath.Clean(src)
		obj = filepath.Clean(obj)
		db.forward[src] = obj
		db.reverse[obj] = src
	}

	r.mu.Lock()
	r.cache[key] = db
	r.mu.Unlock()

	return db, nil
}

// outputPath determines the output object path for an entry: prefer
// an explicit "output" field, else "-o <path>" in "command", else the
// same in "arguments", else "<directory>/<source-stem>.o" (spec §4.2).
func outputPath(e Entry) string {
	if e.Output != "" {
		return e.Output
	}
	if out, ok := scanDashO(strings.Fields(e.Command)); ok {
		return out
	}
	if out, ok := scanDashO(e.Arguments); ok {
		return out
	}
	if e.File == "" {
		return ""
	}
	stem := strings.TrimSuffix(filepath.Base(e.File), filepath.Ext(e.File))
	return filepath.Join(e.Directory, stem+".o")
}

func scanDashO(tokens []string) (string, bool) {
	for i, tok := range tokens {
		if tok == "-o" && i+1 < len(tokens) {
			return tokens[i+1], true
		}
		if strings.HasPrefix(tok, "-o") && len(tok) > 2 {
			return tok[2:], true
		}
	}
	return "", false
}

// Find looks for a compilation database file under dir; only the
// conventional name compile_commands.json directly in dir is checked.
func Find(dir string) (string, bool) {
	candidate := filepath.Join(dir, "compile_commands.json")
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, true
	}
	return "", false
}

// ResetCache clears the memoization cache; intended for tests that
// rewrite a compilation database file within the same mtime second.
func ResetCache() {
	defaultReader.mu.Lock()
	defer defaultReader.mu.Unlock()
	defaultReader.cache = make(map[cacheKey]*DB)
}
