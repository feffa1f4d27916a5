// Package scanner implements the Binary Directory Scanner: it
// enumerates candidate object files under a tree (recursive glob, or
// via a compilation database) and computes the change set since a
// previous indexing run (spec §4.3).
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/bdx/internal/compdb"
	bdxerrors "github.com/standardbeagle/bdx/internal/errors"
)

// DefaultPattern is the recursive glob used when no compilation
// database is consulted.
const DefaultPattern = "**/*.o"

// Options controls how the Scanner enumerates candidates.
type Options struct {
	// UseCompilationDatabase, when true, enumerates objects from the
	// compdb's reverse map instead of globbing; Candidates returns
	// CompilationDatabaseNotFoundError if none exists under the
	// scanner's directory.
	UseCompilationDatabase bool
	// Pattern overrides DefaultPattern for the glob strategy.
	Pattern string
}

// Scanner enumerates object files under a binary directory.
type Scanner struct {
	dir  string
	opts Options
}

// New builds a Scanner rooted at dir.
func New(dir string, opts Options) *Scanner {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	return &Scanner{dir: dir, opts: opts}
}

// Candidates returns the absolute paths of every object file the
// scanner considers part of the tree, plus (when the compilation
// database strategy is used) the *compdb.DB for source attribution,
// which is nil under the glob strategy.
func (s *Scanner) Candidates() ([]string, *compdb.DB, error) {
	if s.opts.UseCompilationDatabase {
		return s.candidatesFromCompdb()
	}
	paths, err := s.candidatesFromGlob()
	return paths, nil, err
}

func (s *Scanner) candidatesFromCompdb() ([]string, *compdb.DB, error) {
	path, ok := compdb.Find(s.dir)
	if !ok {
		return nil, nil, &bdxerrors.CompilationDatabaseNotFoundError{Dir: s.dir}
	}
	db, err := compdb.Load(path)
	if err != nil {
		return nil, nil, err
	}
	objects := db.Objects()
	out := make([]string, 0, len(objects))
	for _, obj := range objects {
		if _, err := os.Stat(obj); err == nil {
			out = append(out, obj)
		}
	}
	return out, db, nil
}

func (s *Scanner) candidatesFromGlob() ([]string, error) {
	abs, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scanner: resolve %s: %w", s.dir, err)
	}

	fsys := os.DirFS(abs)
	matches, err := doublestar.Glob(fsys, s.opts.Pattern)
	if err != nil {
		return nil, fmt.Errorf("scanner: glob %s under %s: %w", s.opts.Pattern, abs, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(abs, m))
	}
	return out, nil
}

// ChangeSet is the result of diffing a fresh Candidates() listing
// against a previous indexing run's recorded state (spec §4.7 step 2:
// "changed_files = {new ∪ mtime > index.mtime()}, deleted_files =
// previous − current").
type ChangeSet struct {
	Changed []string
	Deleted []string
	// Unchanged counts files present before and after with no newer
	// mtime, carried for CLI progress parity with the original
	// implementation's num_files_unchanged (SPEC_FULL.md
	// "SUPPLEMENTED FEATURES").
	Unchanged int
}

// Diff computes the change set: current is this run's candidate
// paths, previous is the index's all_files() listing, and since is
// the index's mtime() upper bound. A file present in both sets whose
// on-disk mtime is newer than since counts as changed; a file in
// current but not previous is always changed (new); a file in
// previous but not current is deleted.
//
// The comparison truncates both sides to whole seconds rather than
// comparing full-precision time.Time values. since itself can only
// ever hold whole-second precision: it comes from the mtime value
// slot, a float64 stored as sym.Mtime.Unix() (schema.go's
// IndexSymbol), which cannot represent sub-second precision at all.
// Comparing a full-precision on-disk ModTime against that truncated
// value with time.Time.After would flag a file whose mtime has any
// sub-second component as newer on every run, even when its whole
// second hasn't changed, so an unchanged tree would never converge to
// zero changed files. spec §3 calls mtime "nanosecond resolution" for
// the Symbol record itself; the index's value slot (a bleve numeric
// field) cannot carry that precision, so change detection is
// second-granular.
func Diff(current, previous []string, since time.Time) ChangeSet {
	previousSet := make(map[string]struct{}, len(previous))
	for _, p := range previous {
		previousSet[p] = struct{}{}
	}
	currentSet := make(map[string]struct{}, len(current))
	for _, p := range current {
		currentSet[p] = struct{}{}
	}

	var cs ChangeSet
	for _, path := range current {
		_, existed := previousSet[path]
		if !existed {
			cs.Changed = append(cs.Changed, path)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			// Vanished between Candidates() and Diff(); treat it as
			// part of the deleted set computed below rather than
			// changed.
			continue
		}
		if info.ModTime().Unix() > since.Unix() {
			cs.Changed = append(cs.Changed, path)
		} else {
			cs.Unchanged++
		}
	}
	for _, path := range previous {
		if _, ok := currentSet[path]; !ok {
			cs.Deleted = append(cs.Deleted, path)
		}
	}
	return cs
}
