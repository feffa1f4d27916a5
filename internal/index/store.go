// Package index implements the Index Store façade: a persistent
// full-text/value index over Symbol records, built on
// blevesearch/bleve/v2 (spec §4.5).
//
// A Store's primary directory holds only metadata when open for
// writing; documents live in numbered shard directories ("db.000",
// "db.001", ...) so concurrent pipeline workers each get a private
// writable bleve index with no shared-writer contention. Reads union
// the primary and every shard through a bleve.IndexAlias.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	bdxerrors "github.com/standardbeagle/bdx/internal/errors"
	"github.com/standardbeagle/bdx/internal/schema"
)

// Mode selects how Open treats the store.
type Mode int

const (
	// ReadOnly unions the primary and every existing shard for
	// search/enumeration; no shard is created.
	ReadOnly Mode = iota
	// Writable opens (or creates) the primary for metadata writes.
	// Documents are written through shards obtained from OpenShard.
	Writable
)

const (
	primaryDirName    = "db"
	shardInternalKey  = "shards"
	schemaInternalKey = "__schema__"
	binaryDirKey      = "binary_dir"
)

// Store is the façade described in spec §4.5.
type Store struct {
	root    string
	mode    Mode
	schema  *schema.Schema
	primary bleve.Index

	mu         sync.Mutex
	shardIdx   []bleve.Index // read-side shard handles, ReadOnly only
	alias      *bleve.IndexAlias
	closed     bool
	shardCount int // Writable only: next shard suffix to claim
}

// Open opens the store rooted at root. root is a directory; the
// primary lives at root/db and shards at root/db.NNN.
func Open(root string, mode Mode, sch *schema.Schema) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("index: mkdir %s: %w", root, err)
	}

	primaryPath := filepath.Join(root, primaryDirName)
	primary, created, err := openOrCreate(primaryPath)
	if err != nil {
		return nil, err
	}

	if err := checkSchema(primary, sch, created); err != nil {
		primary.Close()
		return nil, err
	}

	s := &Store{root: root, mode: mode, schema: sch, primary: primary}

	if mode == ReadOnly {
		shardPaths := existingShardPaths(root)
		alias := bleve.NewIndexAlias(primary)
		for _, p := range shardPaths {
			idx, err := bleve.Open(p)
			if err != nil {
				alias.Close()
				primary.Close()
				return nil, fmt.Errorf("index: open shard %s: %w", p, err)
			}
			s.shardIdx = append(s.shardIdx, idx)
			alias.Add(idx)
		}
		s.alias = alias
	} else {
		s.shardCount = len(existingShardPaths(root))
	}

	return s, nil
}

func openOrCreate(path string) (idx bleve.Index, created bool, err error) {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		idx, err = bleve.New(path, schema.BuildIndexMapping())
		return idx, true, err
	}
	idx, err = bleve.Open(path)
	return idx, false, err
}

func checkSchema(idx bleve.Index, sch *schema.Schema, created bool) error {
	want := []byte(sch.Fingerprint())
	if created {
		return idx.SetInternal([]byte(schemaInternalKey), want)
	}
	got, err := idx.GetInternal([]byte(schemaInternalKey))
	if err != nil {
		return fmt.Errorf("index: read schema metadata: %w", err)
	}
	if got == nil {
		return idx.SetInternal([]byte(schemaInternalKey), want)
	}
	if string(got) != string(want) {
		return &bdxerrors.SchemaMismatchError{
			Path: "",
			Diff: fmt.Sprintf("stored=%q in-code=%q", got, want),
		}
	}
	return nil
}

func existingShardPaths(root string) []string {
	var out []string
	for i := 0; ; i++ {
		p := shardPath(root, i)
		if _, err := os.Stat(p); err != nil {
			break
		}
		out = append(out, p)
	}
	return out
}

func shardPath(root string, n int) string {
	return filepath.Join(root, fmt.Sprintf("%s.%03d", primaryDirName, n))
}

// Close releases every open bleve index handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return bdxerrors.ErrIndexClosed
	}
	s.closed = true

	var errs []error
	if s.alias != nil {
		// IndexAlias.Close is a no-op over constituent indexes in
		// bleve; close each shard handle explicitly.
		for _, idx := range s.shardIdx {
			if err := idx.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := s.primary.Close(); err != nil {
		errs = append(errs, err)
	}
	return bdxerrors.NewMultiError(errs)
}

// OpenShard claims the first unused shard slot and returns a writable
// Shard, per spec §4.5 "open finds the first non-existent slot and
// claims it".
func (s *Store) OpenShard() (*Shard, error) {
	if s.mode != Writable {
		return nil, bdxerrors.ErrIndexReadOnly
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, bdxerrors.ErrIndexClosed
	}
	n := s.shardCount
	s.shardCount++
	s.mu.Unlock()

	path := shardPath(s.root, n)
	idx, err := bleve.New(path, schema.BuildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("index: create shard %s: %w", path, err)
	}
	return &Shard{idx: idx, path: path, schema: s.schema}, nil
}

// BinaryDir reads the recorded binary directory, "" if unset.
func (s *Store) BinaryDir() (string, error) {
	v, err := s.primary.GetInternal([]byte(binaryDirKey))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetBinaryDir records the binary directory if not already set, per
// spec §4.7 step 1.
func (s *Store) SetBinaryDir(dir string) error {
	existing, err := s.BinaryDir()
	if err != nil {
		return err
	}
	if existing != "" {
		return nil
	}
	return s.primary.SetInternal([]byte(binaryDirKey), []byte(dir))
}

// readSnapshot returns the index to run a read operation against,
// plus a func to release whatever it opened. In ReadOnly mode that is
// the long-lived alias built at Open time. In Writable mode, documents
// live only in shard directories (the primary holds metadata), so this
// opens every shard that exists at call time as a
// transient read handle, unions it with the primary behind a fresh
// bleve.IndexAlias, and returns a close func that releases those
// handles immediately after the caller's query runs — never holding
// them open across a later DeleteFile/OpenShard call on the same shard
// path, which would otherwise contend with this process's own flock on
// that directory. This is what lets AllFiles/Mtime see already-indexed
// documents from a Writable store, which the Indexer Pipeline's change
// detection depends on (spec §4.7 step 2).
func (s *Store) readSnapshot() (bleve.Index, func(), error) {
	if s.alias != nil {
		return s.alias, func() {}, nil
	}

	shardPaths := existingShardPaths(s.root)
	alias := bleve.NewIndexAlias(s.primary)
	opened := make([]bleve.Index, 0, len(shardPaths))
	for _, p := range shardPaths {
		idx, err := bleve.Open(p)
		if err != nil {
			for _, o := range opened {
				o.Close()
			}
			return nil, nil, fmt.Errorf("index: open shard %s: %w", p, err)
		}
		opened = append(opened, idx)
		alias.Add(idx)
	}
	closeFn := func() {
		for _, idx := range opened {
			idx.Close()
		}
	}
	return alias, closeFn, nil
}

// DefaultIndexPath computes the conventional index root for a binary
// directory: $XDG_CACHE_HOME/<app>/index/<encoded-absolute-path>,
// where path separators are replaced with "!" (spec §4.5).
func DefaultIndexPath(app, binaryDir string) (string, error) {
	abs, err := filepath.Abs(binaryDir)
	if err != nil {
		return "", err
	}
	encoded := strings.ReplaceAll(abs, string(filepath.Separator), "!")

	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, app, "index", encoded), nil
}

// sortedStrings is a small helper used by All_files.
func sortedStrings(in map[string]struct{}) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
