package index

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"

	bdxerrors "github.com/standardbeagle/bdx/internal/errors"
	"github.com/standardbeagle/bdx/internal/schema"
	"github.com/standardbeagle/bdx/internal/types"
)

// Shard is a single writable bleve index claimed from a Store's
// primary, plus the single in-flight transaction spec §4.5 allows on
// it.
type Shard struct {
	idx    bleve.Index
	path   string
	schema *schema.Schema

	mu    sync.Mutex
	batch *bleve.Batch
}

// Path returns the shard's directory, for logging/diagnostics.
func (s *Shard) Path() string { return s.path }

// Begin starts a transaction. A second Begin before Commit/Rollback
// fails with ErrTransactionInProgress (spec §4.5).
func (s *Shard) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch != nil {
		return bdxerrors.ErrTransactionInProgress
	}
	s.batch = s.idx.NewBatch()
	return nil
}

// Commit executes the accumulated batch and clears the transaction.
func (s *Shard) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch == nil {
		return fmt.Errorf("index: commit without a transaction")
	}
	err := s.idx.Batch(s.batch)
	s.batch = nil
	return err
}

// Rollback discards the accumulated batch without executing it. An
// error raised by a transaction body calls Rollback then rethrows
// (spec §4.5).
func (s *Shard) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = nil
}

// Close closes the underlying bleve index. Any pending batch is
// discarded, not committed.
func (s *Shard) Close() error {
	return s.idx.Close()
}

// AddSymbol indexes sym within the current transaction (spec §4.5
// "add_symbol"). The document id is the symbol's composite key, so
// re-adding the same (path, name, address, section) replaces the
// prior document rather than duplicating it.
func (s *Shard) AddSymbol(sym types.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch == nil {
		return fmt.Errorf("index: AddSymbol called outside a transaction")
	}

	blob, err := json.Marshal(sym)
	if err != nil {
		return fmt.Errorf("index: marshal symbol: %w", err)
	}
	doc := schema.IndexSymbol(s.schema, sym, string(blob))
	s.batch.Index(sym.Key(), doc)
	return nil
}

// DeleteFile removes, within the current transaction, every document
// this shard holds for path. Used directly by writers that know a
// file's prior documents live in their own shard; the Store-level
// DeleteFile (spec §4.5 "delete_file") instead sweeps every shard.
func (s *Shard) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch == nil {
		return fmt.Errorf("index: DeleteFile called outside a transaction")
	}

	ids, err := idsForPath(s.idx, path)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.batch.Delete(id)
	}
	return nil
}
