// Package pipeline implements the Indexer Pipeline: it orchestrates
// the scan -> per-file extract -> per-shard write -> commit loop
// across a worker pool, with SIGINT-aware cancellation (spec §4.7).
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/bdx/internal/config"
	"github.com/standardbeagle/bdx/internal/elf"
	bdxerrors "github.com/standardbeagle/bdx/internal/errors"
	"github.com/standardbeagle/bdx/internal/index"
	"github.com/standardbeagle/bdx/internal/scanner"
	"github.com/standardbeagle/bdx/internal/types"
)

// Stats is IndexingStats (spec §4.7 step 7), with an added
// NumFilesUnchanged field carried from the original implementation's
// progress reporting (SPEC_FULL.md "SUPPLEMENTED FEATURES").
type Stats struct {
	NumFilesChanged   int
	NumFilesDeleted   int
	NumFilesIndexed   int
	NumFilesUnchanged int
	NumSymbolsIndexed int
}

// Run executes one indexing pass against dir, writing into the Store
// store (already open in index.Writable mode). should_quit, if
// non-nil, is polled after each file completes (spec §4.7
// "Interruption"); pass interrupt.Flag.ShouldQuit for SIGINT-aware
// CLI use, or nil to run uninterruptibly.
func Run(ctx context.Context, store *index.Store, dir string, opts config.IndexingOptions, scanOpts scanner.Options, shouldQuit func() bool) (Stats, error) {
	if shouldQuit == nil {
		shouldQuit = func() bool { return false }
	}

	var stats Stats

	// Step 1: record binary_dir if unset.
	if err := store.SetBinaryDir(dir); err != nil {
		return stats, fmt.Errorf("pipeline: set binary_dir: %w", err)
	}

	sc := scanner.New(dir, scanOpts)
	current, db, err := sc.Candidates()
	if err != nil {
		return stats, err
	}

	previous, err := store.AllFiles()
	if err != nil {
		return stats, fmt.Errorf("pipeline: list previously indexed files: %w", err)
	}
	since, err := store.Mtime()
	if err != nil {
		return stats, fmt.Errorf("pipeline: read index mtime: %w", err)
	}

	// Step 2: compute change set.
	changeSet := scanner.Diff(current, previous, since)
	stats.NumFilesChanged = len(changeSet.Changed)
	stats.NumFilesDeleted = len(changeSet.Deleted)
	stats.NumFilesUnchanged = changeSet.Unchanged

	// Step 3: delete documents for every changed or deleted file,
	// ensuring uniqueness before reinsert.
	for _, path := range append(append([]string{}, changeSet.Changed...), changeSet.Deleted...) {
		if err := store.DeleteFile(path); err != nil {
			return stats, fmt.Errorf("pipeline: delete stale documents for %s: %w", path, err)
		}
	}

	if len(changeSet.Changed) == 0 {
		return stats, nil
	}

	numProcesses := opts.NumProcesses
	if numProcesses < 1 {
		numProcesses = runtime.NumCPU()
	}

	extractOpts := elf.Options{
		MinSymbolSize:      opts.MinSymbolSize,
		ResolveRelocations: opts.ResolveRelocations,
	}

	work := make(chan string)
	go func() {
		defer close(work)
		for _, path := range changeSet.Changed {
			if shouldQuit() {
				return
			}
			select {
			case work <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	// db is a *compdb.DB that may be a nil pointer (glob strategy);
	// assigning it to the sourceAttributor interface directly would
	// produce a non-nil interface wrapping a nil pointer, so convert
	// explicitly.
	var attributor sourceAttributor
	if db != nil {
		attributor = db
	}

	var mu sync.Mutex // protects stats accumulation across workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numProcesses)

	for i := 0; i < numProcesses; i++ {
		g.Go(func() error {
			return runWorker(gctx, store, attributor, work, extractOpts, shouldQuit, &mu, &stats)
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	if shouldQuit() {
		return stats, bdxerrors.ErrInterrupted
	}
	return stats, nil
}

// runWorker opens a private shard, begins its single transaction, and
// drains the work channel until it closes or the context is
// cancelled. A watchdog goroutine observes ctx.Done() independently of
// the main processing loop so the worker commits and closes
// deterministically regardless of which of the two fires first (spec
// §4.7 step 6: "An auxiliary 'watchdog' coroutine in each worker waits
// on a stop event and a barrier so the main thread can join
// deterministically").
func runWorker(ctx context.Context, store *index.Store, db sourceAttributor, work <-chan string, extractOpts elf.Options, shouldQuit func() bool, mu *sync.Mutex, stats *Stats) error {
	shard, err := store.OpenShard()
	if err != nil {
		return fmt.Errorf("pipeline: open shard: %w", err)
	}

	stop := make(chan struct{})
	var watchdogDone sync.WaitGroup
	watchdogDone.Add(1)
	go func() {
		defer watchdogDone.Done()
		select {
		case <-ctx.Done():
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		watchdogDone.Wait()
		if cerr := shard.Close(); cerr != nil {
			log.Printf("pipeline: close shard %s: %v", shard.Path(), cerr)
		}
	}()

	if err := shard.Begin(); err != nil {
		return fmt.Errorf("pipeline: begin transaction on %s: %w", shard.Path(), err)
	}

	filesIndexed := 0
	symbolsIndexed := 0

	for {
		select {
		case path, ok := <-work:
			if !ok {
				if err := shard.Commit(); err != nil {
					return fmt.Errorf("pipeline: commit %s: %w", shard.Path(), err)
				}
				mu.Lock()
				stats.NumFilesIndexed += filesIndexed
				stats.NumSymbolsIndexed += symbolsIndexed
				mu.Unlock()
				return nil
			}
			n, err := indexOneFile(shard, path, db, extractOpts)
			if err != nil {
				log.Printf("pipeline: %v", bdxerrors.NewFilePerSymbolError(path, err))
				continue
			}
			filesIndexed++
			symbolsIndexed += n

			if shouldQuit() {
				if err := shard.Commit(); err != nil {
					return fmt.Errorf("pipeline: commit %s: %w", shard.Path(), err)
				}
				mu.Lock()
				stats.NumFilesIndexed += filesIndexed
				stats.NumSymbolsIndexed += symbolsIndexed
				mu.Unlock()
				return nil
			}

		case <-ctx.Done():
			if err := shard.Commit(); err != nil {
				return fmt.Errorf("pipeline: commit %s on cancellation: %w", shard.Path(), err)
			}
			mu.Lock()
			stats.NumFilesIndexed += filesIndexed
			stats.NumSymbolsIndexed += symbolsIndexed
			mu.Unlock()
			return nil
		}
	}
}

// sourceAttributor resolves the originating source file for an
// object, per spec §4.1 strategy 1 ("Compilation database"). *compdb.DB
// satisfies it; nil means no compdb strategy is active.
type sourceAttributor interface {
	SourceForObject(objectPath string) (string, bool)
}

func indexOneFile(shard shardWriter, path string, db sourceAttributor, opts elf.Options) (int, error) {
	if db != nil {
		if src, ok := db.SourceForObject(path); ok {
			opts.SourceFor = src
		}
	}

	syms, err := elf.Read(path, opts)
	if err != nil {
		return 0, err
	}

	if len(syms) == 0 {
		mtime, statErr := mtimeOf(path)
		if statErr != nil {
			return 0, statErr
		}
		if err := shard.AddSymbol(types.Placeholder(path, mtime)); err != nil {
			return 0, err
		}
		return 1, nil
	}

	for _, sym := range syms {
		if err := shard.AddSymbol(sym); err != nil {
			return 0, err
		}
	}
	return len(syms), nil
}

func mtimeOf(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// shardWriter is the subset of *index.Shard this package depends on,
// kept narrow so unit tests can substitute a fake.
type shardWriter interface {
	AddSymbol(sym types.Symbol) error
}
