package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/bdx/internal/config"
	bdxerrors "github.com/standardbeagle/bdx/internal/errors"
	"github.com/standardbeagle/bdx/internal/index"
	"github.com/standardbeagle/bdx/internal/interrupt"
	"github.com/standardbeagle/bdx/internal/pipeline"
	"github.com/standardbeagle/bdx/internal/scanner"
	"github.com/standardbeagle/bdx/internal/schema"
	"github.com/standardbeagle/bdx/internal/watch"
)

var indexCommand = &cli.Command{
	Name:  "index",
	Usage: "Build or refresh the index for a binary directory",
	Flags: append(append([]cli.Flag{}, dirAndIndexFlags...),
		&cli.BoolFlag{
			Name:    "use-compilation-database",
			Aliases: []string{"c"},
			Usage:   "Attribute source files via compile_commands.json instead of globbing",
		},
		&cli.StringSliceFlag{
			Name:    "option",
			Aliases: []string{"o"},
			Usage:   "Override an indexing option, key=value (num_processes, min_symbol_size, resolve_relocations, use_dwarf_fallback)",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Rerun indexing whenever a file under the binary directory changes (dev convenience, not part of the core)",
		},
	),
	Action: runIndex,
}

func runIndex(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	if c.Bool("use-compilation-database") {
		cfg.Indexing.UseCompilationDatabase = true
	}
	if err := applyIndexingOverrides(&cfg.Indexing, c.StringSlice("option")); err != nil {
		return err
	}

	dir, indexPath, err := resolveDirAndIndexPath(c, cfg)
	if err != nil {
		return err
	}

	store, err := index.Open(indexPath, index.Writable, schema.Default())
	if err != nil {
		return err
	}
	defer store.Close()

	flag := interrupt.New()
	stop := flag.Listen()
	defer stop()

	scanOpts := scanner.Options{UseCompilationDatabase: cfg.Indexing.UseCompilationDatabase}

	runOnce := func() error {
		stats, err := pipeline.Run(context.Background(), store, dir, cfg.Indexing, scanOpts, flag.ShouldQuit)
		if err != nil && err != bdxerrors.ErrInterrupted {
			return err
		}
		fmt.Printf("Files indexed: %d (out of %d changed files)\n", stats.NumFilesIndexed, stats.NumFilesChanged)
		fmt.Printf("Files removed from index: %d\n", stats.NumFilesDeleted)
		fmt.Printf("Symbols indexed: %d\n", stats.NumSymbolsIndexed)
		if err == bdxerrors.ErrInterrupted {
			fmt.Println("warning: interrupted, partial results indexed")
		}
		return nil
	}

	if err := runOnce(); err != nil {
		return err
	}
	if !c.Bool("watch") {
		return nil
	}

	w, err := watch.New(dir, watch.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("index: start watcher: %w", err)
	}
	defer w.Close()

	stopWatch := make(chan struct{})
	go func() {
		for !flag.ShouldQuit() {
			time.Sleep(200 * time.Millisecond)
		}
		close(stopWatch)
	}()

	fmt.Println("watching for changes, press Ctrl-C to stop")
	w.Run(stopWatch, func() {
		if err := runOnce(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
	return nil
}

func applyIndexingOverrides(opts *config.IndexingOptions, kvs []string) error {
	for _, kv := range kvs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return bdxerrors.NewConfigError(kv, "", fmt.Errorf("expected key=value"))
		}
		switch key {
		case "num_processes":
			n, err := strconv.Atoi(value)
			if err != nil {
				return bdxerrors.NewConfigError(key, value, err)
			}
			opts.NumProcesses = n
		case "min_symbol_size":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return bdxerrors.NewConfigError(key, value, err)
			}
			opts.MinSymbolSize = n
		case "resolve_relocations":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return bdxerrors.NewConfigError(key, value, err)
			}
			opts.ResolveRelocations = b
		case "use_dwarf_fallback":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return bdxerrors.NewConfigError(key, value, err)
			}
			opts.UseDWARFFallback = b
		default:
			return bdxerrors.NewConfigError(key, value, fmt.Errorf("unknown indexing option"))
		}
	}
	return nil
}
