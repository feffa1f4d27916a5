package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/bdx/internal/index"
	"github.com/standardbeagle/bdx/internal/schema"
)

var filesCommand = &cli.Command{
	Name:   "files",
	Usage:  "List all indexed files, lexicographically",
	Flags:  dirAndIndexFlags,
	Action: runFiles,
}

func runFiles(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	_, indexPath, err := resolveDirAndIndexPath(c, cfg)
	if err != nil {
		return err
	}

	store, err := index.Open(indexPath, index.ReadOnly, schema.Default())
	if err != nil {
		return err
	}
	defer store.Close()

	paths, err := store.AllFiles()
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
