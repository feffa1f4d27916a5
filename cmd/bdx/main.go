// Command bdx is the CLI front-end over the core library: it wires
// together configuration, the scanner/pipeline, the query compiler,
// graph search, and the demangle/dwarfdump/display collaborators
// (spec §6 "CLI surface").
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/bdx/internal/config"
	"github.com/standardbeagle/bdx/internal/index"
	"github.com/standardbeagle/bdx/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "bdx",
		Usage:                  "ELF symbol-table indexing and cross-reference query engine",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Project config file path",
				Value:   config.DefaultConfigFile,
			},
		},
		Commands: []*cli.Command{
			indexCommand,
			searchCommand,
			filesCommand,
			graphCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfigWithOverrides loads the project config and layers any
// global CLI overrides on top (teacher's cmd/lci/main.go
// loadConfigWithOverrides shape).
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", c.String("config"), err)
	}
	return cfg, nil
}

// resolveDirAndIndexPath applies the -d/--index-path flags shared by
// every subcommand, falling back to the config-driven guess (spec §6;
// original's _common_options decorator).
func resolveDirAndIndexPath(c *cli.Context, cfg *config.Config) (dir, indexPath string, err error) {
	dir = c.String("directory")
	if dir == "" {
		dir = config.ResolveBinaryDir(cfg, ".")
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}

	indexPath = c.String("index-path")
	if indexPath == "" {
		indexPath = cfg.IndexPath
	}
	if indexPath == "" {
		indexPath, err = index.DefaultIndexPath("bdx", dir)
		if err != nil {
			return "", "", err
		}
	}
	return dir, indexPath, nil
}

var dirAndIndexFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "directory",
		Aliases: []string{"d"},
		Usage:   "Path to the binary directory",
	},
	&cli.StringFlag{
		Name:  "index-path",
		Usage: "Path to the index (default: $XDG_CACHE_HOME/bdx/index/<encoded-path>)",
	},
}
