package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/bdx/internal/demangle"
	"github.com/standardbeagle/bdx/internal/display"
	"github.com/standardbeagle/bdx/internal/index"
	"github.com/standardbeagle/bdx/internal/query"
	"github.com/standardbeagle/bdx/internal/schema"
)

var searchCommand = &cli.Command{
	Name:    "search",
	Aliases: []string{"s"},
	Usage:   "Search the index for symbols",
	Flags: append(append([]cli.Flag{}, dirAndIndexFlags...),
		&cli.IntFlag{
			Name:    "num",
			Aliases: []string{"n"},
			Usage:   "Limit the number of results",
			Value:   100,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: default, json, sexp, or a text/template body",
		},
		&cli.BoolFlag{
			Name:  "demangle-names",
			Usage: "Demangle C++ symbol names via c++filt",
		},
	),
	Action: runSearch,
}

func runSearch(c *cli.Context) error {
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

	raw := ""
	for i, arg := range c.Args().Slice() {
		if i > 0 {
			raw += " "
		}
		raw += arg
	}

	q, err := query.Compile(raw, schema.Default(), query.Options{AutoWildcard: cfg.Query.AutoWildcard})
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	limit := c.Int("num")
	symbols, err := store.Search(q, 0, limit)
	if err != nil {
		return err
	}

	demangleNames := c.Bool("demangle-names")
	if demangleNames {
		d := demangle.New("")
		names := make([]string, len(symbols))
		for i, sym := range symbols {
			names[i] = sym.Name
		}
		demangled, _ := d.DemangleAll(names)
		for i := range symbols {
			if i < len(demangled) {
				symbols[i].Demangled = demangled[i]
			}
		}
	}

	format, tmplText := display.ParseFormat(c.String("format"))
	formatter, err := display.New(format, demangleNames, tmplText)
	if err != nil {
		return err
	}

	for _, sym := range symbols {
		line, err := formatter.Render(sym)
		if err != nil {
			return err
		}
		fmt.Println(line)
	}
	return nil
}
