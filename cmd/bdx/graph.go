package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/bdx/internal/demangle"
	"github.com/standardbeagle/bdx/internal/display"
	"github.com/standardbeagle/bdx/internal/graph"
	"github.com/standardbeagle/bdx/internal/index"
	"github.com/standardbeagle/bdx/internal/interrupt"
	"github.com/standardbeagle/bdx/internal/schema"
	"github.com/standardbeagle/bdx/internal/types"
)

var graphCommand = &cli.Command{
	Name:      "graph",
	Usage:     "Find reference paths between two symbols and emit a DOT graph",
	ArgsUsage: "START_QUERY GOAL_QUERY",
	Flags: append(append([]cli.Flag{}, dirAndIndexFlags...),
		&cli.IntFlag{
			Name:    "num",
			Aliases: []string{"n"},
			Usage:   "Number of routes to find",
			Value:   1,
		},
		&cli.StringFlag{
			Name:    "algorithm",
			Aliases: []string{"a"},
			Usage:   "Search algorithm: BFS, DFS, or ASTAR",
			Value:   "BFS",
		},
		&cli.IntFlag{
			Name:  "max-depth",
			Usage: "Maximum path depth before a route is abandoned",
			Value: 64,
		},
		&cli.BoolFlag{
			Name:  "demangle-names",
			Usage: "Demangle C++ symbol names via c++filt",
		},
		&cli.BoolFlag{
			Name:  "json-progress",
			Usage: "Emit one JSON line per route found, before the DOT output",
		},
	),
	Action: runGraph,
}

func runGraph(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("graph: requires START_QUERY and GOAL_QUERY")
	}
	startQuery, goalQuery := c.Args().Get(0), c.Args().Get(1)

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

	algorithm, err := graph.ParseAlgorithm(c.String("algorithm"))
	if err != nil {
		return err
	}

	flag := interrupt.New()
	stop := flag.Listen()
	defer stop()

	s := graph.NewSearcher(store, schema.Default())
	opts := graph.SearchOptions{
		Algorithm:  algorithm,
		NumRoutes:  c.Int("num"),
		MaxDepth:   c.Int("max-depth"),
		ShouldQuit: flag.ShouldQuit,
	}

	routes, err := s.Search(startQuery, goalQuery, opts)
	if err != nil {
		return err
	}

	demangleNames := c.Bool("demangle-names")
	if demangleNames {
		d := demangle.New("")
		for _, route := range routes {
			names := make([]string, len(route))
			for i, sym := range route {
				names[i] = sym.Name
			}
			demangled, _ := d.DemangleAll(names)
			for i := range route {
				if i < len(demangled) {
					route[i].Demangled = demangled[i]
				}
			}
		}
	}

	if c.Bool("json-progress") {
		for i, route := range routes {
			names := make([]string, len(route))
			for j, sym := range route {
				names[j] = sym.Name
			}
			line, _ := json.Marshal(map[string]interface{}{"route": i, "path": names})
			fmt.Println(string(line))
		}
	}

	paths := make([][]types.Symbol, len(routes))
	for i, r := range routes {
		paths[i] = r
	}
	fmt.Print(display.WriteDOT(paths, demangleNames))
	return nil
}
