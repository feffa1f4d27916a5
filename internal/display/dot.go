package display

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/bdx/internal/types"
)

// WriteDOT renders a set of graph-search paths as a Graphviz DOT
// digraph (spec §1 "the DOT-graph writer"), one edge per consecutive
// pair of symbols across every path, deduplicated.
func WriteDOT(paths [][]types.Symbol, demangleNames bool) string {
	var b strings.Builder
	b.WriteString("digraph bdx {\n")
	b.WriteString("  rankdir=LR;\n")

	seen := make(map[string]struct{})
	label := func(sym types.Symbol) string {
		if demangleNames && sym.Demangled != "" {
			return sym.Demangled
		}
		return sym.Name
	}

	for _, path := range paths {
		for i := 0; i+1 < len(path); i++ {
			from, to := label(path[i]), label(path[i+1])
			edge := from + "\x00" + to
			if _, ok := seen[edge]; ok {
				continue
			}
			seen[edge] = struct{}{}
			fmt.Fprintf(&b, "  %q -> %q;\n", from, to)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
