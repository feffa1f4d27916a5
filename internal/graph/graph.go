// Package graph implements Graph Search (spec §4.8): given a start and
// a goal query, enumerate up to N paths connecting some start symbol
// to some goal symbol in the forward call graph. Edges are
// reconstructed from the reverse reference relation stored on every
// document's relocations field, so the search itself walks backwards
// from goal to start and reverses each path before emission.
package graph

import (
	"container/heap"
	"fmt"

	"github.com/standardbeagle/bdx/internal/index"
	"github.com/standardbeagle/bdx/internal/query"
	"github.com/standardbeagle/bdx/internal/schema"
	"github.com/standardbeagle/bdx/internal/types"
)

// Algorithm selects the traversal strategy (spec §4.8).
type Algorithm int

const (
	BFS Algorithm = iota
	DFS
	AStar
)

func (a Algorithm) String() string {
	switch a {
	case BFS:
		return "BFS"
	case DFS:
		return "DFS"
	case AStar:
		return "ASTAR"
	default:
		return "BFS"
	}
}

// ParseAlgorithm accepts the CLI's -a flag values, case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "BFS", "bfs", "":
		return BFS, nil
	case "DFS", "dfs":
		return DFS, nil
	case "ASTAR", "astar", "A*", "a*":
		return AStar, nil
	default:
		return BFS, fmt.Errorf("graph: unknown algorithm %q, must be one of [BFS, DFS, ASTAR]", s)
	}
}

// SearchOptions configures one Search call.
type SearchOptions struct {
	Algorithm Algorithm
	// NumRoutes caps how many paths are returned; the outer loop stops
	// once it has this many (spec §4.8 "Stop conditions").
	NumRoutes int
	// MaxDepth bounds traversal depth on degenerate reference graphs;
	// not named by the core spec, carried over from the original
	// implementation's --max-depth safety cutoff (SPEC_FULL.md).
	MaxDepth int
	// ShouldQuit is polled between expansion steps; a SIGINT-aware
	// implementation can pass interrupt.Flag.ShouldQuit.
	ShouldQuit func() bool
}

// DefaultSearchOptions matches the original tool's defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Algorithm: BFS, NumRoutes: 1, MaxDepth: 64}
}

// Path is an ordered chain of Symbols from a start symbol to a goal
// symbol in the forward call-graph direction, length >= 2.
type Path []types.Symbol

// Searcher owns a neighbor-set memoization cache scoped to one Index
// Store handle's lifetime (spec §5 "memoized collaborator caches ...
// are per-process and not shared across workers"); construct a fresh
// Searcher per command invocation rather than sharing one globally.
type Searcher struct {
	store  *index.Store
	schema *schema.Schema
	cache  map[string][]types.Symbol
}

// NewSearcher builds a Searcher bound to store and its schema.
func NewSearcher(store *index.Store, sch *schema.Schema) *Searcher {
	return &Searcher{store: store, schema: sch, cache: make(map[string][]types.Symbol)}
}

const neighborFetchLimit = 10000

// neighbors returns every symbol y such that x.Name is present in
// y.Relocations, i.e. the symbols that reference x — the edge
// direction the core actually stores (spec §4.8 "Edges").
func (s *Searcher) neighbors(x types.Symbol) ([]types.Symbol, error) {
	if cached, ok := s.cache[x.Name]; ok {
		return cached, nil
	}

	field, ok := s.schema.Lookup("relocations")
	if !ok {
		return nil, fmt.Errorf("graph: schema has no relocations field")
	}
	q, err := field.MakeQuery(x.Name, false)
	if err != nil {
		return nil, err
	}

	out, err := s.store.Search(q, 0, neighborFetchLimit)
	if err != nil {
		return nil, err
	}
	s.cache[x.Name] = out
	return out, nil
}

// resolve runs raw through the query compiler/store and returns its
// hits.
func (s *Searcher) resolve(raw string) ([]types.Symbol, error) {
	q, err := query.Compile(raw, s.schema, query.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return s.store.Search(q, 0, neighborFetchLimit)
}

// Search enumerates up to opts.NumRoutes paths from a symbol matching
// startQuery to a symbol matching goalQuery, following the forward
// call graph (spec §4.8).
func (s *Searcher) Search(startQuery, goalQuery string, opts SearchOptions) ([]Path, error) {
	if opts.NumRoutes <= 0 {
		opts.NumRoutes = 1
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 64
	}
	shouldQuit := opts.ShouldQuit
	if shouldQuit == nil {
		shouldQuit = func() bool { return false }
	}

	starts, err := s.resolve(startQuery)
	if err != nil {
		return nil, err
	}
	goals, err := s.resolve(goalQuery)
	if err != nil {
		return nil, err
	}

	startSet := make(map[string]struct{}, len(starts))
	for _, sym := range starts {
		startSet[sym.Name] = struct{}{}
	}

	var routes []Path

	// Outer loop: one reverse-direction search per goal symbol, since
	// the search itself runs from goal to start (spec §4.8). Stops
	// once num_routes is reached, the goal set is exhausted, or
	// should_quit fires.
	for _, g := range goals {
		if len(routes) >= opts.NumRoutes || shouldQuit() {
			break
		}

		remaining := opts.NumRoutes - len(routes)
		var found []Path
		var err error
		switch opts.Algorithm {
		case DFS:
			found, err = s.dfs(g, startSet, remaining, opts.MaxDepth, shouldQuit)
		case AStar:
			found, err = s.astar(g, startSet, remaining, opts.MaxDepth, shouldQuit)
		default:
			found, err = s.bfs(g, startSet, remaining, opts.MaxDepth, shouldQuit)
		}
		if err != nil {
			return nil, err
		}

		for _, p := range found {
			if len(routes) >= opts.NumRoutes {
				break
			}
			routes = append(routes, reversed(p))
		}
	}

	return routes, nil
}

func reversed(p Path) Path {
	out := make(Path, len(p))
	for i, sym := range p {
		out[len(p)-1-i] = sym
	}
	return out
}

// bfs explores reverse edges breadth-first from goal; the first path
// to reach startSet is shortest (spec §4.8 "BFS").
func (s *Searcher) bfs(goal types.Symbol, startSet map[string]struct{}, limit, maxDepth int, shouldQuit func() bool) ([]Path, error) {
	type frame struct {
		path  Path
		depth int
	}

	visited := map[string]struct{}{goal.Name: {}}
	queue := []frame{{path: Path{goal}, depth: 0}}
	var out []Path

	for len(queue) > 0 {
		if len(out) >= limit || shouldQuit() {
			break
		}
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		next, err := s.neighbors(cur.path[len(cur.path)-1])
		if err != nil {
			return nil, err
		}
		for _, n := range next {
			if _, seen := visited[n.Name]; seen {
				continue
			}
			visited[n.Name] = struct{}{}
			extended := append(append(Path{}, cur.path...), n)

			if _, isStart := startSet[n.Name]; isStart && len(extended) >= 2 {
				out = append(out, extended)
				if len(out) >= limit {
					return out, nil
				}
				continue
			}
			queue = append(queue, frame{path: extended, depth: cur.depth + 1})
		}
	}
	return out, nil
}

// dfs is bfs's LIFO counterpart (spec §4.8 "DFS").
func (s *Searcher) dfs(goal types.Symbol, startSet map[string]struct{}, limit, maxDepth int, shouldQuit func() bool) ([]Path, error) {
	type frame struct {
		path  Path
		depth int
	}

	visited := map[string]struct{}{goal.Name: {}}
	stack := []frame{{path: Path{goal}, depth: 0}}
	var out []Path

	for len(stack) > 0 {
		if len(out) >= limit || shouldQuit() {
			break
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.depth >= maxDepth {
			continue
		}

		next, err := s.neighbors(cur.path[len(cur.path)-1])
		if err != nil {
			return nil, err
		}
		for _, n := range next {
			if _, seen := visited[n.Name]; seen {
				continue
			}
			visited[n.Name] = struct{}{}
			extended := append(append(Path{}, cur.path...), n)

			if _, isStart := startSet[n.Name]; isStart && len(extended) >= 2 {
				out = append(out, extended)
				if len(out) >= limit {
					return out, nil
				}
				continue
			}
			stack = append(stack, frame{path: extended, depth: cur.depth + 1})
		}
	}
	return out, nil
}

// astarItem is one frontier entry in the A* priority queue.
type astarItem struct {
	path  Path
	depth int
	cost  int // g(n): edge weight defaults to 1 (spec §4.8)
}

type astarQueue []*astarItem

func (q astarQueue) Len() int { return len(q) }

// Less ranks by f(n) = g(n) + h(n); h defaults to 0, so this is
// equivalent to uniform-cost search until heuristic scoring exists
// (spec §4.8 "heuristic and edge weight default to 1, placeholder for
// future scoring").
func (q astarQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q astarQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *astarQueue) Push(x interface{}) { *q = append(*q, x.(*astarItem)) }
func (q *astarQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// astar is a standard best-first search over reverse edges (spec
// §4.8 "A*").
func (s *Searcher) astar(goal types.Symbol, startSet map[string]struct{}, limit, maxDepth int, shouldQuit func() bool) ([]Path, error) {
	visited := map[string]struct{}{goal.Name: {}}
	pq := &astarQueue{{path: Path{goal}, depth: 0, cost: 0}}
	heap.Init(pq)
	var out []Path

	for pq.Len() > 0 {
		if len(out) >= limit || shouldQuit() {
			break
		}
		cur := heap.Pop(pq).(*astarItem)

		if cur.depth >= maxDepth {
			continue
		}

		next, err := s.neighbors(cur.path[len(cur.path)-1])
		if err != nil {
			return nil, err
		}
		for _, n := range next {
			if _, seen := visited[n.Name]; seen {
				continue
			}
			visited[n.Name] = struct{}{}
			extended := append(append(Path{}, cur.path...), n)

			if _, isStart := startSet[n.Name]; isStart && len(extended) >= 2 {
				out = append(out, extended)
				if len(out) >= limit {
					return out, nil
				}
				continue
			}
			heap.Push(pq, &astarItem{path: extended, depth: cur.depth + 1, cost: cur.cost + 1})
		}
	}
	return out, nil
}
