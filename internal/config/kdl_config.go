package config

import (
	"fmt"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// mergeKDL parses a KDL document and layers its nodes over cfg,
// following the node-walking shape of the teacher's parseKDL
// (lci/internal/config/kdl_config.go): every node is optional, and an
// absent node leaves the existing default untouched.
//
// Recognized top-level shape:
//
//	binary_dir "build/obj"
//	index_path "/tmp/bdx-index"
//	indexing {
//	    num_processes 8
//	    min_symbol_size 1
//	    resolve_relocations true
//	    use_compilation_database true
//	    use_dwarf_fallback false
//	}
//	query {
//	    auto_wildcard true
//	    strict false
//	}
func mergeKDL(cfg *Config, data []byte) error {
	doc, err := kdl.Parse(strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", DefaultConfigFile, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "binary_dir":
			assignSimpleString(n, "binary_dir", func(v string) { cfg.BinaryDir = v })
		case "index_path":
			assignSimpleString(n, "index_path", func(v string) { cfg.IndexPath = v })
		case "indexing":
			mergeIndexingSection(cfg, n)
		case "query":
			mergeQuerySection(cfg, n)
		}
	}
	return nil
}

func mergeIndexingSection(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "num_processes":
			if v, ok := firstIntArg(cn); ok {
				cfg.Indexing.NumProcesses = v
			}
		case "min_symbol_size":
			if v, ok := firstIntArg(cn); ok && v >= 0 {
				cfg.Indexing.MinSymbolSize = uint64(v)
			}
		case "resolve_relocations":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Indexing.ResolveRelocations = v
			}
		case "use_compilation_database":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Indexing.UseCompilationDatabase = v
			}
		case "use_dwarf_fallback":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Indexing.UseDWARFFallback = v
			}
		}
	}
}

func mergeQuerySection(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "auto_wildcard":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Query.AutoWildcard = v
			}
		case "strict":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Query.Strict = v
			}
		}
	}
}

// --- kdl-go document helpers, same shape as the teacher's ---

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func firstIntArg(n *document.Node) (int, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
