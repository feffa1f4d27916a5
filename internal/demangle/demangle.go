// Package demangle wraps the optional `c++filt` collaborator program
// that turns a compiler-mangled identifier into its human-readable
// declaration (spec §6 "Collaborator programs").
//
// The source program this spec was distilled from caches a demangler
// instance across calls as a module-level singleton; bdx instead
// models it as an owned, scoped Demangler value passed into whichever
// subsystem needs it, so tests can swap in a fake without touching
// global state (spec §9 "Collaborator-singleton demangler").
package demangle

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Demangler demangles C++ symbol names via the system `c++filt`
// binary.
//
// Absence of the `c++filt` binary is not fatal (spec §6: "each is
// optional and its absence is not fatal"): Demangle then returns the
// input unchanged.
type Demangler struct {
	path string // resolved c++filt binary, "" if unavailable
}

// New builds a Demangler that shells out to binary (default
// "c++filt" if empty). The binary is located lazily on first use.
func New(binary string) *Demangler {
	if binary == "" {
		binary = "c++filt"
	}
	return &Demangler{path: binary}
}

// Available reports whether the underlying binary can be found on
// PATH.
func (d *Demangler) Available() bool {
	_, err := exec.LookPath(d.path)
	return err == nil
}

// Demangle returns the human-readable form of name, or name unchanged
// if c++filt is unavailable or fails (spec §3 "Demangled ... populated
// on demand by the demangler collaborator").
func (d *Demangler) Demangle(name string) string {
	out, err := d.DemangleAll([]string{name})
	if err != nil || len(out) == 0 {
		return name
	}
	return out[0]
}

// DemangleAll demangles a batch of names in one `c++filt` invocation
// ("One argument per name, stdout line is the demangled form", spec
// §6), which amortizes process-spawn cost across a whole search
// result set.
func (d *Demangler) DemangleAll(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if _, err := exec.LookPath(d.path); err != nil {
		return names, nil
	}

	cmd := exec.Command(d.path, names...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return names, fmt.Errorf("demangle: run %s: %w", d.path, err)
	}

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != len(names) {
		return names, nil
	}
	return lines, nil
}
