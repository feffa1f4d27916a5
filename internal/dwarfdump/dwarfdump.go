// Package dwarfdump wraps the optional `dwarfdump -r <elf>` external
// collaborator, used as the second source-attribution strategy when a
// compilation database lookup misses (spec §4.1 "Source attribution").
//
// It scrapes DW_AT_name and DW_AT_comp_dir out of the tool's text
// output and joins them; bdx does not parse DWARF itself beyond this
// (spec §1 Non-goals: "Parsing DWARF beyond extracting compilation-unit
// file names").
package dwarfdump

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"regexp"
)

var (
	reName    = regexp.MustCompile(`DW_AT_name\s*\(?"?([^")\s]+)"?\)?`)
	reCompDir = regexp.MustCompile(`DW_AT_comp_dir\s*\(?"?([^")\s]+)"?\)?`)
)

// Lookup shells out to the configured binary (default "dwarfdump") to
// recover the source file name attributed to an ELF object, joining
// DW_AT_comp_dir and DW_AT_name when both are present. Returns "" on
// any failure: the collaborator's absence or an unparsable object is
// not fatal (spec §6 "each is optional and its absence is not fatal").
type Lookup struct {
	binary string
}

// New builds a Lookup that shells out to binary (default "dwarfdump"
// if empty).
func New(binary string) *Lookup {
	if binary == "" {
		binary = "dwarfdump"
	}
	return &Lookup{binary: binary}
}

// Available reports whether the underlying binary can be found.
func (l *Lookup) Available() bool {
	_, err := exec.LookPath(l.binary)
	return err == nil
}

// Source returns the absolute source path DWARF info attributes to
// elfPath, or "" if it cannot be determined.
func (l *Lookup) Source(elfPath string) string {
	if _, err := exec.LookPath(l.binary); err != nil {
		return ""
	}

	cmd := exec.Command(l.binary, "-r", elfPath)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}

	out := stdout.String()
	nameMatch := reName.FindStringSubmatch(out)
	if nameMatch == nil {
		return ""
	}
	name := nameMatch[1]
	if filepath.IsAbs(name) {
		return name
	}

	compDirMatch := reCompDir.FindStringSubmatch(out)
	if compDirMatch == nil {
		return ""
	}
	return filepath.Join(compDirMatch[1], name)
}
