// Package pathutil converts between absolute and relative path
// representations at the boundary between the on-disk index (which
// stores absolute paths, spec §4.3 "Path field") and user-facing input
// and output (which is typically relative to the current working
// directory).
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go" (outside root)
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go" (already relative)
func ToRelative(absPath, rootDir string) string {
	// Handle empty inputs
	if absPath == "" || rootDir == "" {
		return absPath
	}

	// If path is already relative, return as-is
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	// Clean both paths to normalize separators and remove redundant elements
	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	// Try to make relative
	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// If the relative path starts with ".." it means the file is outside the root
	// In this case, return the absolute path as it's clearer
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToAbsolute resolves path against the process's current working
// directory, returning it unchanged if already absolute or if the
// working directory cannot be determined (spec §4.3 "Path field": a
// query value is matched both as given and in its absolute form).
func ToAbsolute(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Clean(filepath.Join(cwd, path))
}

// Base returns the final path element, as filepath.Base, treated as
// its own indexed companion field so a bare basename query matches
// regardless of directory (spec §4.3 "Path field").
func Base(path string) string {
	return filepath.Base(path)
}
