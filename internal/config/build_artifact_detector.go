// Build-output-directory detection, adapted from the teacher's
// language-config sniffing (internal/config/build_artifact_detector.go)
// into a single-purpose guess: where does this tree's compiled .o
// files most likely live, when the user didn't pass -d explicitly.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector guesses a project's compiled-object output
// directory from build-tool manifest files found at its root.
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector builds a detector rooted at root.
func NewBuildArtifactDetector(root string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: root}
}

// DetectBinaryDir returns the first plausible object-output directory
// it finds, or "" if none of the recognized manifests are present or
// none of their candidate output directories exists.
func (d *BuildArtifactDetector) DetectBinaryDir() string {
	if dir := d.detectCargoTarget(); dir != "" {
		return dir
	}
	if dir := d.detectCMakeBuildDir(); dir != "" {
		return dir
	}
	if dir := d.detectPyprojectBuildDir(); dir != "" {
		return dir
	}
	return ""
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Profile struct {
		Release struct {
			Dir string `toml:"target-dir"`
		} `toml:"release"`
	} `toml:"profile"`
}

// detectCargoTarget reads Cargo.toml; rustc's default output tree is
// "target/debug" or "target/release" under the crate root, which
// contains intermediate .o files under a "deps" or "build" directory
// for most build configurations.
func (d *BuildArtifactDetector) detectCargoTarget() string {
	path := filepath.Join(d.projectRoot, "Cargo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var manifest cargoManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	targetDir := manifest.Profile.Release.Dir
	if targetDir == "" {
		targetDir = "target"
	}
	candidate := filepath.Join(d.projectRoot, targetDir, "debug")
	if dirExists(candidate) {
		return candidate
	}
	return ""
}

// detectCMakeBuildDir looks for a CMakeCache.txt, which CMake always
// writes to the build directory it was configured from; object files
// under a CMake build tree live alongside it in CMakeFiles/.
func (d *BuildArtifactDetector) detectCMakeBuildDir() string {
	candidates := []string{"build", "cmake-build-debug", "."}
	for _, c := range candidates {
		dir := filepath.Join(d.projectRoot, c)
		if _, err := os.Stat(filepath.Join(dir, "CMakeCache.txt")); err == nil {
			return dir
		}
	}
	return ""
}

type pyprojectManifest struct {
	Tool struct {
		Setuptools struct {
			BuildDir string `toml:"build-dir"`
		} `toml:"setuptools"`
	} `toml:"tool"`
}

// detectPyprojectBuildDir reads pyproject.toml for an explicit build
// directory override used by C-extension modules (setup.py build_ext
// --build-lib style trees default to "build/").
func (d *BuildArtifactDetector) detectPyprojectBuildDir() string {
	path := filepath.Join(d.projectRoot, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var manifest pyprojectManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	dir := manifest.Tool.Setuptools.BuildDir
	if dir == "" {
		dir = "build"
	}
	candidate := filepath.Join(d.projectRoot, dir)
	if dirExists(candidate) {
		return candidate
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
