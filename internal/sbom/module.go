// Package sbom audits the dependencies of a Go module: which external
// modules are imported where, the module graph, unused or undeclared
// requirements and reverse dependencies.
package sbom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// ErrNoGoMod is returned when a directory has no go.mod
var ErrNoGoMod = errors.New("no go.mod found")

// Requirement is one require line of go.mod
type Requirement struct {
	Path     string
	Version  string
	Indirect bool
}

// GoMod is the subset of go.mod the audits use
type GoMod struct {
	Dir      string
	Module   string
	Requires []Requirement
	Tools    []string
}

// ReadGoMod parses dir/go.mod
func ReadGoMod(dir string) (*GoMod, error) {
	path := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoGoMod, dir)
		}
		return nil, err
	}
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	gm := &GoMod{Dir: dir}
	if f.Module != nil {
		gm.Module = f.Module.Mod.Path
	}
	for _, r := range f.Require {
		gm.Requires = append(gm.Requires, Requirement{Path: r.Mod.Path, Version: r.Mod.Version, Indirect: r.Indirect})
	}
	for _, t := range f.Tool {
		gm.Tools = append(gm.Tools, t.Path)
	}
	sort.Slice(gm.Requires, func(i, j int) bool { return gm.Requires[i].Path < gm.Requires[j].Path })
	return gm, nil
}

// ModuleFor returns the requirement providing importPath, choosing the
// longest matching module path.
func (gm *GoMod) ModuleFor(importPath string) (Requirement, bool) {
	var best Requirement
	found := false
	for _, r := range gm.Requires {
		if importPath == r.Path || strings.HasPrefix(importPath, r.Path+"/") {
			if !found || len(r.Path) > len(best.Path) {
				best, found = r, true
			}
		}
	}
	return best, found
}

// Version returns the required version of module path, or ""
func (gm *GoMod) Version(path string) string {
	for _, r := range gm.Requires {
		if r.Path == path {
			return r.Version
		}
	}
	return ""
}

// IsStdlib reports whether importPath belongs to the standard library: its
// first element has no dot.
func IsStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

// IsInternal reports whether importPath is a package of module itself
func IsInternal(importPath, module string) bool {
	return module != "" && (importPath == module || strings.HasPrefix(importPath, module+"/"))
}

// guessModule derives a module path for an import that go.mod does not
// declare. Hosting sites with a host/owner/repo layout keep three elements.
func guessModule(importPath string) string {
	parts := strings.Split(importPath, "/")
	switch parts[0] {
	case "github.com", "gitlab.com", "bitbucket.org", "golang.org", "gopkg.in", "go.uber.org", "google.golang.org", "k8s.io", "sigs.k8s.io":
		n := 3
		if parts[0] == "gopkg.in" || parts[0] == "go.uber.org" || parts[0] == "google.golang.org" || parts[0] == "k8s.io" {
			n = 2
		}
		if len(parts) > n {
			parts = parts[:n]
		}
	}
	return strings.Join(parts, "/")
}
