package sbom

import (
	"context"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Placeholder values for imports go.mod does not declare
const (
	UnknownVersion = "Internal/Unknown"
	UnknownLicense = "N/A"
)

// PackageInfo describes one external module
type PackageInfo struct {
	Version string `json:"version"`
	License string `json:"license"`
}

// ImportReport maps external modules to the files importing them
type ImportReport struct {
	Module      string                 `json:"-"`
	Libraries   map[string][]string    `json:"libraries"`
	PackageInfo map[string]PackageInfo `json:"package_info"`
	// Undeclared lists modules imported but missing from go.mod
	Undeclared []string `json:"-"`
}

// Names returns the external modules, sorted
func (r *ImportReport) Names() []string {
	names := make([]string, 0, len(r.Libraries))
	for n := range r.Libraries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var skippedDirs = map[string]bool{
	"vendor":       true,
	"testdata":     true,
	"node_modules": true,
}

// FileImports returns the import paths of every Go file below dir, keyed by
// slash separated path relative to dir.
func FileImports(dir string) (map[string][]string, error) {
	out := map[string][]string{}
	fset := token.NewFileSet()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (skippedDirs[name] || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		var imports []string
		for _, spec := range f.Imports {
			p, err := strconv.Unquote(spec.Path.Value)
			if err == nil {
				imports = append(imports, p)
			}
		}
		out[filepath.ToSlash(rel)] = imports
		return nil
	})
	return out, err
}

// ScanImports builds the import report of the module in dir. Licenses are
// resolved with licenses, which may be nil.
func ScanImports(ctx context.Context, dir string, licenses LicenseResolver) (*ImportReport, error) {
	gm, err := ReadGoMod(dir)
	if err != nil {
		return nil, err
	}
	files, err := FileImports(dir)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{
		Module:      gm.Module,
		Libraries:   map[string][]string{},
		PackageInfo: map[string]PackageInfo{},
	}
	seen := map[string]map[string]bool{}
	undeclared := map[string]bool{}

	for file, imports := range files {
		for _, imp := range imports {
			if IsStdlib(imp) || IsInternal(imp, gm.Module) {
				continue
			}
			mod := guessModule(imp)
			info := PackageInfo{Version: UnknownVersion, License: UnknownLicense}
			if req, ok := gm.ModuleFor(imp); ok {
				mod = req.Path
				info = PackageInfo{Version: req.Version}
			} else {
				undeclared[mod] = true
			}

			if seen[mod] == nil {
				seen[mod] = map[string]bool{}
				report.PackageInfo[mod] = info
			}
			if !seen[mod][file] {
				seen[mod][file] = true
				report.Libraries[mod] = append(report.Libraries[mod], file)
			}
		}
	}

	for mod, info := range report.PackageInfo {
		sort.Strings(report.Libraries[mod])
		if info.Version == UnknownVersion {
			continue
		}
		info.License = UnknownLicenseName
		if licenses != nil {
			info.License = licenses.License(ctx, mod, info.Version)
		}
		report.PackageInfo[mod] = info
	}
	for mod := range undeclared {
		report.Undeclared = append(report.Undeclared, mod)
	}
	sort.Strings(report.Undeclared)
	return report, nil
}
