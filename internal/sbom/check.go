package sbom

import (
	"context"
	"sort"
)

// IntegrityReport compares go.mod against actual imports
type IntegrityReport struct {
	// Unused lists direct requirements no Go file imports
	Unused []string
	// Undeclared lists imported modules go.mod does not require
	Undeclared []string
}

// HasIssues reports whether anything was found
func (r *IntegrityReport) HasIssues() bool {
	return len(r.Unused) > 0 || len(r.Undeclared) > 0
}

// CheckIntegrity audits the module in dir. Requirements marked indirect and
// tool dependencies are never reported as unused.
func CheckIntegrity(ctx context.Context, dir string) (*IntegrityReport, error) {
	gm, err := ReadGoMod(dir)
	if err != nil {
		return nil, err
	}
	imports, err := ScanImports(ctx, dir, nil)
	if err != nil {
		return nil, err
	}

	tools := map[string]bool{}
	for _, t := range gm.Tools {
		if req, ok := gm.ModuleFor(t); ok {
			tools[req.Path] = true
		}
	}

	report := &IntegrityReport{Undeclared: imports.Undeclared}
	for _, r := range gm.Requires {
		if r.Indirect || tools[r.Path] {
			continue
		}
		if _, used := imports.Libraries[r.Path]; !used {
			report.Unused = append(report.Unused, r.Path)
		}
	}
	sort.Strings(report.Unused)
	return report, nil
}
