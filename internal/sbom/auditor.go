package sbom

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrPackageRequired is returned when revdeps has no target module
var ErrPackageRequired = errors.New("please specify a package with -p or --package")

// Auditor runs the dependency audits for one module directory
type Auditor struct {
	Dir      string
	Graph    GraphSource
	Licenses LicenseResolver
}

// NewAuditor audits dir with `go mod graph` and the local module cache
func NewAuditor(dir string) *Auditor {
	return &Auditor{Dir: dir, Graph: GoModGraph, Licenses: NewModCacheResolver()}
}

// Imports maps external modules to the files importing them
func (a *Auditor) Imports(ctx context.Context) (*ImportReport, error) {
	return ScanImports(ctx, a.Dir, a.Licenses)
}

// Check compares go.mod against the imports
func (a *Auditor) Check(ctx context.Context) (*IntegrityReport, error) {
	return CheckIntegrity(ctx, a.Dir)
}

func (a *Auditor) graph(ctx context.Context) (*Graph, error) {
	out, err := a.Graph(ctx, a.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read module graph: %w", err)
	}
	return ParseGraph(strings.NewReader(out))
}

// Tree builds the dependency tree of pkg, or of every imported module when
// pkg is empty. The second result is the number of roots requested.
func (a *Auditor) Tree(ctx context.Context, pkg string) (*DepTree, int, error) {
	var roots []string
	if pkg != "" {
		roots = []string{pkg}
	} else {
		report, err := ScanImports(ctx, a.Dir, nil)
		if err != nil {
			return nil, 0, err
		}
		roots = report.Names()
	}
	if len(roots) == 0 {
		return &DepTree{}, 0, nil
	}
	g, err := a.graph(ctx)
	if err != nil {
		return nil, 0, err
	}
	return g.BuildTree(roots), len(roots), nil
}

// Dependents lists the modules in the graph requiring pkg
func (a *Auditor) Dependents(ctx context.Context, pkg string) ([]Dependent, error) {
	if pkg == "" {
		return nil, ErrPackageRequired
	}
	g, err := a.graph(ctx)
	if err != nil {
		return nil, err
	}
	return g.Dependents(pkg), nil
}
