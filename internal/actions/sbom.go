package actions

import (
	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
	"github.com/abhishek9sharma/sarathi/internal/git"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
	"github.com/abhishek9sharma/sarathi/internal/sbom"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

// SBOMOptions contains options shared by the sbom subcommands
type SBOMOptions struct {
	// Path is the module directory; empty means the working directory.
	Path string
	// Package is the -p module for depgraph and revdeps.
	Package string
	JSON    bool
	// Remote also asks the GitHub API for licenses.
	Remote bool
	// Fail makes check return ErrIntegrityIssues when problems are found.
	Fail bool
	// Graph overrides `go mod graph`.
	Graph sbom.GraphSource
}

func newAuditor(ctx *runtime.Context, opts SBOMOptions) *sbom.Auditor {
	dir := opts.Path
	if dir == "" {
		dir = ctx.WorkDir
	}
	a := sbom.NewAuditor(dir)
	if opts.Graph != nil {
		a.Graph = opts.Graph
	}
	if opts.Remote {
		a.Licenses = sbom.ChainResolver{a.Licenses, sbom.NewGitHubResolver(git.NewGitHubClient(ctx))}
	}
	return a
}

// SBOMImportsAction prints which files import each external module
func SBOMImportsAction(ctx *runtime.Context, opts SBOMOptions) error {
	a := newAuditor(ctx, opts)
	if !opts.JSON {
		ctx.Splog.Info("🔍 Scanning for imports in: %s", tui.ColorCyan(a.Dir))
	}
	report, err := a.Imports(ctx)
	if err != nil {
		return err
	}
	return sbom.RenderImports(ctx.Splog.Writer(), report, opts.JSON)
}

// SBOMGraphAction prints the dependency tree of the project or of one module
func SBOMGraphAction(ctx *runtime.Context, opts SBOMOptions) error {
	if opts.Package == "" {
		ctx.Splog.Info("🔍 %s", tui.ColorCyan("Analyzing project code to find root dependencies..."))
	}
	tree, roots, err := newAuditor(ctx, opts).Tree(ctx, opts.Package)
	if err != nil {
		return err
	}
	if roots == 0 {
		ctx.Splog.Info("%s", tui.ColorYellow("No external dependencies found to graph."))
		return nil
	}
	ctx.Splog.Info("\n🌳 %s\n", tui.ColorGreen("Generating Dependency Graph:"))
	return sbom.RenderTree(ctx.Splog.Writer(), tree, roots)
}

// SBOMCheckAction compares go.mod with the imports actually used
func SBOMCheckAction(ctx *runtime.Context, opts SBOMOptions) error {
	report, err := newAuditor(ctx, opts).Check(ctx)
	if err != nil {
		return err
	}
	if err := sbom.RenderIntegrity(ctx.Splog.Writer(), report); err != nil {
		return err
	}
	if opts.Fail && report.HasIssues() {
		return sarathierrors.ErrIntegrityIssues
	}
	return nil
}

// SBOMRevdepsAction prints the modules that require opts.Package
func SBOMRevdepsAction(ctx *runtime.Context, opts SBOMOptions) error {
	if opts.Package == "" {
		return sbom.ErrPackageRequired
	}
	ctx.Splog.Info("🔍 %s\n", tui.ColorCyan("Searching for reverse dependencies of '"+opts.Package+"'..."))
	deps, err := newAuditor(ctx, opts).Dependents(ctx, opts.Package)
	if err != nil {
		return err
	}
	return sbom.RenderDependents(ctx.Splog.Writer(), opts.Package, deps)
}
