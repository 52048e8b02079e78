package sbom

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/abhishek9sharma/sarathi/internal/tui"
)

const summaryRule = 40

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// VersionColor colors released versions green, pre-releases and
// pseudo-versions yellow and unknown versions cyan.
func VersionColor(version string) string {
	if version == UnknownVersion {
		return tui.ColorCyan(version)
	}
	v, err := semver.NewVersion(version)
	if err != nil || v.Prerelease() != "" {
		return tui.ColorYellow(version)
	}
	return tui.ColorGreen(version)
}

// RenderImports writes the library to file mapping as a table or JSON
func RenderImports(w io.Writer, r *ImportReport, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if len(r.Libraries) == 0 {
		_, err := fmt.Fprintln(w, tui.ColorYellow("No external libraries found."))
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		Headers("Library", "Version", "License", "Imported In").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, lib := range r.Names() {
		info := r.PackageInfo[lib]
		t.Row(tui.Bold(lib), VersionColor(info.Version), info.License, tui.ColorDim(strings.Join(r.Libraries[lib], "\n")))
	}

	fmt.Fprintln(w, tui.Bold("📦 SBOM: Library to File Mapping"))
	fmt.Fprintln(w, t.String())
	_, err := fmt.Fprintf(w, "\n%s\n\n", tui.ColorDim(fmt.Sprintf("Total external libraries: %d", len(r.Libraries))))
	return err
}

func depLabel(n *DepNode) string {
	label := fmt.Sprintf("%s (%s)", tui.Bold(n.Path), tui.ColorCyan(n.Version))
	if n.Repeated {
		label += " " + tui.ColorDim("(repeated)")
	}
	return label
}

func addBranch(parent *tree.Tree, n *DepNode) {
	if len(n.Children) == 0 {
		parent.Child(depLabel(n))
		return
	}
	branch := tree.Root(depLabel(n))
	for _, c := range n.Children {
		addBranch(branch, c)
	}
	parent.Child(branch)
}

// RenderTree writes the dependency forest followed by a summary
func RenderTree(w io.Writer, t *DepTree, rootCount int) error {
	root := tree.Root(tui.Bold("Project Roots"))
	for _, n := range t.Roots {
		addBranch(root, n)
	}
	fmt.Fprintln(w, root.String())
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("─", summaryRule))
	fmt.Fprintln(w, "📊 SBOM Summary:")
	fmt.Fprintf(w, "  • Root dependencies: %s\n", tui.ColorCyan(fmt.Sprint(rootCount)))
	_, err := fmt.Fprintf(w, "  • Total unique dependencies: %s\n\n", tui.ColorGreen(fmt.Sprint(t.Unique)))
	return err
}

func panel(title string, items []string, color lipgloss.Color) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "  • " + item
	}
	titleLine := lipgloss.NewStyle().Foreground(color).Bold(true).Render(title)
	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
	return titleLine + "\n" + body
}

// RenderIntegrity writes the integrity check results
func RenderIntegrity(w io.Writer, r *IntegrityReport) error {
	fmt.Fprintf(w, "\n📊 %s\n\n", tui.Bold("Integrity Check Results"))
	if len(r.Unused) > 0 {
		fmt.Fprintln(w, panel("Potential Bloat (Declared but unused)", r.Unused, lipgloss.Color("3")))
	} else {
		fmt.Fprintln(w, "✅ "+tui.ColorGreen("No unused dependencies found."))
	}
	if len(r.Undeclared) > 0 {
		_, err := fmt.Fprintln(w, panel("Undeclared (Used but missing from go.mod)", r.Undeclared, lipgloss.Color("1")))
		return err
	}
	_, err := fmt.Fprintf(w, "✅ %s\n\n", tui.ColorGreen("All imported packages are declared."))
	return err
}

// RenderDependents writes the modules requiring target
func RenderDependents(w io.Writer, target string, deps []Dependent) error {
	if len(deps) == 0 {
		_, err := fmt.Fprintln(w, tui.ColorYellow(fmt.Sprintf("No modules in the graph depend on '%s'.", target)))
		return err
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("Package", "Version", "Requirement").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, d := range deps {
		t.Row(tui.ColorGreen(d.Package), tui.ColorCyan(d.Version), tui.ColorDim(d.Requirement))
	}
	fmt.Fprintln(w, tui.Bold("Dependents of "+target))
	fmt.Fprintln(w, t.String())
	_, err := fmt.Fprintf(w, "\n%s\n\n", tui.ColorDim(fmt.Sprintf("Found %d dependents.", len(deps))))
	return err
}
