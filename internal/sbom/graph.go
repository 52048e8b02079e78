package sbom

import (
	"bufio"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/abhishek9sharma/sarathi/internal/git"
)

// GraphSource returns `go mod graph` output for the module in dir
type GraphSource func(ctx context.Context, dir string) (string, error)

// GoModGraph runs `go mod graph` in dir
func GoModGraph(ctx context.Context, dir string) (string, error) {
	return git.NewToolRunner("go", dir).RunRaw(ctx, "mod", "graph")
}

// Graph is the module requirement graph. Nodes are "path@version", except
// the main module which has no version.
type Graph struct {
	Main     string
	edges    map[string][]string
	versions map[string][]string
}

// ParseGraph reads `go mod graph` output
func ParseGraph(r io.Reader) (*Graph, error) {
	g := &Graph{edges: map[string][]string{}, versions: map[string][]string{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		from, to := fields[0], fields[1]
		if !strings.Contains(from, "@") && g.Main == "" {
			g.Main = from
		}
		g.edges[from] = append(g.edges[from], to)
		g.addVersion(from)
		g.addVersion(to)
	}
	return g, scanner.Err()
}

func (g *Graph) addVersion(node string) {
	path, version, ok := strings.Cut(node, "@")
	if !ok {
		return
	}
	for _, v := range g.versions[path] {
		if v == version {
			return
		}
	}
	g.versions[path] = append(g.versions[path], version)
}

// Selected returns the version minimal version selection settles on, the
// highest one present in the graph.
func (g *Graph) Selected(path string) string {
	var best *semver.Version
	bestRaw := ""
	for _, raw := range g.versions[path] {
		v, err := semver.NewVersion(raw)
		if err != nil {
			if bestRaw == "" {
				bestRaw = raw
			}
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestRaw = v, raw
		}
	}
	return bestRaw
}

// Has reports whether module path appears in the graph
func (g *Graph) Has(path string) bool {
	return len(g.versions[path]) > 0
}

// Requirements returns the module paths required by path at its selected
// version, sorted and deduplicated.
func (g *Graph) Requirements(path string) []string {
	node := path
	if path != g.Main {
		node = path + "@" + g.Selected(path)
	}
	seen := map[string]bool{}
	var out []string
	for _, to := range g.edges[node] {
		p, _, _ := strings.Cut(to, "@")
		if p == "go" || p == "toolchain" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// DepNode is one module in a rendered dependency tree
type DepNode struct {
	Path     string
	Version  string
	Repeated bool
	Children []*DepNode
}

// DepTree is the dependency forest below a set of root modules
type DepTree struct {
	Roots  []*DepNode
	Unique int
}

// BuildTree expands each root through the graph. Modules already expanded
// under the same root are marked repeated instead of expanded again.
func (g *Graph) BuildTree(roots []string) *DepTree {
	unique := map[string]bool{}
	tree := &DepTree{}

	var expand func(path string, seen map[string]bool) *DepNode
	expand = func(path string, seen map[string]bool) *DepNode {
		node := &DepNode{Path: path, Version: g.Selected(path)}
		unique[path] = true
		if seen[path] {
			node.Repeated = true
			return node
		}
		seen[path] = true
		for _, child := range g.Requirements(path) {
			node.Children = append(node.Children, expand(child, seen))
		}
		return node
	}

	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)
	for _, root := range sorted {
		if !g.Has(root) {
			continue
		}
		tree.Roots = append(tree.Roots, expand(root, map[string]bool{}))
	}
	tree.Unique = len(unique)
	return tree
}

// Dependent is a module requiring a target module
type Dependent struct {
	Package     string
	Version     string
	Requirement string
}

// Dependents returns every module version in the graph that requires target
func (g *Graph) Dependents(target string) []Dependent {
	var out []Dependent
	for from, tos := range g.edges {
		for _, to := range tos {
			p, _, _ := strings.Cut(to, "@")
			if p != target {
				continue
			}
			path, version, ok := strings.Cut(from, "@")
			if !ok {
				version = "(main)"
			}
			out = append(out, Dependent{Package: path, Version: version, Requirement: to})
			break
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Version < out[j].Version
	})
	return out
}
