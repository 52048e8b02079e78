package sbom

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/require"

	"github.com/abhishek9sharma/sarathi/internal/tui"
)

const testGoMod = `module example.com/app

go 1.24

require (
	github.com/spf13/cobra v1.8.0
	golang.org/x/mod v0.20.0
	github.com/unused/thing v1.0.0
	golang.org/x/tools v0.25.0
	github.com/indirect/dep v0.1.0 // indirect
)

tool golang.org/x/tools/cmd/stringer
`

const testGraph = `example.com/app github.com/spf13/cobra@v1.8.0
example.com/app golang.org/x/mod@v0.20.0
example.com/app go@1.24
github.com/spf13/cobra@v1.8.0 github.com/spf13/pflag@v1.0.5
github.com/spf13/cobra@v1.8.0 github.com/inconshreveable/mousetrap@v1.1.0
github.com/spf13/cobra@v1.7.0 github.com/spf13/pflag@v1.0.3
github.com/spf13/pflag@v1.0.5 github.com/spf13/cobra@v1.7.0
golang.org/x/mod@v0.20.0 golang.org/x/tools@v0.13.0
`

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", testGoMod)
	writeFile(t, dir, "main.go", `package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"example.com/app/internal/x"
)

func main() { fmt.Println(cobra.Command{}, errors.New("x"), x.V) }
`)
	writeFile(t, dir, "internal/x/x.go", `package x

import (
	"github.com/spf13/cobra"
	"golang.org/x/mod/modfile"
)

var V = modfile.File{}
var _ = cobra.Command{}
`)
	writeFile(t, dir, "vendor/github.com/vendored/v.go", `package v

import "github.com/vendored/thing"
`)
	writeFile(t, dir, "broken.go", "this is not go")
	return dir
}

type fixedLicense string

func (f fixedLicense) License(context.Context, string, string) string { return string(f) }

func TestReadGoMod(t *testing.T) {
	t.Parallel()

	gm, err := ReadGoMod(testModule(t))
	require.NoError(t, err)
	require.Equal(t, "example.com/app", gm.Module)
	require.Len(t, gm.Requires, 5)
	require.Equal(t, []string{"golang.org/x/tools/cmd/stringer"}, gm.Tools)
	require.Equal(t, "v1.8.0", gm.Version("github.com/spf13/cobra"))

	req, ok := gm.ModuleFor("golang.org/x/mod/modfile")
	require.True(t, ok)
	require.Equal(t, "golang.org/x/mod", req.Path)
	_, ok = gm.ModuleFor("golang.org/x/modular")
	require.False(t, ok)

	_, err = ReadGoMod(t.TempDir())
	require.ErrorIs(t, err, ErrNoGoMod)
}

func TestClassification(t *testing.T) {
	t.Parallel()

	require.True(t, IsStdlib("net/http"))
	require.True(t, IsStdlib("fmt"))
	require.False(t, IsStdlib("github.com/spf13/cobra"))
	require.True(t, IsInternal("example.com/app/internal/x", "example.com/app"))
	require.False(t, IsInternal("example.com/application", "example.com/app"))

	require.Equal(t, "github.com/pkg/errors", guessModule("github.com/pkg/errors/sub"))
	require.Equal(t, "gopkg.in/yaml.v3", guessModule("gopkg.in/yaml.v3"))
	require.Equal(t, "go.uber.org/zap", guessModule("go.uber.org/zap/zapcore"))
	require.Equal(t, "example.org/a/b/c", guessModule("example.org/a/b/c"))
}

func TestScanImports(t *testing.T) {
	t.Parallel()

	report, err := ScanImports(context.Background(), testModule(t), fixedLicense("MIT"))
	require.NoError(t, err)

	require.Equal(t, []string{"github.com/pkg/errors", "github.com/spf13/cobra", "golang.org/x/mod"}, report.Names())
	require.Equal(t, []string{"internal/x/x.go", "main.go"}, report.Libraries["github.com/spf13/cobra"])
	require.Equal(t, []string{"internal/x/x.go"}, report.Libraries["golang.org/x/mod"])
	require.Equal(t, PackageInfo{Version: "v1.8.0", License: "MIT"}, report.PackageInfo["github.com/spf13/cobra"])
	require.Equal(t, PackageInfo{Version: UnknownVersion, License: UnknownLicense}, report.PackageInfo["github.com/pkg/errors"])
	require.Equal(t, []string{"github.com/pkg/errors"}, report.Undeclared)

	noLicenses, err := ScanImports(context.Background(), testModule(t), nil)
	require.NoError(t, err)
	require.Equal(t, UnknownLicenseName, noLicenses.PackageInfo["golang.org/x/mod"].License)
}

func TestCheckIntegrity(t *testing.T) {
	t.Parallel()

	report, err := CheckIntegrity(context.Background(), testModule(t))
	require.NoError(t, err)
	require.True(t, report.HasIssues())
	require.Equal(t, []string{"github.com/unused/thing"}, report.Unused)
	require.Equal(t, []string{"github.com/pkg/errors"}, report.Undeclared)

	_, err = CheckIntegrity(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrNoGoMod)
}

func parseTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := ParseGraph(strings.NewReader(testGraph))
	require.NoError(t, err)
	return g
}

func TestGraph(t *testing.T) {
	t.Parallel()

	g := parseTestGraph(t)
	require.Equal(t, "example.com/app", g.Main)
	require.Equal(t, "v1.8.0", g.Selected("github.com/spf13/cobra"))
	require.Equal(t, "v1.0.5", g.Selected("github.com/spf13/pflag"))
	require.Equal(t, []string{"github.com/spf13/cobra", "golang.org/x/mod"}, g.Requirements("example.com/app"))

	tree := g.BuildTree([]string{"golang.org/x/mod", "github.com/spf13/cobra", "github.com/pkg/errors"})
	require.Len(t, tree.Roots, 2)
	require.Equal(t, 5, tree.Unique)

	cobra := tree.Roots[0]
	require.Equal(t, "github.com/spf13/cobra", cobra.Path)
	require.Len(t, cobra.Children, 2)
	require.Equal(t, "github.com/inconshreveable/mousetrap", cobra.Children[0].Path)
	pflag := cobra.Children[1]
	require.Equal(t, "v1.0.5", pflag.Version)
	require.Len(t, pflag.Children, 1)
	require.True(t, pflag.Children[0].Repeated)

	mod := tree.Roots[1]
	require.Equal(t, "golang.org/x/tools", mod.Children[0].Path)
	require.False(t, mod.Children[0].Repeated)
}

func TestDependents(t *testing.T) {
	t.Parallel()

	g := parseTestGraph(t)
	deps := g.Dependents("github.com/spf13/pflag")
	require.Equal(t, []Dependent{
		{Package: "github.com/spf13/cobra", Version: "v1.7.0", Requirement: "github.com/spf13/pflag@v1.0.3"},
		{Package: "github.com/spf13/cobra", Version: "v1.8.0", Requirement: "github.com/spf13/pflag@v1.0.5"},
	}, deps)

	deps = g.Dependents("github.com/spf13/cobra")
	require.Len(t, deps, 2)
	require.Equal(t, Dependent{Package: "example.com/app", Version: "(main)", Requirement: "github.com/spf13/cobra@v1.8.0"}, deps[0])

	require.Empty(t, g.Dependents("github.com/nobody/uses"))
}

func TestAuditor(t *testing.T) {
	t.Parallel()

	a := &Auditor{
		Dir:      testModule(t),
		Graph:    func(context.Context, string) (string, error) { return testGraph, nil },
		Licenses: fixedLicense("Apache-2.0"),
	}

	tree, roots, err := a.Tree(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 3, roots)
	require.Len(t, tree.Roots, 2)

	tree, roots, err = a.Tree(context.Background(), "github.com/spf13/pflag")
	require.NoError(t, err)
	require.Equal(t, 1, roots)
	require.Equal(t, "github.com/spf13/pflag", tree.Roots[0].Path)

	_, err = a.Dependents(context.Background(), "")
	require.ErrorIs(t, err, ErrPackageRequired)

	report, err := a.Imports(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Apache-2.0", report.PackageInfo["golang.org/x/mod"].License)
}

func TestDetectLicense(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Permission is hereby granted, free of charge, to any person":                      "MIT",
		"Apache License\nVersion 2.0, January 2004":                                        "Apache-2.0",
		"Redistribution and use in source and binary forms... Neither the name of Google":  "BSD-3-Clause",
		"Redistribution and use in source and binary forms, with or without modification":  "BSD-2-Clause",
		"Mozilla Public License Version 2.0":                                               "MPL-2.0",
		"GNU GENERAL PUBLIC LICENSE\nVersion 3, 29 June 2007":                              "GPL-3.0",
		"Permission to use, copy, modify, and/or distribute this software for any purpose": "ISC",
		"All rights reserved.": UnknownLicenseName,
	}
	for text, want := range tests {
		require.Equal(t, want, DetectLicense(text), text)
	}
}

func TestModCacheResolver(t *testing.T) {
	t.Parallel()

	cache := t.TempDir()
	writeFile(t, cache, "github.com/!burnt!sushi/toml@v1.3.2/LICENSE", "The MIT License\n\nPermission is hereby granted, free of charge")

	r := &ModCacheResolver{Dir: cache}
	require.Equal(t, "MIT", r.License(context.Background(), "github.com/BurntSushi/toml", "v1.3.2"))
	require.Equal(t, UnknownLicenseName, r.License(context.Background(), "github.com/BurntSushi/toml", "v9.9.9"))
}

func TestGitHubResolver(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/repos/spf13/cobra/license" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"license": map[string]any{"spdx_id": "Apache-2.0"}})
	}))
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	r := NewGitHubResolver(client)
	ctx := context.Background()
	require.Equal(t, "Apache-2.0", r.License(ctx, "github.com/spf13/cobra", "v1.8.0"))
	require.Equal(t, "Apache-2.0", r.License(ctx, "github.com/spf13/cobra/doc", "v1.8.0"))
	require.Equal(t, int32(1), calls.Load())

	require.Equal(t, UnknownLicenseName, r.License(ctx, "golang.org/x/mod", "v0.20.0"))
	require.Equal(t, UnknownLicenseName, r.License(ctx, "github.com/missing/repo", "v1.0.0"))

	chain := ChainResolver{fixedLicense(UnknownLicenseName), r}
	require.Equal(t, "Apache-2.0", chain.License(ctx, "github.com/spf13/cobra", "v1.8.0"))
}

func TestRender(t *testing.T) {
	tui.DisableColors()

	report, err := ScanImports(context.Background(), testModule(t), fixedLicense("MIT"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RenderImports(&out, report, false))
	require.Contains(t, out.String(), "SBOM: Library to File Mapping")
	require.Contains(t, out.String(), "github.com/spf13/cobra")
	require.Contains(t, out.String(), "Total external libraries: 3")

	out.Reset()
	require.NoError(t, RenderImports(&out, report, true))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Contains(t, decoded, "libraries")
	require.Contains(t, decoded, "package_info")

	out.Reset()
	require.NoError(t, RenderImports(&out, &ImportReport{}, false))
	require.Contains(t, out.String(), "No external libraries found.")

	out.Reset()
	tree := parseTestGraph(t).BuildTree([]string{"github.com/spf13/cobra"})
	require.NoError(t, RenderTree(&out, tree, 1))
	require.Contains(t, out.String(), "Project Roots")
	require.Contains(t, out.String(), "github.com/spf13/cobra (v1.8.0) (repeated)")
	require.Contains(t, out.String(), "Root dependencies: 1")
	require.Contains(t, out.String(), "Total unique dependencies: 3")

	out.Reset()
	require.NoError(t, RenderIntegrity(&out, &IntegrityReport{Unused: []string{"github.com/unused/thing"}}))
	require.Contains(t, out.String(), "Potential Bloat (Declared but unused)")
	require.Contains(t, out.String(), "• github.com/unused/thing")
	require.Contains(t, out.String(), "All imported packages are declared.")

	out.Reset()
	require.NoError(t, RenderDependents(&out, "github.com/spf13/pflag", parseTestGraph(t).Dependents("github.com/spf13/pflag")))
	require.Contains(t, out.String(), "Dependents of github.com/spf13/pflag")
	require.Contains(t, out.String(), "Found 2 dependents.")

	out.Reset()
	require.NoError(t, RenderDependents(&out, "x", nil))
	require.Contains(t, out.String(), "No modules in the graph depend on 'x'.")
}

func TestVersionColor(t *testing.T) {
	tui.DisableColors()
	require.Equal(t, "v1.2.3", VersionColor("v1.2.3"))
	require.Equal(t, UnknownVersion, VersionColor(UnknownVersion))
	require.Equal(t, "v0.0.0-20240101000000-abcdef123456", VersionColor("v0.0.0-20240101000000-abcdef123456"))
}
