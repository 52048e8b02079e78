package tools_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abhishek9sharma/sarathi/internal/tools"
	"github.com/abhishek9sharma/sarathi/testhelpers"
)

const sampleGo = `package sample

import (
	"fmt"
	"strings"
)

// Greeter greets people
type Greeter struct {
	Name string
}

type Shouter interface {
	Shout() string
}

// Greet returns a greeting
func (g *Greeter) Greet(other string) string {
	return fmt.Sprintf("hi %s from %s", other, g.Name)
}

func Upper(s string, times int) (string, error) {
	return strings.Repeat(strings.ToUpper(s), times), nil
}
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
}

func call(t *testing.T, r *tools.Registry, name string, args any) string {
	t.Helper()
	data, err := json.Marshal(args)
	require.NoError(t, err)
	return r.Call(context.Background(), name, string(data))
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	type echoArgs struct {
		Text  string `json:"text" jsonschema_description:"Text to echo"`
		Times int    `json:"times,omitempty"`
	}
	r := tools.NewRegistry()
	tools.Add(r, "echo", "Echo text", false, func(_ context.Context, a echoArgs) (string, error) {
		if a.Text == "fail" {
			return "", os.ErrInvalid
		}
		return strings.Repeat(a.Text, max(a.Times, 1)), nil
	})
	tools.Add(r, "danger", "Dangerous", true, func(context.Context, struct{}) (string, error) { return "boom", nil })

	require.Equal(t, []string{"echo", "danger"}, r.Names())
	require.True(t, r.IsSensitive("danger"))
	require.False(t, r.IsSensitive("echo"))
	require.False(t, r.IsSensitive("missing"))

	require.Equal(t, "abab", r.Call(context.Background(), "echo", `{"text":"ab","times":2}`))
	require.Equal(t, "boom", r.Call(context.Background(), "danger", ""))
	require.Equal(t, "Error: Tool nope not found.", r.Call(context.Background(), "nope", "{}"))
	require.Contains(t, r.Call(context.Background(), "echo", `{"text":"fail"}`), "Error executing tool echo:")
	require.Contains(t, r.Call(context.Background(), "echo", `not json`), "Error executing tool echo:")

	defs := r.Definitions("echo", "unknown")
	require.Len(t, defs, 1)
	require.Equal(t, "function", defs[0].Type)
	require.Equal(t, "echo", defs[0].Function.Name)

	schema, err := json.Marshal(defs[0].Function.Parameters)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))
	require.Equal(t, "object", decoded["type"])
	require.Equal(t, []any{"text"}, decoded["required"])
	props := decoded["properties"].(map[string]any)
	require.Equal(t, "Text to echo", props["text"].(map[string]any)["description"])
	require.Equal(t, "integer", props["times"].(map[string]any)["type"])
	require.NotContains(t, decoded, "$schema")

	require.Len(t, r.Definitions(), 2)
}

func TestDefaultRegistryNames(t *testing.T) {
	t.Parallel()

	r := tools.NewDefaultRegistry(t.TempDir())
	require.Len(t, r.Names(), 13)
	for _, name := range []string{tools.WriteFile, tools.ReplaceInFile, tools.RunCommand} {
		require.True(t, r.IsSensitive(name), name)
	}
	require.False(t, r.IsSensitive(tools.ReadFile))
}

func TestFileTools(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := tools.NewDefaultRegistry(dir)

	require.Equal(t, "Successfully wrote to pkg/a.txt", call(t, r, tools.WriteFile, map[string]string{"filepath": "pkg/a.txt", "content": "one two one"}))
	require.Equal(t, "one two one", call(t, r, tools.ReadFile, map[string]string{"filepath": "pkg/a.txt"}))
	require.Contains(t, call(t, r, tools.ReadFile, map[string]string{"filepath": "missing.txt"}), "Error reading file")

	require.Equal(t, "Replaced 1 occurrence(s) in pkg/a.txt",
		call(t, r, tools.ReplaceInFile, map[string]any{"filepath": "pkg/a.txt", "old": "one", "new": "1", "count": 1}))
	require.Equal(t, "1 two one", call(t, r, tools.ReadFile, map[string]string{"filepath": "pkg/a.txt"}))
	require.Equal(t, "Replaced 1 occurrence(s) in pkg/a.txt",
		call(t, r, tools.ReplaceInFile, map[string]any{"filepath": "pkg/a.txt", "old": "one", "new": "3"}))
	require.Contains(t, call(t, r, tools.ReplaceInFile, map[string]any{"filepath": "pkg/a.txt", "old": "zzz", "new": "y"}), "text not found")
}

func TestListingTools(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.go":              "package main",
		"README.md":            "# x",
		".env.test_secret":     "SECRET=1",
		"secret.env.go":        "package main",
		"internal/a/a.go":      "package a",
		"internal/a/a_test.go": "package a",
		"vendor/x/x.go":        "package x",
		"node_modules/y.go":    "package y",
	})
	r := tools.NewDefaultRegistry(dir)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(call(t, r, tools.ListFiles, map[string]string{})), &names))
	require.ElementsMatch(t, []string{"README.md", "internal", "main.go", "node_modules", "vendor"}, names)
	require.Equal(t, "Error listing files: Directory nope does not exist.", call(t, r, tools.ListFiles, map[string]string{"directory": "nope"}))

	var goFiles []string
	require.NoError(t, json.Unmarshal([]byte(call(t, r, tools.FindFiles, map[string]string{})), &goFiles))
	require.Equal(t, []string{"internal/a/a.go", "internal/a/a_test.go", "main.go"}, goFiles)

	var mdFiles []string
	require.NoError(t, json.Unmarshal([]byte(call(t, r, tools.FindFiles, map[string]string{"extension": "md"})), &mdFiles))
	require.Equal(t, []string{"README.md"}, mdFiles)
	require.Contains(t, call(t, r, tools.FindFiles, map[string]string{"directory": "nope"}), "Error finding files")

	var structure struct {
		Root        string   `json:"root"`
		Directories []string `json:"directories"`
		GoFiles     []string `json:"go_files"`
	}
	require.NoError(t, json.Unmarshal([]byte(call(t, r, tools.GetProjectStructure, map[string]string{})), &structure))
	require.Equal(t, ".", structure.Root)
	require.Equal(t, []string{"internal", "internal/a"}, structure.Directories)
	require.Equal(t, []string{"internal/a/a.go", "internal/a/a_test.go", "main.go"}, structure.GoFiles)
	require.Contains(t, call(t, r, tools.GetProjectStructure, map[string]string{"root_dir": "nope"}), "Error getting project structure")
}

func TestCheckTestExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"pkg/a.go": "package pkg", "pkg/a_test.go": "package pkg", "pkg/b.go": "package pkg"})
	r := tools.NewDefaultRegistry(dir)

	require.JSONEq(t, `{"exists":true,"path":"pkg/a_test.go"}`, call(t, r, tools.CheckTestExists, map[string]string{"source_file": "pkg/a.go"}))
	require.JSONEq(t, `{"exists":false,"suggested_path":"pkg/b_test.go"}`, call(t, r, tools.CheckTestExists, map[string]string{"source_file": "pkg/b.go"}))
	require.Equal(t, "x_test.go", tools.TestFileFor("x_test.go"))
}

func TestGoASTTools(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"sample.go": sampleGo, "broken.go": "package"})
	r := tools.NewDefaultRegistry(dir)

	var info struct {
		Package string   `json:"package"`
		Imports []string `json:"imports"`
		Types   []struct {
			Name    string   `json:"name"`
			Kind    string   `json:"kind"`
			Methods []string `json:"methods"`
		} `json:"types"`
		Functions []struct {
			Name     string   `json:"name"`
			Receiver string   `json:"receiver"`
			Args     []string `json:"args"`
		} `json:"functions"`
	}
	require.NoError(t, json.Unmarshal([]byte(call(t, r, tools.ParseGoAST, map[string]string{"filepath": "sample.go"})), &info))
	require.Equal(t, "sample", info.Package)
	require.Equal(t, []string{"fmt", "strings"}, info.Imports)
	require.Len(t, info.Types, 2)
	require.Equal(t, "struct", info.Types[0].Kind)
	require.Equal(t, []string{"Greet"}, info.Types[0].Methods)
	require.Equal(t, "interface", info.Types[1].Kind)
	require.Len(t, info.Functions, 2)
	require.Equal(t, "Greeter", info.Functions[0].Receiver)
	require.Equal(t, []string{"s string", "times int"}, info.Functions[1].Args)

	require.Contains(t, call(t, r, tools.ParseGoAST, map[string]string{"filepath": "broken.go"}), "Error parsing AST")

	code := call(t, r, tools.GetFunctionCode, map[string]string{"filepath": "sample.go", "function_name": "Greeter.Greet"})
	require.True(t, strings.HasPrefix(code, "// Greet returns a greeting\nfunc (g *Greeter) Greet"), code)
	code = call(t, r, tools.GetFunctionCode, map[string]string{"filepath": "sample.go", "function_name": "Upper"})
	require.Contains(t, code, "func Upper(s string, times int) (string, error)")
	require.Equal(t, "Function 'Missing' not found in sample.go",
		call(t, r, tools.GetFunctionCode, map[string]string{"filepath": "sample.go", "function_name": "Missing"}))
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"hello.txt": "hi"})
	r := tools.NewDefaultRegistry(dir)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(call(t, r, tools.RunCommand, map[string]string{"command": "ls"})), &res))
	require.Equal(t, "hello.txt\n", res["stdout"])
	require.EqualValues(t, 0, res["returncode"])
	require.NotContains(t, res, "error")

	res = nil
	require.NoError(t, json.Unmarshal([]byte(call(t, r, tools.RunCommand, map[string]string{"command": "exit 3"})), &res))
	require.EqualValues(t, 3, res["returncode"])
	require.Equal(t, "Command failed with exit code 3", res["error"])
}

func TestGitTools(t *testing.T) {
	t.Setenv("GIT_CONFIG_GLOBAL", "/dev/null")
	repo := testhelpers.NewTestRepo(t)
	require.NoError(t, repo.CommitFile("a.txt", "one\n", "initial"))
	require.NoError(t, repo.StageFile("a.txt", "two\n"))
	require.NoError(t, repo.WriteFile("new.txt", "x"))

	r := tools.NewDefaultRegistry(repo.Dir)
	require.Contains(t, call(t, r, tools.GetGitDiff, map[string]string{}), "+two")
	status := call(t, r, tools.GetGitStatus, map[string]string{})
	require.Contains(t, status, "M  a.txt")
	require.Contains(t, status, "?? new.txt")
}

func TestSecurity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{".env": "SECRET=1"})
	r := tools.NewDefaultRegistry(dir)

	prohibited := []string{
		call(t, r, tools.ReadFile, map[string]string{"filepath": ".env"}),
		call(t, r, tools.ReadFile, map[string]string{"filepath": "config/.env"}),
		call(t, r, tools.WriteFile, map[string]string{"filepath": ".env", "content": "SECRET=123"}),
		call(t, r, tools.ReplaceInFile, map[string]string{"filepath": ".env.local", "old": "a", "new": "b"}),
		call(t, r, tools.RunCommand, map[string]string{"command": "env"}),
		call(t, r, tools.RunCommand, map[string]string{"command": "cat .env"}),
		call(t, r, tools.RunCommand, map[string]string{"command": "printenv"}),
		call(t, r, tools.RunCommand, map[string]string{"command": "ls && /usr/bin/env"}),
		call(t, r, tools.RunCommand, map[string]string{"command": "echo hi;set"}),
		call(t, r, tools.RunCommand, map[string]string{"command": "cat ~/.ssh/id_rsa"}),
	}
	for _, res := range prohibited {
		require.Contains(t, strings.ToLower(res), "prohibited")
	}

	content, err := os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	require.Equal(t, "SECRET=1", string(content))

	require.NotContains(t, call(t, r, tools.RunCommand, map[string]string{"command": "ls"}), "prohibited")
	require.NoError(t, tools.CheckCommand("go test -run set ./..."))
	require.NoError(t, tools.CheckCommand("grep environment README.md"))
}

func TestIsSensitivePath(t *testing.T) {
	t.Parallel()

	for _, p := range []string{".env", "a/b/.env.local", "secret.env.go", "/home/u/.netrc", "id_ed25519", "cert.PEM"} {
		require.True(t, tools.IsSensitivePath(p), p)
	}
	for _, p := range []string{"env.go", "environment.md", "main.go", "envoy.yaml"} {
		require.False(t, tools.IsSensitivePath(p), p)
	}
}
