package docgen_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abhishek9sharma/sarathi/internal/docgen"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

const source = `package calc

import "fmt"

func Add(a, b int) int {
	return a + b
}

// Sub subtracts b from a.
func Sub(a, b int) int {
	return a - b
}

type Acc struct{ n int }

//go:noinline
func (a *Acc) Push(v int) {
	a.n += v
}

func Broken() { fmt.Println("x") }
`

type scriptedCaller struct {
	mu      sync.Mutex
	answers map[string]string
	seen    []string
}

func (c *scriptedCaller) CallModel(_ context.Context, system, user string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, user)
	for marker, answer := range c.answers {
		if strings.Contains(user, marker) {
			return answer, nil
		}
	}
	return "", errors.New("model unavailable")
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calc.go")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))
	return path
}

func TestProcessFile(t *testing.T) {
	t.Parallel()

	path := writeSource(t)
	caller := &scriptedCaller{answers: map[string]string{
		"func Add": "```\nThis function adds two integers and returns the sum.\n```",
		"func (a":  "// \"Push\" adds v to the accumulator.",
		"func Sub": "Sub returns a minus b.",
	}}
	var out strings.Builder
	gen := docgen.New(caller, "document it", tui.NewSplogWithWriter(&out), docgen.Options{MaxConcurrency: 2})

	n, err := gen.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Contains(t, out.String(), "Failed to document Broken")
	require.Len(t, caller.seen, 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)
	require.Contains(t, got, "// Add adds two integers and returns the sum.\nfunc Add(a, b int) int {")
	require.Contains(t, got, "// Sub subtracts b from a.\nfunc Sub")
	require.Contains(t, got, "// Push adds v to the accumulator.\n//go:noinline\nfunc (a *Acc) Push")
	require.Contains(t, got, "\nfunc Broken()")
	require.NotContains(t, got, "// Broken")
}

func TestProcessFileOverwrite(t *testing.T) {
	t.Parallel()

	path := writeSource(t)
	caller := &scriptedCaller{answers: map[string]string{"func": "Computes something."}}
	gen := docgen.New(caller, "p", tui.NewSplogWithWriter(&strings.Builder{}), docgen.Options{Overwrite: true})

	n, err := gen.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)
	require.NotContains(t, got, "subtracts")
	require.Contains(t, got, "// Sub computes something.\nfunc Sub")
	require.Equal(t, 1, strings.Count(got, "//go:noinline"))
}

func TestProcessDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"a.go":                "package a\n\nfunc A() {}\n",
		"a_test.go":           "package a\n\nfunc TestA() {}\n",
		"vendor/v/v.go":       "package v\n\nfunc V() {}\n",
		"sub/b.go":            "package sub\n\nfunc B() {}\n",
		".hidden/h.go":        "package h\n\nfunc H() {}\n",
		"testdata/fixture.go": "package f\n\nfunc F() {}\n",
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}

	collected, err := docgen.CollectFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.go"), filepath.Join(dir, "sub", "b.go")}, collected)

	var out strings.Builder
	caller := &scriptedCaller{answers: map[string]string{"func": "does nothing."}}
	n, err := docgen.New(caller, "p", tui.NewSplogWithWriter(&out), docgen.Options{}).ProcessDir(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Contains(t, out.String(), "Generating docstrings for file "+filepath.Join(dir, "a.go"))

	data, err := os.ReadFile(filepath.Join(dir, "sub", "b.go"))
	require.NoError(t, err)
	require.Equal(t, "package sub\n\n// B does nothing.\nfunc B() {}\n", string(data))
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{"already named", "Parse reads the input.", []string{"Parse reads the input."}},
		{"generic subject", "The function reads the input.", []string{"Parse reads the input."}},
		{"verb first", "Reads the input.", []string{"Parse reads the input."}},
		{"acronym kept", "JSON is decoded from r.", []string{"Parse JSON is decoded from r."}},
		{"comment markers", "// Parse reads.\n//\n// It never fails.", []string{"Parse reads.", "", "It never fails."}},
		{"quotes removed", `"Parse" reads 'x'.`, []string{"Parse reads x."}},
		{"empty", "```\n```", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, docgen.Sanitize(tt.answer, "Parse"))
		})
	}

	long := docgen.Sanitize(strings.Repeat("word ", 40), "Parse")
	require.Greater(t, len(long), 1)
	for _, l := range long {
		require.LessOrEqual(t, len(l), 77)
	}
}
