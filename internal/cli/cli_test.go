package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abhishek9sharma/sarathi/internal/cli"
	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
	"github.com/abhishek9sharma/sarathi/testhelpers"
)

type scene struct {
	home   string
	work   string
	config string
	in     string
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newScene(t *testing.T, work string, server *testhelpers.LLMServer) *scene {
	t.Helper()
	s := &scene{home: t.TempDir(), work: work}
	cfg := "core:\n  history: false\n"
	if server != nil {
		cfg += fmt.Sprintf("providers:\n  openai:\n    base_url: %s\n", server.BaseURL())
	}
	s.config = filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(s.config, []byte(cfg), 0o600))
	return s
}

func (s *scene) run(args ...string) error {
	cmd := cli.NewRootCmdWithOptions("1.2.3", "abc", "today", cli.Options{
		HomeDir: s.home,
		WorkDir: s.work,
		In:      strings.NewReader(s.in),
		Out:     &s.out,
		Err:     &s.errOut,
	})
	cmd.SetArgs(append([]string{"--no-color", "--config", s.config}, args...))
	return cmd.Execute()
}

func TestVersion(t *testing.T) {
	t.Parallel()
	s := newScene(t, t.TempDir(), nil)
	require.NoError(t, s.run("--version"))
	require.Contains(t, s.out.String(), "1.2.3 (commit abc, built today)")
}

func TestCommandTree(t *testing.T) {
	t.Parallel()
	root := cli.NewRootCmd("dev", "none", "unknown")
	for _, path := range [][]string{
		{"git", "autocommit"},
		{"ask"},
		{"chat"},
		{"docstrgen"},
		{"code", "gentest"},
		{"code", "edit"},
		{"config", "init"},
		{"config", "show"},
		{"config", "info"},
		{"config", "set"},
		{"model"},
		{"sbom", "imports"},
		{"sbom", "depgraph"},
		{"sbom", "check"},
		{"sbom", "revdeps"},
		{"mcp"},
		{"usage"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		require.Empty(t, rest)
		require.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestAskFromFlagAndStdin(t *testing.T) {
	t.Parallel()
	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{Content: "Use a map."})
	s := newScene(t, t.TempDir(), server)

	require.NoError(t, s.run("ask", "-q", "how do I dedupe?"))
	require.Contains(t, s.out.String(), "Use a map.")

	s.in = "what does this diff do?"
	require.NoError(t, s.run("ask"))
	last := server.Requests()[1]["messages"].([]any)
	require.Equal(t, "what does this diff do?", last[len(last)-1].(map[string]any)["content"])
}

func TestAutocommitCommand(t *testing.T) {
	t.Parallel()
	repo := testhelpers.NewTestRepo(t)
	require.NoError(t, repo.StageFile("main.go", "package main\n"))
	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{Content: "feat: add main"})
	s := newScene(t, repo.Dir, server)

	require.NoError(t, s.run("git", "autocommit", "--yes"))
	subject, err := repo.RunGitCommandAndGetOutput("log", "-1", "--format=%s")
	require.NoError(t, err)
	require.Equal(t, "feat: add main", subject)

	err = s.run("git", "autocommit", "--yes")
	require.ErrorIs(t, err, sarathierrors.ErrNoStagedChanges)
}

func TestConfigAndModelCommands(t *testing.T) {
	t.Parallel()
	s := newScene(t, t.TempDir(), nil)

	require.NoError(t, s.run("config", "info"))
	require.Contains(t, s.out.String(), s.config)

	require.NoError(t, s.run("model", "llama3", "--agent", "chat"))
	require.Contains(t, s.out.String(), "Model set to 'llama3' for agents: chat")

	s.out.Reset()
	require.NoError(t, s.run("model"))
	require.Contains(t, s.out.String(), "  - chat: llama3")

	require.NoError(t, s.run("config", "set", "core.timeout", "90"))
	data, err := os.ReadFile(s.config)
	require.NoError(t, err)
	require.Contains(t, string(data), "timeout: 90")

	require.Error(t, s.run("config", "set", "core.timeout"))
}

func TestDocstrgenFlags(t *testing.T) {
	t.Parallel()
	s := newScene(t, t.TempDir(), nil)
	require.Error(t, s.run("docstrgen", "-f", "a.go", "-d", "."))
}

func TestSBOMCheckCommand(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/app\n\ngo 1.22\n\nrequire github.com/unused/thing v1.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nimport \"github.com/missing/dep\"\n\nvar _ = dep.X\n"), 0o644))
	s := newScene(t, t.TempDir(), nil)

	err := s.run("sbom", "check", dir, "--fail")
	require.ErrorIs(t, err, sarathierrors.ErrIntegrityIssues)
	require.Contains(t, s.out.String(), "github.com/unused/thing")
	require.Contains(t, s.out.String(), "github.com/missing/dep")
}

func TestUsageFlag(t *testing.T) {
	t.Parallel()
	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{Content: "ok", PromptTokens: 7, CompletionTokens: 3})
	s := newScene(t, t.TempDir(), server)

	require.NoError(t, s.run("--usage", "ask", "-q", "hi"))
	require.Contains(t, s.out.String(), "Total LLM Calls    : 1")
}
