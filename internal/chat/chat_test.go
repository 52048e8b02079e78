package chat_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhishek9sharma/sarathi/internal/chat"
	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/llm"
	"github.com/abhishek9sharma/sarathi/internal/store"
	"github.com/abhishek9sharma/sarathi/internal/tools"
	"github.com/abhishek9sharma/sarathi/internal/tui"
	"github.com/abhishek9sharma/sarathi/testhelpers"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func projectRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":                   "package main\n",
		"README.md":                 "# demo\n",
		"internal/app/app.go":       "package app\n",
		"internal/app/main_test.go": "package app\n",
		"node_modules/x/index.js":   "x",
		".git/config":               "[core]",
		"build/out.txt":             "built",
		"bin/tool.exe":              "MZ",
		"lib.so":                    "ELF",
	})
	return root
}

type harness struct {
	session *chat.Session
	server  *testhelpers.LLMServer
	out     *strings.Builder
	store   *store.Store
}

func newHarness(t *testing.T, root string, ask chat.AskFunc, lines []string, replies ...testhelpers.FakeReply) *harness {
	t.Helper()
	server := testhelpers.NewLLMServer(t, replies...)
	cfg, err := config.New(config.Options{HomeDir: t.TempDir(), WorkDir: root})
	require.NoError(t, err)
	require.NoError(t, cfg.Set("providers.openai.base_url", server.BaseURL(), false))

	st, err := store.Open(filepath.Join(t.TempDir(), store.FileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	out := &strings.Builder{}
	usage := llm.NewUsageTracker(nil)
	client := llm.NewClient(cfg, config.AgentChat, llm.WithRetryDelay(time.Millisecond), llm.WithUsage(usage))

	next := 0
	readLine := func(string, tui.Completer) (string, error) {
		if next >= len(lines) {
			return "", io.EOF
		}
		next++
		return lines[next-1], nil
	}

	s := chat.NewSession(chat.Options{
		Config:   cfg,
		Client:   client,
		Registry: tools.NewDefaultRegistry(root),
		Root:     root,
		Splog:    tui.NewSplogWithWriter(out),
		Store:    st,
		Usage:    usage,
		Ask:      ask,
		ReadLine: readLine,
	})
	return &harness{session: s, server: server, out: out, store: st}
}

func TestBuildIndex(t *testing.T) {
	t.Parallel()

	idx, err := chat.BuildIndex(projectRoot(t))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"main.go", "README.md", "internal/app/app.go", "internal/app/main_test.go"}, idx.Files())
	require.Equal(t, 4, idx.Len())
}

func TestCompletion(t *testing.T) {
	t.Parallel()

	idx, err := chat.BuildIndex(projectRoot(t))
	require.NoError(t, err)

	require.Equal(t, []string{"@main.go", "@internal/app/main_test.go"}, idx.Complete("look at @mai"))
	require.Equal(t, []string{"@internal/app/app.go", "@internal/app/main_test.go"}, idx.Complete("@app/"))
	require.Equal(t, []string{"@README.md"}, idx.Complete("@readme"))
	require.Equal(t, []string{"/history", "/help"}, idx.Complete("/h"))
	require.Nil(t, idx.Complete("/model gpt"))
	require.Nil(t, idx.Complete("plain words"))
	require.Equal(t, "see @main.go ", tui.ApplyCompletion("see @mai", "@main.go"))
}

func TestExpandMentions(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	writeFiles(t, root, map[string]string{".env": "SECRET=1"})
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	got := chat.ExpandMentions("explain @main.go and @missing.go and @.env", root, warn)
	require.Contains(t, got, "explain \n--- Context from main.go ---\npackage main\n\n---------------------------------\n and @missing.go and @.env")
	require.Equal(t, []string{
		"Warning: File not found: missing.go",
		"Warning: Access to sensitive file .env is prohibited.",
	}, warnings)
	require.NotContains(t, got, "SECRET")
}

func TestPermissions(t *testing.T) {
	t.Parallel()

	answers := []chat.Decision{chat.Deny, chat.Allow, chat.AlwaysAllowTool, chat.AllowSession}
	var asked []string
	perms := chat.NewPermissions(func(n string) bool { return n != tools.ReadFile }, func(tool, _ string) (chat.Decision, error) {
		asked = append(asked, tool)
		d := answers[0]
		answers = answers[1:]
		return d, nil
	})

	require.True(t, perms.Confirm(tools.ReadFile, "{}"))
	require.False(t, perms.Confirm(tools.WriteFile, "{}"))
	require.True(t, perms.Confirm(tools.WriteFile, "{}"))
	require.True(t, perms.Confirm(tools.WriteFile, "{}"))
	require.True(t, perms.Confirm(tools.WriteFile, "{}"))
	require.True(t, perms.Confirm(tools.RunCommand, "{}"))
	require.True(t, perms.Confirm(tools.ReplaceInFile, "{}"))
	require.Equal(t, []string{tools.WriteFile, tools.WriteFile, tools.WriteFile, tools.RunCommand}, asked)

	perms.Reset()
	failing := chat.NewPermissions(func(string) bool { return true }, func(string, string) (chat.Decision, error) {
		return chat.Allow, errors.New("no tty")
	})
	require.False(t, failing.Confirm(tools.WriteFile, "{}"))
}

func TestAskWithToolAndPersistence(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	ask := func(string, string) (chat.Decision, error) { return chat.Deny, nil }
	h := newHarness(t, root, ask, nil,
		testhelpers.FakeReply{ToolCalls: []testhelpers.FakeToolCall{
			{ID: "r1", Name: tools.ReadFile, Arguments: `{"filepath":"main.go"}`},
			{ID: "w1", Name: tools.WriteFile, Arguments: `{"filepath":"main.go","content":"oops"}`},
		}},
		testhelpers.FakeReply{Content: "main.go declares package main."},
	)
	require.Contains(t, h.out.String(), "Project indexed: 4 files available for @-completion.")

	var events []llm.Event
	answer, err := h.session.Ask(context.Background(), "what is in @README.md?", func(ev llm.Event) { events = append(events, ev) })
	require.NoError(t, err)
	require.Equal(t, "main.go declares package main.", answer)

	data, err := os.ReadFile(filepath.Join(root, "main.go"))
	require.NoError(t, err)
	require.Equal(t, "package main\n", string(data))

	first := h.server.Requests()[0]
	messages := first["messages"].([]any)
	system := messages[0].(map[string]any)["content"].(string)
	require.Contains(t, system, root)
	require.Contains(t, messages[1].(map[string]any)["content"], "--- Context from README.md ---\n# demo\n")
	require.Len(t, first["tools"], 13)

	var toolResults []string
	for _, m := range h.session.Engine().Messages() {
		if m.Role == llm.RoleTool {
			toolResults = append(toolResults, m.Content)
		}
	}
	require.Equal(t, []string{"package main\n", llm.DeniedToolResult}, toolResults)

	id := h.session.SessionID()
	require.NotZero(t, id)
	stored, err := h.store.Messages(id)
	require.NoError(t, err)
	require.Len(t, stored, len(h.session.Engine().Messages())-1)
	require.Equal(t, llm.RoleUser, stored[0].Role)

	sessions, err := h.store.Sessions(5)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.True(t, strings.HasPrefix(sessions[0].Title, "what is in"))
}

func TestResume(t *testing.T) {
	t.Parallel()

	h := newHarness(t, t.TempDir(), nil, nil, testhelpers.FakeReply{Content: "first"}, testhelpers.FakeReply{Content: "second"})
	_, err := h.session.Ask(context.Background(), "hello", nil)
	require.NoError(t, err)
	id := h.session.SessionID()

	h.session.HandleCommand("/clear")
	require.Zero(t, h.session.SessionID())
	require.NoError(t, h.session.Resume(id))
	require.Len(t, h.session.Engine().Messages(), 3)

	_, err = h.session.Ask(context.Background(), "again", nil)
	require.NoError(t, err)
	require.Equal(t, id, h.session.SessionID())

	stored, err := h.store.Messages(id)
	require.NoError(t, err)
	require.Len(t, stored, 4)
	require.Equal(t, "second", stored[3].Content)

	second := h.server.Requests()[1]["messages"].([]any)
	require.Len(t, second, 4)

	require.ErrorIs(t, h.session.Resume(9999), store.ErrSessionNotFound)
}

func TestREPL(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	lines := []string{
		"",
		"/help",
		"/model",
		"/model llama3",
		"hi there",
		"/history",
		"/tools",
		"/usage",
		"/bogus",
		"/reindex",
		"/clear",
		"/history",
		"/exit",
		"never read",
	}
	h := newHarness(t, root, nil, lines, testhelpers.FakeReply{Content: "Hello! How can I help?"})

	require.NoError(t, h.session.Start(context.Background()))
	out := h.out.String()

	require.Contains(t, out, "S A R A T H I")
	require.Contains(t, out, "Welcome! Type '/exit' to quit, '/clear' to reset, '/history' to view logs.")
	require.Contains(t, out, "/reindex  rescan project files")
	require.Contains(t, out, "Current model: gpt-4o-mini")
	require.Contains(t, out, "Usage: /model <model_name>")
	require.Contains(t, out, "Model for this chat session switched to: llama3")
	require.Contains(t, out, "Sarathi is thinking...")
	require.Contains(t, out, "Hello! How can I help?")
	require.Contains(t, out, "[user]: hi there...")
	require.Contains(t, out, "[assistant]: Hello! How can I help?...")
	require.Contains(t, out, "write_file (asks permission)")
	require.Contains(t, out, "📊 LLM USAGE STATISTICS")
	require.Contains(t, out, "Unknown command: /bogus")
	require.Contains(t, out, "Project re-indexed. Found 4 files.")
	require.Contains(t, out, "Context cleared.")
	require.Contains(t, out, "Goodbye!")
	require.Equal(t, 1, h.server.CallCount())
	require.Equal(t, "llama3", h.server.Requests()[0]["model"])
}

func TestREPLEndOfInput(t *testing.T) {
	t.Parallel()

	h := newHarness(t, t.TempDir(), nil, nil, testhelpers.FakeReply{Content: "x"})
	require.NoError(t, h.session.Start(context.Background()))
	require.Contains(t, h.out.String(), "Goodbye!")
	require.Zero(t, h.server.CallCount())
}
