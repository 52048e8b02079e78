// Package chat implements the interactive chat session: a REPL around the
// tool-calling engine with @file mentions, slash commands, per-tool
// permission prompts and saved transcripts.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/llm"
	"github.com/abhishek9sharma/sarathi/internal/store"
	"github.com/abhishek9sharma/sarathi/internal/tools"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

const (
	welcomeMessage  = "Welcome! Type '/exit' to quit, '/clear' to reset, '/history' to view logs."
	promptText      = "sarathi> "
	thinkingMessage = "Sarathi is thinking..."
	defaultPrompt   = "You are a helpful coding assistant."
)

// LineReader reads one line of input with completion
type LineReader func(prompt string, complete tui.Completer) (string, error)

// Options configures a Session
type Options struct {
	Config   *config.Manager
	Client   *llm.Client
	Registry *tools.Registry
	// Root is the project directory, used for the index, mentions and {current_dir}.
	Root  string
	Splog *tui.Splog
	// Store persists transcripts; nil disables history.
	Store *store.Store
	Usage *llm.UsageTracker
	// Ask answers permission requests; nil uses an interactive prompt.
	Ask AskFunc
	// ReadLine defaults to tui.ReadLine.
	ReadLine LineReader
	// Markdown renders finished answers instead of streaming raw text.
	Markdown *tui.MarkdownRenderer
}

// Session is one chat conversation
type Session struct {
	cfg      *config.Manager
	client   *llm.Client
	registry *tools.Registry
	engine   *llm.Engine
	perms    *Permissions
	root     string
	splog    *tui.Splog
	out      io.Writer
	store    *store.Store
	usage    *llm.UsageTracker
	readLine LineReader
	markdown *tui.MarkdownRenderer
	index    *ProjectIndex

	running   bool
	sessionID int64
	persisted int
}

// NewSession creates a session and indexes the project
func NewSession(opts Options) *Session {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.ReadLine == nil {
		opts.ReadLine = tui.ReadLine
	}

	systemPrompt := opts.Config.Prompt("chat_mode")
	if systemPrompt == "" {
		systemPrompt = defaultPrompt
	}
	systemPrompt = strings.ReplaceAll(systemPrompt, "{current_dir}", opts.Root)

	s := &Session{
		cfg:      opts.Config,
		client:   opts.Client,
		registry: opts.Registry,
		perms:    NewPermissions(opts.Registry.IsSensitive, opts.Ask),
		root:     opts.Root,
		splog:    opts.Splog,
		out:      opts.Splog.Writer(),
		store:    opts.Store,
		usage:    opts.Usage,
		readLine: opts.ReadLine,
		markdown: opts.Markdown,
	}
	s.engine = llm.NewEngine(opts.Config, opts.Client, llm.EngineOptions{
		SystemPrompt: systemPrompt,
		Tools:        opts.Registry.Names(),
		Executor:     opts.Registry,
		Confirm:      s.perms.Confirm,
	})
	s.persisted = len(s.engine.Messages())
	s.reindex()
	return s
}

// Engine returns the conversation engine
func (s *Session) Engine() *llm.Engine {
	return s.engine
}

// Index returns the project index
func (s *Session) Index() *ProjectIndex {
	return s.index
}

// SessionID returns the id of the stored transcript, 0 when none exists yet
func (s *Session) SessionID() int64 {
	return s.sessionID
}

func (s *Session) reindex() {
	idx, err := BuildIndex(s.root)
	if err != nil {
		s.splog.Warn("Project indexing failed: %v", err)
		s.index = &ProjectIndex{root: s.root, byName: map[string][]string{}}
		return
	}
	s.index = idx
	if idx.Len() > 0 {
		s.splog.Info("Project indexed: %d files available for @-completion.", idx.Len())
	}
}

// Ask processes one message, emitting events as the answer streams in, and
// returns the full answer.
func (s *Session) Ask(ctx context.Context, input string, onEvent func(llm.Event)) (string, error) {
	processed := ExpandMentions(input, s.root, s.splog.Warn)
	if s.cfg.Core().Debug {
		s.splog.Info("%s", tui.ColorYellow("--- DEBUG: PROCESSED INPUT ---"))
		s.splog.Info("%s", processed)
		s.splog.Info("%s", tui.ColorYellow("--- END DEBUG ---"))
	}

	var sb strings.Builder
	err := s.engine.RunStream(ctx, processed, func(ev llm.Event) {
		if ev.Type == llm.EventContent {
			sb.WriteString(ev.Content)
		}
		if onEvent != nil {
			onEvent(ev)
		}
	})
	s.persist()
	return sb.String(), err
}

// Resume loads a stored transcript into the session. Transcripts are saved
// without the system prompt, so the current one is put in front.
func (s *Session) Resume(id int64) error {
	if s.store == nil {
		return errors.New("chat history is disabled")
	}
	if _, err := s.store.Session(id); err != nil {
		return err
	}
	messages, err := s.store.Messages(id)
	if err != nil {
		return err
	}

	restored := []llm.Message{llm.SystemMessage(s.engine.SystemPrompt())}
	for _, m := range messages {
		if m.Role != llm.RoleSystem {
			restored = append(restored, m)
		}
	}
	s.engine.SetMessages(restored)
	s.sessionID = id
	s.persisted = len(restored)
	return nil
}

// persist appends messages added since the last call to the store
func (s *Session) persist() {
	if s.store == nil {
		return
	}
	messages := s.engine.Messages()
	if s.persisted >= len(messages) {
		return
	}
	if s.sessionID == 0 {
		id, err := s.store.CreateSession(s.client.Model(), s.root)
		if err != nil {
			s.splog.Debug("failed to save chat session: %v", err)
			return
		}
		s.sessionID = id
	}
	for _, m := range messages[s.persisted:] {
		if err := s.store.AddMessage(s.sessionID, m); err != nil {
			s.splog.Debug("failed to save chat message: %v", err)
			return
		}
		s.persisted++
	}
}

// Start runs the REPL until /exit, /quit or end of input
func (s *Session) Start(ctx context.Context) error {
	s.splog.Print(tui.Banner() + "\n")
	s.splog.Info("%s", tui.ColorGreen(welcomeMessage))
	s.splog.Newline()

	s.running = true
	for s.running {
		line, err := s.readLine(tui.ColorGreen(promptText), s.index.Complete)
		switch {
		case errors.Is(err, io.EOF):
			s.running = false
			s.splog.Info("\nGoodbye!")
			return nil
		case errors.Is(err, tui.ErrCanceled):
			s.splog.Info("\nType '/exit' to quit.")
			continue
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			s.HandleCommand(line)
			continue
		}

		s.splog.Info("\n%s", tui.ColorGreen(thinkingMessage))
		if err := s.turn(ctx, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.splog.Error("Error: %v", err)
		}
	}
	return nil
}

// turn answers one REPL line. Text streams straight to the terminal unless a
// markdown renderer is set, in which case the finished answer is rendered.
func (s *Session) turn(ctx context.Context, line string) error {
	answer, err := s.Ask(ctx, line, func(ev llm.Event) {
		switch ev.Type {
		case llm.EventContent:
			if s.markdown == nil {
				_, _ = io.WriteString(s.out, ev.Content)
			}
		case llm.EventReasoning:
			_, _ = io.WriteString(s.out, tui.ColorDim(ev.Content))
		case llm.EventToolCall:
			s.splog.Info("%s", tui.ColorCyan(fmt.Sprintf("\n🔧 %s(%s)", ev.ToolName, ev.ToolArgs)))
		}
	})
	if s.markdown != nil && answer != "" {
		s.splog.Print(s.markdown.Render(answer) + "\n")
	}
	s.splog.Newline()
	return err
}
