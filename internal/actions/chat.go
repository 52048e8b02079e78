package actions

import (
	"errors"
	"fmt"

	"github.com/abhishek9sharma/sarathi/internal/chat"
	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
	"github.com/abhishek9sharma/sarathi/internal/store"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

// ErrHistoryDisabled is returned by history commands when no store is open
var ErrHistoryDisabled = errors.New("chat history is disabled (core.history is false)")

const sessionListLimit = 20

// ChatOptions contains options for the chat command
type ChatOptions struct {
	// Question asks one question and exits.
	Question string
	// ListSessions prints saved transcripts instead of chatting.
	ListSessions bool
	// Resume continues a saved transcript.
	Resume   int64
	Ask      chat.AskFunc
	ReadLine chat.LineReader
}

// ChatAction runs the interactive chat, a single question, or lists
// saved sessions.
func ChatAction(ctx *runtime.Context, opts ChatOptions) error {
	if opts.ListSessions {
		return listSessions(ctx)
	}

	session := chat.NewSession(chat.Options{
		Config:   ctx.Config,
		Client:   ctx.Client(config.AgentChat),
		Registry: ctx.Registry(),
		Root:     ctx.WorkDir,
		Splog:    ctx.Splog,
		Store:    ctx.Store,
		Usage:    ctx.Usage,
		Ask:      opts.Ask,
		ReadLine: opts.ReadLine,
		Markdown: ctx.Markdown(),
	})

	if opts.Resume != 0 {
		if ctx.Store == nil {
			return ErrHistoryDisabled
		}
		if err := session.Resume(opts.Resume); err != nil {
			return err
		}
		ctx.Splog.Info("Resumed session #%d.", opts.Resume)
	}

	if opts.Question != "" {
		ctx.Splog.Info("\n%s", tui.ColorGreen("Sarathi is thinking..."))
		answer, err := session.Ask(ctx, opts.Question, nil)
		if err != nil {
			return err
		}
		ctx.Splog.Print(ctx.Markdown().Render(answer) + "\n")
		return nil
	}
	return session.Start(ctx)
}

func listSessions(ctx *runtime.Context) error {
	if ctx.Store == nil {
		return ErrHistoryDisabled
	}
	sessions, err := ctx.Store.Sessions(sessionListLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		ctx.Splog.Info("No saved chat sessions.")
		return nil
	}
	ctx.Splog.Info("%s", tui.Bold("Saved chat sessions:"))
	for _, s := range sessions {
		ctx.Splog.Info("  %s %s %s %s",
			tui.ColorCyan(fmt.Sprintf("#%-4d", s.ID)),
			tui.ColorDim(s.UpdatedAt),
			fmt.Sprintf("(%d messages)", s.MessageCount),
			store.Preview(s.Title, 60),
		)
	}
	ctx.Splog.Tip("Resume one with 'sarathi chat --resume <id>'.")
	return nil
}
