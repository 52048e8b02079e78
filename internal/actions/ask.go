package actions

import (
	"errors"

	"github.com/abhishek9sharma/sarathi/internal/chat"
	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/llm"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// ErrNoQuestion is returned when ask gets neither -q nor piped input
var ErrNoQuestion = errors.New("please provide a question with -q or through stdin")

// AskOptions contains options for the ask command
type AskOptions struct {
	Question string
	// Ask answers tool permission requests; nil prompts interactively.
	Ask chat.AskFunc
}

// AskAction answers a question with the qahelper agent, which may read the
// project through tools.
func AskAction(ctx *runtime.Context, opts AskOptions) (string, error) {
	if opts.Question == "" {
		return "", ErrNoQuestion
	}

	registry := ctx.Registry()
	perms := chat.NewPermissions(registry.IsSensitive, opts.Ask)
	engine := llm.NewEngine(ctx.Config, ctx.Client(config.AgentQAHelper), llm.EngineOptions{
		SystemPrompt: ctx.Config.SystemPrompt(config.AgentQAHelper, "qahelper"),
		Tools:        registry.Names(),
		Executor:     registry,
		Confirm:      perms.Confirm,
	})

	ctx.Splog.Info("Agent is thinking (and may use tools)...")
	answer, err := engine.Run(ctx, opts.Question)
	if err != nil {
		return "", err
	}
	ctx.Splog.Print("\n" + ctx.Markdown().Render(answer) + "\n")
	return answer, nil
}
