package actions

import (
	"errors"
	"strings"

	"github.com/abhishek9sharma/sarathi/internal/chat"
	"github.com/abhishek9sharma/sarathi/internal/codeagent"
	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

const resultRule = 60

// CodeOptions contains options shared by the code subcommands
type CodeOptions struct {
	// File is the source file gentest writes tests for.
	File      string
	Framework string
	// Request is the edit instruction.
	Request      string
	ContextFiles []string
	// Ask answers permission requests for file writes and commands.
	Ask chat.AskFunc
}

func newCodeAgent(ctx *runtime.Context, ask chat.AskFunc) *codeagent.Agent {
	registry := ctx.Registry()
	perms := chat.NewPermissions(registry.IsSensitive, ask)
	return codeagent.New(ctx.Config, ctx.Client(config.AgentCodeEditor), registry, ctx.Splog, perms.Confirm)
}

func printResult(ctx *runtime.Context, result string) {
	rule := strings.Repeat("=", resultRule)
	ctx.Splog.Info("\n%s\nRESULT:\n%s\n%s", rule, rule, result)
}

// GenTestAction generates tests for opts.File with the code_editor agent
func GenTestAction(ctx *runtime.Context, opts CodeOptions) (string, error) {
	if opts.File == "" {
		return "", errors.New("please specify a source file with --file")
	}
	if err := requirePath(opts.File, false); err != nil {
		return "", err
	}
	result, err := newCodeAgent(ctx, opts.Ask).GenerateTests(ctx, opts.File, opts.Framework)
	if err != nil {
		return "", err
	}
	printResult(ctx, result)
	return result, nil
}

// EditAction carries out a free-form code change request
func EditAction(ctx *runtime.Context, opts CodeOptions) (string, error) {
	if strings.TrimSpace(opts.Request) == "" {
		return "", errors.New("please describe the change to make")
	}
	result, err := newCodeAgent(ctx, opts.Ask).Edit(ctx, opts.Request, opts.ContextFiles)
	if err != nil {
		return "", err
	}
	printResult(ctx, result)
	return result, nil
}
