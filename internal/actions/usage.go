package actions

import (
	"github.com/abhishek9sharma/sarathi/internal/llm"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// UsageAction prints recorded token usage, or clears it when reset is set
func UsageAction(ctx *runtime.Context, reset bool) error {
	if ctx.Store == nil {
		return ErrHistoryDisabled
	}
	if reset {
		if err := ctx.Store.ResetUsage(); err != nil {
			return err
		}
		ctx.Splog.Success("Usage history cleared.")
		return nil
	}

	totals, err := ctx.Store.UsageTotals()
	if err != nil {
		return err
	}
	if totals.Calls == 0 {
		ctx.Splog.Info("No LLM calls recorded yet.")
		return nil
	}
	ctx.Splog.Info("%s", llm.FormatSummary(totals))

	byModel, err := ctx.Store.UsageByModel()
	if err != nil {
		return err
	}
	ctx.Splog.Info("By agent and model:")
	for _, m := range byModel {
		ctx.Splog.Info("  - %s / %s: %d calls, %d tokens", m.Agent, m.Model, m.Calls, m.TotalTokens())
	}
	return nil
}

// PrintSessionUsage prints the usage of the current process, if any
func PrintSessionUsage(ctx *runtime.Context) {
	if summary := ctx.Usage.Summary(); summary != "" {
		ctx.Splog.Info("%s", summary)
	}
}
