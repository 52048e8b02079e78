// Package actions provides the business logic behind each CLI command.
//
// Each action corresponds to a sarathi command (git autocommit, ask, chat,
// docstrgen, code, config, model, sbom, usage) and orchestrates the ai,
// llm, docgen, codeagent, chat and sbom packages.
//
// Key patterns:
//   - Actions accept runtime.Context which provides Config, Splog, Usage and Store
//   - Actions print through ctx.Splog so tests can capture output
//   - Interactive prompts read from ctx.In and can be bypassed with options
package actions
