package actions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
	"github.com/abhishek9sharma/sarathi/internal/tui"
	"github.com/abhishek9sharma/sarathi/internal/utils"
)

const notConfiguredModel = "Not configured (using provider default)"

// ConfigInitAction writes the default configuration, prompts included, to
// path or ~/.sarathi/config.yaml. An existing file is only replaced after
// confirmation.
func ConfigInitAction(ctx *runtime.Context, path string) error {
	if path == "" {
		path = config.GlobalPath(ctx.HomeDir)
	}
	if _, err := os.Stat(path); err == nil {
		ok, err := tui.AskYesNo(ctx.In, ctx.Splog.Writer(), fmt.Sprintf("Config file %s already exists. Overwrite?", path))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if err := config.WriteDefaults(path); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	ctx.Splog.Info("Configuration file created at %s", abs)
	return nil
}

// ConfigShowAction prints the merged configuration with API keys masked
func ConfigShowAction(ctx *runtime.Context) error {
	out, err := yaml.Marshal(ctx.Config.Redacted())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	ctx.Splog.Print(string(out))
	return nil
}

// ConfigInfoAction lists the files the configuration was read from
func ConfigInfoAction(ctx *runtime.Context) {
	ctx.Splog.Info("Active Configuration Sources:")
	files := ctx.Config.LoadedFiles()
	if len(files) == 0 {
		ctx.Splog.Info("  - Defaults (no config files loaded)")
	}
	for _, f := range files {
		ctx.Splog.Info("  - %s", f)
	}
	ctx.Splog.Info("Changes are saved to: %s", ctx.Config.SavePath())
}

// ConfigSetAction sets key to value, parsed as bool, int or float when
// possible, and saves it unless noSave is set.
func ConfigSetAction(ctx *runtime.Context, key, value string, noSave bool) error {
	parsed := utils.ParseValue(value)
	if err := ctx.Config.Set(key, parsed, !noSave); err != nil {
		return err
	}
	ctx.Splog.Info("Set %s = %v", key, parsed)
	return nil
}

// ModelOptions contains options for the model command
type ModelOptions struct {
	// Name is the model to switch to; empty shows the current models.
	Name string
	// Agent limits the change to one agent.
	Agent  string
	NoSave bool
}

// ModelAction shows or switches the models used by agents
func ModelAction(ctx *runtime.Context, opts ModelOptions) error {
	agents := config.DefaultAgents
	if opts.Agent != "" {
		agents = []string{config.ResolveAgentName(opts.Agent)}
	}

	if opts.Name == "" {
		ctx.Splog.Info("Current Model Configuration:")
		for _, agent := range agents {
			model := ctx.Config.AgentConfig(agent).Model
			if model == "" {
				model = notConfiguredModel
			}
			ctx.Splog.Info("  - %s: %s", agent, model)
		}
		return nil
	}

	for _, agent := range agents {
		if err := ctx.Config.UpdateAgentModel(agent, opts.Name, false); err != nil {
			return err
		}
	}
	if !opts.NoSave {
		if err := ctx.Config.Save(); err != nil {
			return err
		}
	}
	ctx.Splog.Info("Model set to '%s' for agents: %s", opts.Name, strings.Join(agents, ", "))
	return nil
}
