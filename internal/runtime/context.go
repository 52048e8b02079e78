package runtime

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/git"
	"github.com/abhishek9sharma/sarathi/internal/llm"
	"github.com/abhishek9sharma/sarathi/internal/store"
	"github.com/abhishek9sharma/sarathi/internal/tools"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

// Options controls how a Context is built
type Options struct {
	// ConfigPath is the --config file; empty uses the global and project files.
	ConfigPath string
	// HomeDir overrides the user home directory for config, history and logs.
	HomeDir string
	// WorkDir is the project directory; empty means the process cwd.
	WorkDir string
	Debug   bool
	// LogFile enables the rotating debug log at this path.
	LogFile string
	Out     io.Writer
	In      io.Reader
	// NoHistory skips opening the history store.
	NoHistory bool
}

// Context provides access to configuration and output for commands
type Context struct {
	context.Context
	Config *config.Manager
	Splog  *tui.Splog
	Usage  *llm.UsageTracker
	// Store is nil when history is disabled or could not be opened.
	Store   *store.Store
	WorkDir string
	HomeDir string
	In      io.Reader
}

// NewContext loads configuration and opens the history store
func NewContext(ctx context.Context, opts Options) (*Context, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.HomeDir = home
		}
	}
	if opts.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.WorkDir = wd
		}
	}

	splog, err := tui.NewSplogWithConfig(opts.Out, opts.LogFile)
	if err != nil {
		splog = tui.NewSplogWithWriter(opts.Out)
		splog.Warn("Failed to open log file: %v", err)
	}

	cfg, err := config.New(config.Options{
		Path:    opts.ConfigPath,
		HomeDir: opts.HomeDir,
		WorkDir: opts.WorkDir,
		Warn:    splog.Warn,
	})
	if err != nil {
		return nil, err
	}
	if opts.Debug || cfg.Core().Debug {
		splog.SetDebug(true)
	}

	c := &Context{
		Context: ctx,
		Config:  cfg,
		Splog:   splog,
		WorkDir: opts.WorkDir,
		HomeDir: opts.HomeDir,
		In:      opts.In,
	}

	if !opts.NoHistory && cfg.Core().History {
		s, err := store.Open(store.DefaultPath(opts.HomeDir))
		if err != nil {
			splog.Debug("History disabled: %v", err)
		} else {
			c.Store = s
		}
	}
	if c.Store != nil {
		c.Usage = llm.NewUsageTracker(c.Store)
	} else {
		c.Usage = llm.NewUsageTracker(nil)
	}
	return c, nil
}

// NewTestContext returns a context writing to out with home and work
// directories under dir and no history store.
func NewTestContext(ctx context.Context, dir string, out io.Writer) (*Context, error) {
	return NewContext(ctx, Options{
		HomeDir:   filepath.Join(dir, "home"),
		WorkDir:   dir,
		Out:       out,
		NoHistory: true,
	})
}

// Client returns an LLM client for agent that records usage and logs retries
func (c *Context) Client(agent string) *llm.Client {
	return llm.NewClient(c.Config, agent, llm.WithUsage(c.Usage), llm.WithSplog(c.Splog))
}

// Repo opens the git repository containing the working directory
func (c *Context) Repo() (*git.Repo, error) {
	return git.Open(c.WorkDir)
}

// Registry returns every built-in tool rooted at the working directory
func (c *Context) Registry() *tools.Registry {
	return tools.NewDefaultRegistry(c.WorkDir)
}

// Markdown returns a renderer for answers, or nil when output is not a
// terminal or rendering is disabled.
func (c *Context) Markdown() *tui.MarkdownRenderer {
	if !c.Config.Core().RenderMarkdown || !tui.IsOutputTTY() {
		return nil
	}
	return tui.NewMarkdownRenderer(tui.TerminalWidth(), true)
}

// Close releases the history store and log file
func (c *Context) Close() error {
	var firstErr error
	if c.Store != nil {
		firstErr = c.Store.Close()
	}
	if err := c.Splog.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
