package actions

import (
	"errors"
	"fmt"
	"os"

	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/docgen"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// ErrFileOrDir is returned unless exactly one of file and dir is given
var ErrFileOrDir = errors.New("please enter a file or a folder. Both arguments cannot be specified")

// DocstringsOptions contains options for docstrgen
type DocstringsOptions struct {
	File      string
	Dir       string
	Overwrite bool
	// Caller overrides the model client.
	Caller docgen.ModelCaller
}

// DocstringsAction writes doc comments for undocumented functions in a file
// or every Go file below a directory.
func DocstringsAction(ctx *runtime.Context, opts DocstringsOptions) (int, error) {
	if (opts.File == "") == (opts.Dir == "") {
		return 0, ErrFileOrDir
	}

	caller := opts.Caller
	if caller == nil {
		caller = ctx.Client(config.AgentUpdateDocstrings)
	}
	gen := docgen.New(caller, ctx.Config.SystemPrompt(config.AgentUpdateDocstrings, "update_docstrings"), ctx.Splog, docgen.Options{
		Overwrite:      opts.Overwrite,
		MaxConcurrency: ctx.Config.Core().MaxConcurrency,
	})

	var (
		count int
		err   error
	)
	if opts.File != "" {
		if err := requirePath(opts.File, false); err != nil {
			return 0, err
		}
		if !docgen.IsSourceFile(opts.File) {
			return 0, fmt.Errorf("%s is not a Go source file", opts.File)
		}
		ctx.Splog.Info("Generating docstrings for file %s", opts.File)
		count, err = gen.ProcessFile(ctx, opts.File)
	} else {
		if err := requirePath(opts.Dir, true); err != nil {
			return 0, err
		}
		count, err = gen.ProcessDir(ctx, opts.Dir)
	}
	if err != nil {
		return count, err
	}
	ctx.Splog.Success("Added %d doc comment(s).", count)
	return count, nil
}

func requirePath(path string, dir bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s does not exist", path)
	}
	if dir && !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if !dir && info.IsDir() {
		return fmt.Errorf("%s is a directory; use --dir", path)
	}
	return nil
}
