package actions

import (
	"strings"

	"github.com/abhishek9sharma/sarathi/internal/ai"
	"github.com/abhishek9sharma/sarathi/internal/config"
	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
	"github.com/abhishek9sharma/sarathi/internal/git"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

// DeclinedCommitMessage is printed when the user rejects a generated message
const DeclinedCommitMessage = "I would try to generate a better commit msgs next time"

const editHint = `

# Edit the generated commit message. Lines starting with '#' are ignored
# and an empty message aborts the commit.
`

// AutocommitOptions contains options for git autocommit
type AutocommitOptions struct {
	// Parallel summarizes files concurrently before writing the message.
	Parallel bool
	// Yes commits without asking.
	Yes bool
	// DryRun prints the message and stops.
	DryRun   bool
	NoVerify bool
	// Edit opens the message in the user's editor; saving it replaces the
	// confirmation prompt.
	Edit bool
	// Editor overrides tui.OpenEditor.
	Editor func(initial string) (string, error)
	// Generator overrides the model-backed generator.
	Generator ai.CommitMessageGenerator
}

// AutocommitAction generates a commit message for the staged changes,
// shows it, asks for confirmation and commits.
func AutocommitAction(ctx *runtime.Context, opts AutocommitOptions) error {
	splog := ctx.Splog

	repo, err := ctx.Repo()
	if err != nil {
		return err
	}
	staged, err := repo.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		splog.Tip("Stage your changes with 'git add' first.")
		return sarathierrors.ErrNoStagedChanges
	}

	gen := opts.Generator
	if gen == nil {
		gen = newCommitGenerator(ctx, repo, opts.Parallel)
	}

	var message string
	generate := func() error {
		var genErr error
		message, genErr = gen.GenerateCommitMessage(ctx)
		return genErr
	}
	if opts.Parallel {
		err = generate()
	} else {
		err = tui.WithSpinner(splog, "Generating commit message...", generate)
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return sarathierrors.ErrEmptyResponse
	}

	splog.Info("%s", message)
	if opts.DryRun {
		return nil
	}

	if opts.Edit {
		editor := opts.Editor
		if editor == nil {
			editor = func(initial string) (string, error) {
				return tui.OpenEditor(initial, "COMMIT_EDITMSG-*.txt")
			}
		}
		edited, err := editor(message + editHint)
		if err != nil {
			return err
		}
		if edited = tui.StripComments(edited); edited == "" {
			splog.Warn("Aborting commit due to empty commit message.")
			return nil
		}
		message = edited
	} else if !opts.Yes {
		ok, err := tui.AskYesNo(ctx.In, splog.Writer(), "Do you want to proceed")
		if err != nil {
			return err
		}
		if !ok {
			splog.Info(DeclinedCommitMessage)
			return nil
		}
	}

	out, err := repo.Commit(ctx, git.CommitOptions{Message: message, NoVerify: opts.NoVerify})
	if err != nil {
		return err
	}
	if out != "" {
		splog.Info("%s", out)
	}
	return nil
}

func newCommitGenerator(ctx *runtime.Context, repo *git.Repo, parallel bool) ai.CommitMessageGenerator {
	cfg := ctx.Config
	client := ctx.Client(config.AgentCommitGenerator)
	if parallel {
		analyzer := ai.NewParallelAnalyzer(repo, client, ctx.Splog, cfg.Prompt("file_analysis"), cfg.Prompt("commit_coordination"))
		analyzer.SetMaxConcurrent(cfg.Core().MaxConcurrency)
		return analyzer
	}
	return ai.NewSingleShotGenerator(repo, client, cfg.SystemPrompt(config.AgentCommitGenerator, "autocommit"))
}
