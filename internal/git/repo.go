package git

import (
	"fmt"
	"os"

	gogit "github.com/go-git/go-git/v5"

	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
)

// Repo is an opened working tree
type Repo struct {
	root   string
	repo   *gogit.Repository
	runner *CommandRunner
}

// Open finds the repository containing dir ("" means the current directory)
func Open(dir string) (*Repo, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sarathierrors.ErrNotGitRepo, dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	root := worktree.Filesystem.Root()
	return &Repo{root: root, repo: repo, runner: NewCommandRunner(root)}, nil
}

// Root returns the top-level directory of the working tree
func (r *Repo) Root() string {
	return r.root
}

// Runner returns a command runner rooted at the working tree
func (r *Repo) Runner() *CommandRunner {
	return r.runner
}

// CurrentBranch returns the short name of HEAD, or "" when detached or unborn
func (r *Repo) CurrentBranch() string {
	head, err := r.repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}
