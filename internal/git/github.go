package git

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// GitHubToken returns GITHUB_TOKEN, falling back to `gh auth token`
func GitHubToken(ctx context.Context) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	gh := &CommandRunner{binary: "gh"}
	out, err := gh.Run(ctx, "auth", "token")
	if err != nil {
		return "", fmt.Errorf("failed to get GitHub token: %w", err)
	}
	token := strings.TrimSpace(out)
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}
	return token, nil
}

// NewGitHubClient returns an authenticated client when a token is available
// and an anonymous one otherwise.
func NewGitHubClient(ctx context.Context) *github.Client {
	token, err := GitHubToken(ctx)
	if err != nil {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}
