package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Command limits
const (
	CommandTimeout = 30 * time.Second
	TestTimeout    = 60 * time.Second
)

type commandResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"returncode"`
	Passed     *bool  `json:"passed,omitempty"`
	Error      string `json:"error,omitempty"`
}

// execute runs name with args in dir. timedOut is true when timeout expired.
func execute(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (res commandResult, timedOut bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res = commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, true, nil
	}
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		res.ReturnCode = exitErr.ExitCode()
	default:
		return res, false, runErr
	}
	return res, false, nil
}

func (l *Library) runCommand(ctx context.Context, args commandArgs) (string, error) {
	if err := CheckCommand(args.Command); err != nil {
		return toJSON(map[string]string{"error": err.Error()}), nil
	}

	res, timedOut, err := execute(ctx, l.Root, CommandTimeout, "sh", "-c", args.Command)
	switch {
	case timedOut:
		return toJSON(map[string]string{"error": fmt.Sprintf("Command timed out after %d seconds", int(CommandTimeout.Seconds()))}), nil
	case err != nil:
		return toJSON(map[string]string{"error": err.Error()}), nil
	}
	if res.ReturnCode != 0 {
		res.Error = fmt.Sprintf("Command failed with exit code %d", res.ReturnCode)
	}
	return toJSON(res), nil
}

func (l *Library) runGoTest(ctx context.Context, args testArgs) (string, error) {
	path := args.Path
	if path == "" {
		path = "./..."
	}
	cmdArgs := []string{"test", "-v", "-count=1"}
	if args.Run != "" {
		cmdArgs = append(cmdArgs, "-run", args.Run)
	}
	cmdArgs = append(cmdArgs, path)

	res, timedOut, err := execute(ctx, l.Root, TestTimeout, "go", cmdArgs...)
	switch {
	case timedOut:
		return toJSON(map[string]string{"error": fmt.Sprintf("Tests timed out after %d seconds", int(TestTimeout.Seconds()))}), nil
	case err != nil:
		return toJSON(map[string]string{"error": err.Error()}), nil
	}
	passed := res.ReturnCode == 0
	res.Passed = &passed
	return toJSON(res), nil
}
