// Package codeagent runs the code_editor agent for test generation and
// free-form code edits.
package codeagent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/llm"
	"github.com/abhishek9sharma/sarathi/internal/tools"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

// Supported test frameworks
const (
	FrameworkTesting = "testing"
	FrameworkTestify = "testify"
)

// ErrUnknownFramework is returned for frameworks other than testing and testify
var ErrUnknownFramework = errors.New("unknown test framework")

// GenTestTools are the tools available while generating tests
var GenTestTools = []string{
	tools.ReadFile,
	tools.WriteFile,
	tools.ParseGoAST,
	tools.GetFunctionCode,
	tools.CheckTestExists,
	tools.RunGoTest,
	tools.RunCommand,
}

// EditTools are the tools available to general edit requests
var EditTools = []string{
	tools.ReadFile,
	tools.WriteFile,
	tools.ReplaceInFile,
	tools.ListFiles,
	tools.FindFiles,
	tools.ParseGoAST,
	tools.GetFunctionCode,
	tools.CheckTestExists,
	tools.RunGoTest,
	tools.RunCommand,
	tools.GetGitDiff,
	tools.GetGitStatus,
	tools.GetProjectStructure,
}

// Agent drives code_editor sessions
type Agent struct {
	cfg      *config.Manager
	client   *llm.Client
	executor llm.ToolExecutor
	splog    *tui.Splog
	confirm  llm.ConfirmFunc
}

// New creates an Agent. confirm may be nil to run every tool without asking.
func New(cfg *config.Manager, client *llm.Client, executor llm.ToolExecutor, splog *tui.Splog, confirm llm.ConfirmFunc) *Agent {
	return &Agent{cfg: cfg, client: client, executor: executor, splog: splog, confirm: confirm}
}

func (a *Agent) engine(systemPrompt string, toolNames []string) *llm.Engine {
	return llm.NewEngine(a.cfg, a.client, llm.EngineOptions{
		SystemPrompt: systemPrompt,
		Tools:        toolNames,
		Executor:     a.executor,
		Confirm:      a.confirm,
	})
}

// GenerateTests asks the agent to write and run tests for sourceFile
func (a *Agent) GenerateTests(ctx context.Context, sourceFile, framework string) (string, error) {
	if framework == "" {
		framework = FrameworkTesting
	}
	prompt, err := GenTestPrompt(framework)
	if err != nil {
		return "", err
	}

	a.splog.Info("🧪 Starting test generation for %s...", sourceFile)
	result, err := a.engine(prompt, GenTestTools).Run(ctx, "Generate comprehensive unit tests for the file: "+sourceFile)
	if err != nil {
		return "", err
	}
	a.splog.Info("✅ Test generation complete!")
	return result, nil
}

// Edit runs a natural language request, with contextFiles appended to it
func (a *Agent) Edit(ctx context.Context, request string, contextFiles []string) (string, error) {
	request += BuildContext(contextFiles)

	a.splog.Info("🤖 Processing request...")
	result, err := a.engine(editPrompt, EditTools).Run(ctx, request)
	if err != nil {
		return "", err
	}
	a.splog.Info("✅ Complete!")
	return result, nil
}

// BuildContext renders files as a "Context files:" section. Unreadable files
// are included with the read error so the model knows they were requested.
func BuildContext(files []string) string {
	if len(files) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nContext files:\n")
	for _, f := range files {
		if err := tools.CheckPath(f); err != nil {
			fmt.Fprintf(&sb, "\n--- %s ---\nError reading: %v\n", f, err)
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(&sb, "\n--- %s ---\nError reading: %v\n", f, err)
			continue
		}
		fmt.Fprintf(&sb, "\n--- %s ---\n%s\n", f, data)
	}
	return sb.String()
}

// GenTestPrompt returns the system prompt for a framework
func GenTestPrompt(framework string) (string, error) {
	var style string
	switch framework {
	case FrameworkTesting:
		style = "- Use only the standard testing package with t.Errorf/t.Fatalf"
	case FrameworkTestify:
		style = "- Use github.com/stretchr/testify/require for assertions"
	default:
		return "", fmt.Errorf("%w: %s (use %s or %s)", ErrUnknownFramework, framework, FrameworkTesting, FrameworkTestify)
	}
	return fmt.Sprintf(genTestPrompt, framework, style), nil
}

const genTestPrompt = `You are an expert Go developer specializing in writing comprehensive unit tests.

Your task is to generate tests for Go code using %s.

Follow these steps:
1. Use ` + "`read_file`" + ` to read the source code
2. Use ` + "`parse_go_ast`" + ` to understand the code structure
3. Use ` + "`check_test_exists`" + ` to see if tests already exist
4. Generate comprehensive test cases covering:
   - Normal cases
   - Edge cases
   - Error handling
   - Different inputs
5. Use ` + "`write_file`" + ` to create the _test.go file next to the source
6. Use ` + "`run_go_test`" + ` to verify the tests pass

Guidelines:
- Prefer table-driven tests with t.Run subtests
%s
- Use t.TempDir and t.Setenv instead of touching real state
- Write clear, descriptive test names
- Keep tests in the same package unless only the exported API is tested

Return the path to the generated test file when complete.`

const editPrompt = `You are an expert Go developer and code editor.

You can help with:
- Generating new code
- Refactoring existing code
- Adding features
- Fixing bugs
- Generating tests
- Adding documentation

Available tools:
- File operations: read_file, write_file, replace_in_file, list_files, find_files
- Code analysis: parse_go_ast, get_function_code
- Git operations: get_git_diff, get_git_status
- Testing: run_go_test, check_test_exists
- Command execution: run_command
- Project structure: get_project_structure

Always:
1. Understand the request fully
2. Read relevant files to understand context
3. Make changes carefully
4. Verify changes work (run tests if applicable)
5. Explain what you did

Be thorough but concise in your explanations.`
