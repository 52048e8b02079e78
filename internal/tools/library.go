package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abhishek9sharma/sarathi/internal/git"
)

// Tool names
const (
	ReadFile            = "read_file"
	WriteFile           = "write_file"
	ReplaceInFile       = "replace_in_file"
	ListFiles           = "list_files"
	FindFiles           = "find_files"
	GetGitDiff          = "get_git_diff"
	GetGitStatus        = "get_git_status"
	ParseGoAST          = "parse_go_ast"
	GetFunctionCode     = "get_function_code"
	RunCommand          = "run_command"
	RunGoTest           = "run_go_test"
	CheckTestExists     = "check_test_exists"
	GetProjectStructure = "get_project_structure"
)

// IgnoredDirs are skipped when walking a project
var IgnoredDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"vendor":        true,
	".sarathi":      true,
	".idea":         true,
	".vscode":       true,
	"__pycache__":   true,
	"venv":          true,
	".venv":         true,
	".pytest_cache": true,
}

// Library implements the built-in tools against a project directory.
// Relative paths given by the model are resolved against Root.
type Library struct {
	Root string
	git  *git.CommandRunner
}

// NewLibrary creates a library rooted at root ("" means the current directory)
func NewLibrary(root string) *Library {
	if root == "" {
		root = "."
	}
	return &Library{Root: root, git: git.NewCommandRunner(root)}
}

// NewDefaultRegistry returns a registry holding every built-in tool rooted at root
func NewDefaultRegistry(root string) *Registry {
	r := NewRegistry()
	NewLibrary(root).Register(r)
	return r
}

type readFileArgs struct {
	Filepath string `json:"filepath" jsonschema_description:"Path of the file to read"`
}

type writeFileArgs struct {
	Filepath string `json:"filepath" jsonschema_description:"Path of the file to write"`
	Content  string `json:"content" jsonschema_description:"Complete new file content"`
}

type replaceArgs struct {
	Filepath string `json:"filepath" jsonschema_description:"Path of the file to edit"`
	Old      string `json:"old" jsonschema_description:"Exact text to replace"`
	New      string `json:"new" jsonschema_description:"Replacement text"`
	Count    int    `json:"count,omitempty" jsonschema_description:"Maximum number of replacements; 0 replaces all"`
}

type directoryArgs struct {
	Directory string `json:"directory,omitempty" jsonschema:"default=." jsonschema_description:"Directory to inspect"`
}

type findFilesArgs struct {
	Directory string `json:"directory,omitempty" jsonschema:"default=." jsonschema_description:"Directory to search"`
	Extension string `json:"extension,omitempty" jsonschema:"default=.go" jsonschema_description:"File extension to match"`
}

type noArgs struct{}

type functionArgs struct {
	Filepath     string `json:"filepath" jsonschema_description:"Go source file"`
	FunctionName string `json:"function_name" jsonschema_description:"Function name or Type.Method"`
}

type commandArgs struct {
	Command string `json:"command" jsonschema_description:"Shell command to run"`
}

type testArgs struct {
	Path string `json:"path" jsonschema_description:"Package pattern or directory to test, for example ./internal/..."`
	Run  string `json:"run,omitempty" jsonschema_description:"Optional -run regular expression"`
}

type sourceFileArgs struct {
	SourceFile string `json:"source_file" jsonschema_description:"Go source file"`
}

type structureArgs struct {
	RootDir string `json:"root_dir,omitempty" jsonschema:"default=." jsonschema_description:"Project root"`
}

// Register adds every built-in tool to r
func (l *Library) Register(r *Registry) {
	Add(r, ReadFile, "Read the complete contents of a file. Returns the file content as a string.", false, l.readFile)
	Add(r, WriteFile, "Write content to a file. Creates the file if it doesn't exist, overwrites if it does.", true, l.writeFile)
	Add(r, ReplaceInFile, "Replace exact text in a file. Fails when the text is not found.", true, l.replaceInFile)
	Add(r, ListFiles, "List all files in a directory. Returns a JSON array of filenames.", false, l.listFiles)
	Add(r, FindFiles, "Recursively find files with an extension (default .go). Returns paths relative to the directory.", false, l.findFiles)
	Add(r, GetGitDiff, "Get staged changes in the current git repository.", false, l.gitDiff)
	Add(r, GetGitStatus, "Get git status showing modified, staged, and untracked files.", false, l.gitStatus)
	Add(r, ParseGoAST, "Parse a Go file and return its package, imports, types and functions with their signatures.", false, l.parseGoAST)
	Add(r, GetFunctionCode, "Extract the source code of a specific function or method from a Go file.", false, l.functionCode)
	Add(r, RunCommand, "Run a shell command and return stdout, stderr, and exit code. Use for running linters, builds, etc.", true, l.runCommand)
	Add(r, RunGoTest, "Run go test on a package pattern. Returns test results.", false, l.runGoTest)
	Add(r, CheckTestExists, "Check if a _test.go file exists for a given source file. Returns the test file path if it exists.", false, l.checkTestExists)
	Add(r, GetProjectStructure, "Get an overview of the project structure including directories and Go files.", false, l.projectStructure)
}

func (l *Library) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.Root, path)
}

func (l *Library) readFile(_ context.Context, args readFileArgs) (string, error) {
	if err := CheckPath(args.Filepath); err != nil {
		return "Error: " + err.Error(), nil
	}
	data, err := os.ReadFile(l.resolve(args.Filepath))
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err), nil
	}
	return string(data), nil
}

func (l *Library) writeFile(_ context.Context, args writeFileArgs) (string, error) {
	if err := CheckPath(args.Filepath); err != nil {
		return "Error: " + err.Error(), nil
	}
	path := l.resolve(args.Filepath)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Sprintf("Error writing file: %v", err), nil
	}
	if err := os.WriteFile(path, []byte(args.Content), 0600); err != nil {
		return fmt.Sprintf("Error writing file: %v", err), nil
	}
	return fmt.Sprintf("Successfully wrote to %s", args.Filepath), nil
}

func (l *Library) replaceInFile(_ context.Context, args replaceArgs) (string, error) {
	if err := CheckPath(args.Filepath); err != nil {
		return "Error: " + err.Error(), nil
	}
	if args.Old == "" {
		return "Error replacing text: old text is empty", nil
	}
	path := l.resolve(args.Filepath)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("Error replacing text: %v", err), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error replacing text: %v", err), nil
	}

	content := string(data)
	found := strings.Count(content, args.Old)
	if found == 0 {
		return fmt.Sprintf("Error replacing text: text not found in %s", args.Filepath), nil
	}
	n := -1
	if args.Count > 0 {
		n = args.Count
		found = min(found, n)
	}
	content = strings.Replace(content, args.Old, args.New, n)
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Sprintf("Error replacing text: %v", err), nil
	}
	return fmt.Sprintf("Replaced %d occurrence(s) in %s", found, args.Filepath), nil
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

func toIndentedJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (l *Library) listFiles(_ context.Context, args directoryArgs) (string, error) {
	dir := args.Directory
	if dir == "" {
		dir = "."
	}
	path := l.resolve(dir)
	if !isDir(path) {
		return fmt.Sprintf("Error listing files: Directory %s does not exist.", dir), nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("Error listing files: %v", err), nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if IsSensitivePath(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return toJSON(names), nil
}

// walk visits files under dir, skipping ignored directories and sensitive files.
// visit receives slash separated paths relative to dir.
func walk(dir string, onDir, onFile func(rel string)) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if IgnoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			if onDir != nil {
				onDir(rel)
			}
			return nil
		}
		if IsSensitivePath(d.Name()) {
			return nil
		}
		if onFile != nil {
			onFile(rel)
		}
		return nil
	})
}

func (l *Library) findFiles(_ context.Context, args findFilesArgs) (string, error) {
	dir := args.Directory
	if dir == "" {
		dir = "."
	}
	ext := args.Extension
	if ext == "" {
		ext = ".go"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	path := l.resolve(dir)
	if !isDir(path) {
		return fmt.Sprintf("Error finding files: Directory %s does not exist.", dir), nil
	}

	files := []string{}
	err := walk(path, nil, func(rel string) {
		if strings.HasSuffix(rel, ext) {
			files = append(files, rel)
		}
	})
	if err != nil {
		return fmt.Sprintf("Error finding files: %v", err), nil
	}
	sort.Strings(files)
	return toJSON(files), nil
}

func (l *Library) gitDiff(ctx context.Context, _ noArgs) (string, error) {
	out, err := l.git.RunRaw(ctx, "diff", "--staged")
	if err != nil {
		return fmt.Sprintf("Error getting git diff: %v", err), nil
	}
	return out, nil
}

func (l *Library) gitStatus(ctx context.Context, _ noArgs) (string, error) {
	out, err := l.git.RunRaw(ctx, "status", "--short")
	if err != nil {
		return fmt.Sprintf("Error getting git status: %v", err), nil
	}
	return out, nil
}

// TestFileFor returns the _test.go companion of a Go source file
func TestFileFor(source string) string {
	if strings.HasSuffix(source, "_test.go") {
		return source
	}
	return strings.TrimSuffix(source, ".go") + "_test.go"
}

func (l *Library) checkTestExists(_ context.Context, args sourceFileArgs) (string, error) {
	testPath := TestFileFor(args.SourceFile)
	if _, err := os.Stat(l.resolve(testPath)); err == nil {
		return toJSON(map[string]any{"exists": true, "path": testPath}), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Sprintf("Error checking test file: %v", err), nil
	}
	return toJSON(map[string]any{"exists": false, "suggested_path": testPath}), nil
}

type projectStructure struct {
	Root        string   `json:"root"`
	Directories []string `json:"directories"`
	GoFiles     []string `json:"go_files"`
}

func (l *Library) projectStructure(_ context.Context, args structureArgs) (string, error) {
	root := args.RootDir
	if root == "" {
		root = "."
	}
	path := l.resolve(root)
	if !isDir(path) {
		return fmt.Sprintf("Error getting project structure: Directory %s does not exist.", root), nil
	}

	s := projectStructure{Root: root, Directories: []string{}, GoFiles: []string{}}
	err := walk(path,
		func(rel string) { s.Directories = append(s.Directories, rel) },
		func(rel string) {
			if strings.HasSuffix(rel, ".go") {
				s.GoFiles = append(s.GoFiles, rel)
			}
		})
	if err != nil {
		return fmt.Sprintf("Error getting project structure: %v", err), nil
	}
	return toIndentedJSON(s), nil
}
