// Package docgen writes Go doc comments for functions and methods with the
// update_docstrings agent.
package docgen

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abhishek9sharma/sarathi/internal/tui"
)

// ModelCaller makes one-shot system+user calls. *llm.Client implements it.
type ModelCaller interface {
	CallModel(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// Options tunes a Generator
type Options struct {
	// Overwrite regenerates comments for functions that already have one.
	Overwrite bool
	// MaxConcurrency bounds simultaneous model calls per file.
	MaxConcurrency int
}

// Generator adds doc comments to Go source files
type Generator struct {
	caller ModelCaller
	prompt string
	splog  *tui.Splog
	opts   Options
}

// New creates a Generator. prompt is the system prompt sent with every function.
func New(caller ModelCaller, prompt string, splog *tui.Splog, opts Options) *Generator {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	return &Generator{caller: caller, prompt: prompt, splog: splog, opts: opts}
}

type target struct {
	name  string
	start int // offset where the new comment goes (existing doc start or func start)
	end   int // offset of the func keyword
	src   string
	keep  []string // directive lines kept when an existing comment is replaced
	lines []string
}

// ProcessFile documents one file and returns how many comments were written
func (g *Generator) ProcessFile(ctx context.Context, path string) (int, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	targets := g.findTargets(fset, file, src)
	if len(targets) == 0 {
		return 0, nil
	}

	var mu sync.Mutex
	done := make([]*target, 0, len(targets))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.MaxConcurrency)
	for _, t := range targets {
		eg.Go(func() error {
			answer, err := g.caller.CallModel(egCtx, g.prompt, t.src)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				g.splog.Warn("Failed to document %s in %s: %v", t.name, path, err)
				return nil
			}
			t.lines = Sanitize(answer, t.name)
			if len(t.lines) == 0 {
				g.splog.Warn("Empty doc comment for %s in %s, skipping", t.name, path)
				return nil
			}
			mu.Lock()
			done = append(done, t)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	if len(done) == 0 {
		return 0, nil
	}

	out, err := apply(src, done)
	if err != nil {
		return 0, fmt.Errorf("failed to format %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return len(done), nil
}

// ProcessDir documents every Go file below dir
func (g *Generator) ProcessDir(ctx context.Context, dir string) (int, error) {
	files, err := CollectFiles(dir)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, f := range files {
		g.splog.Info("Generating docstrings for file %s", f)
		n, err := g.ProcessFile(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			g.splog.Error("%v", err)
			continue
		}
		total += n
	}
	return total, nil
}

func (g *Generator) findTargets(fset *token.FileSet, file *ast.File, src []byte) []*target {
	tf := fset.File(file.Pos())
	var targets []*target
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fn.Doc != nil && strings.TrimSpace(fn.Doc.Text()) != "" && !g.opts.Overwrite {
			continue
		}

		funcStart := tf.Offset(fn.Pos())
		t := &target{
			name:  fn.Name.Name,
			start: lineStart(src, funcStart),
			end:   funcStart,
			src:   string(src[funcStart:tf.Offset(fn.End())]),
		}
		if fn.Doc != nil {
			t.start = lineStart(src, tf.Offset(fn.Doc.Pos()))
			for _, c := range fn.Doc.List {
				if isDirective(c.Text) {
					t.keep = append(t.keep, c.Text)
				}
			}
		}
		targets = append(targets, t)
	}
	return targets
}

// apply splices the comments in from the end of the file backwards so that
// earlier offsets stay valid, then gofmts the result.
func apply(src []byte, targets []*target) ([]byte, error) {
	sort.Slice(targets, func(i, j int) bool { return targets[i].start > targets[j].start })

	out := append([]byte(nil), src...)
	for _, t := range targets {
		var buf bytes.Buffer
		for _, l := range t.lines {
			if l == "" {
				buf.WriteString("//\n")
				continue
			}
			buf.WriteString("// " + l + "\n")
		}
		for _, k := range t.keep {
			buf.WriteString(k + "\n")
		}
		buf.Write(src[lineStart(src, t.end):t.end])

		spliced := make([]byte, 0, len(out)+buf.Len())
		spliced = append(spliced, out[:t.start]...)
		spliced = append(spliced, buf.Bytes()...)
		spliced = append(spliced, out[t.end:]...)
		out = spliced
	}
	return format.Source(out)
}

func lineStart(src []byte, offset int) int {
	return bytes.LastIndexByte(src[:offset], '\n') + 1
}

func isDirective(text string) bool {
	return strings.HasPrefix(text, "//go:") || strings.HasPrefix(text, "//lint:") || strings.HasPrefix(text, "//nolint")
}

// CollectFiles lists Go sources below dir, skipping tests, vendor, testdata
// and hidden directories.
func CollectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

// IsSourceFile reports whether path is a non-test Go file
func IsSourceFile(path string) bool {
	return strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")
}
