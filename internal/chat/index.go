package chat

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abhishek9sharma/sarathi/internal/tools"
)

// extra directories skipped by the project index on top of tools.IgnoredDirs
var indexIgnoredDirs = map[string]bool{
	"build":   true,
	".github": true,
}

var binaryExtensions = map[string]bool{
	".pyc": true, ".pyo": true, ".pyd": true, ".so": true, ".dll": true,
	".exe": true, ".DS_Store": true, ".o": true, ".bin": true, ".a": true,
	".test": true, ".out": true,
}

// ProjectIndex lists the files of a project for @-completion
type ProjectIndex struct {
	root   string
	files  []string
	byName map[string][]string
}

// BuildIndex walks root and records every non-binary file outside ignored
// directories. Paths are relative to root with forward slashes.
func BuildIndex(root string) (*ProjectIndex, error) {
	idx := &ProjectIndex{root: root, byName: map[string][]string{}}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (tools.IgnoredDirs[d.Name()] || indexIgnoredDirs[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		ext := filepath.Ext(name)
		if binaryExtensions[ext] || binaryExtensions[name] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		idx.files = append(idx.files, rel)
		idx.byName[name] = append(idx.byName[name], rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Len returns the number of indexed files
func (idx *ProjectIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.files)
}

// Files returns indexed paths
func (idx *ProjectIndex) Files() []string {
	return append([]string(nil), idx.files...)
}

// MentionCandidates returns "@path" completions for query: files whose name
// starts with query come first, then paths containing it. The result is sorted
// by directory depth, then path.
func (idx *ProjectIndex) MentionCandidates(query string) []string {
	if idx == nil {
		return nil
	}
	query = strings.ToLower(query)
	seen := map[string]bool{}
	var options []string

	for name, paths := range idx.byName {
		if !strings.HasPrefix(strings.ToLower(name), query) {
			continue
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				options = append(options, p)
			}
		}
	}
	for _, p := range idx.files {
		if !seen[p] && strings.Contains(strings.ToLower(p), query) {
			seen[p] = true
			options = append(options, p)
		}
	}

	sort.Slice(options, func(i, j int) bool {
		di, dj := strings.Count(options[i], "/"), strings.Count(options[j], "/")
		if di != dj {
			return di < dj
		}
		return strings.ToLower(options[i]) < strings.ToLower(options[j])
	})
	for i, o := range options {
		options[i] = "@" + o
	}
	return options
}

// Complete is the line editor completer: @-mentions complete against the
// index and a leading slash completes commands.
func (idx *ProjectIndex) Complete(buffer string) []string {
	word := buffer[strings.LastIndexAny(buffer, " \t")+1:]
	if at := strings.LastIndex(word, "@"); at >= 0 {
		return idx.MentionCandidates(word[at+1:])
	}
	if strings.HasPrefix(strings.TrimLeft(buffer, " "), "/") && !strings.ContainsAny(strings.TrimLeft(buffer, " "), " \t") {
		var out []string
		for _, c := range commandNames {
			if strings.HasPrefix(c, strings.ToLower(word)) {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}
