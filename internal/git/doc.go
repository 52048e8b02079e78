// Package git provides the git operations sarathi needs.
//
// Repository discovery and staged-file listing use go-git. Diffs, status and
// commits shell out to the git binary so hooks and user configuration apply.
//
// This package should be the only place where direct git commands are executed.
package git
