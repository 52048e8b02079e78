package chat

import (
	"fmt"
	"sync"

	"github.com/AlecAivazis/survey/v2"
)

// Decision is the user's answer to a permission request
type Decision int

// Permission answers
const (
	Deny Decision = iota
	Allow
	AlwaysAllowTool
	AllowSession
)

var decisionLabels = []struct {
	label    string
	decision Decision
}{
	{"Yes (Allow)", Allow},
	{"No (Deny)", Deny},
	{"Always allow for this tool", AlwaysAllowTool},
	{"Allow session (all tools)", AllowSession},
}

// AskFunc asks the user whether tool may run with args
type AskFunc func(tool, args string) (Decision, error)

// Permissions tracks which sensitive tools the user has approved
type Permissions struct {
	mu        sync.Mutex
	sensitive func(name string) bool
	ask       AskFunc
	always    map[string]bool
	session   bool
}

// NewPermissions creates a permission gate; only tools for which sensitive
// returns true are asked about.
func NewPermissions(sensitive func(string) bool, ask AskFunc) *Permissions {
	if ask == nil {
		ask = SurveyAsk
	}
	return &Permissions{sensitive: sensitive, ask: ask, always: map[string]bool{}}
}

// Confirm implements llm.ConfirmFunc
func (p *Permissions) Confirm(tool, args string) bool {
	if !p.sensitive(tool) {
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session || p.always[tool] {
		return true
	}

	decision, err := p.ask(tool, args)
	if err != nil {
		return false
	}
	switch decision {
	case Allow:
		return true
	case AlwaysAllowTool:
		p.always[tool] = true
		return true
	case AllowSession:
		p.session = true
		return true
	default:
		return false
	}
}

// Reset forgets every approval
func (p *Permissions) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.always = map[string]bool{}
	p.session = false
}

// SurveyAsk is the interactive AskFunc
func SurveyAsk(tool, args string) (Decision, error) {
	fmt.Printf("\nPermission Request\nAgent wants to execute: %s\nArguments: %s\n", tool, args)

	options := make([]string, len(decisionLabels))
	for i, d := range decisionLabels {
		options[i] = d.label
	}
	var choice string
	prompt := &survey.Select{
		Message: fmt.Sprintf("Allow %s to execute?", tool),
		Options: options,
		Default: options[0],
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return Deny, err
	}
	for _, d := range decisionLabels {
		if d.label == choice {
			return d.decision, nil
		}
	}
	return Deny, nil
}
