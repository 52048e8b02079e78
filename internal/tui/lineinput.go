package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Completer returns candidates for the last word of buffer
type Completer func(buffer string) []string

// ApplyCompletion replaces the last whitespace separated word of buffer with
// candidate and appends a space.
func ApplyCompletion(buffer, candidate string) string {
	cut := strings.LastIndexAny(buffer, " \t")
	return buffer[:cut+1] + candidate + " "
}

type lineModel struct {
	input    textinput.Model
	complete Completer
	base     string
	matches  []string
	next     int
	done     bool
	err      error
}

func (m lineModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m lineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC:
			m.err = ErrCanceled
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.err = io.EOF
				m.done = true
				return m, tea.Quit
			}
		case tea.KeyTab:
			return m.cycle(), nil
		}
		m.matches = nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// cycle steps through completion candidates for the word under the cursor
func (m lineModel) cycle() lineModel {
	if m.complete == nil {
		return m
	}
	if m.matches == nil {
		m.base = m.input.Value()
		m.matches = m.complete(m.base)
		m.next = 0
	}
	if len(m.matches) == 0 {
		return m
	}
	m.input.SetValue(ApplyCompletion(m.base, m.matches[m.next]))
	m.input.CursorEnd()
	m.next = (m.next + 1) % len(m.matches)
	return m
}

func (m lineModel) View() string {
	if m.done {
		return m.input.Prompt + m.input.Value() + "\n"
	}
	view := m.input.View()
	if len(m.matches) > 1 {
		shown := m.matches
		if len(shown) > 8 {
			shown = shown[:8]
		}
		view += "\n" + ColorDim(strings.Join(shown, "  "))
	}
	return view
}

// ReadLine reads one line with tab completion. It returns io.EOF on Ctrl+D
// and ErrCanceled on Ctrl+C.
func ReadLine(prompt string, complete Completer) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	ti := textinput.New()
	ti.Prompt = prompt
	ti.Focus()
	ti.Width = TerminalWidth() - len(prompt) - 1

	final, err := tea.NewProgram(lineModel{input: ti, complete: complete}, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout)).Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(lineModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type")
	}
	if m.err != nil {
		return "", m.err
	}
	return m.input.Value(), nil
}
