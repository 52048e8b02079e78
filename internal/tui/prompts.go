package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInteractiveDisabled is returned when interactive prompts are disabled via SARATHI_TEST_NO_INTERACTIVE
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled (SARATHI_TEST_NO_INTERACTIVE is set)")

// ErrCanceled is returned when the user aborts a prompt
var ErrCanceled = errors.New("canceled")

func checkInteractiveAllowed() error {
	if os.Getenv("SARATHI_TEST_NO_INTERACTIVE") != "" {
		return ErrInteractiveDisabled
	}
	return nil
}

var (
	promptFrame = lipgloss.NewStyle().Margin(1, 0)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

type textInputModel struct {
	input  textinput.Model
	prompt string
	done   bool
	err    error
}

func (m textInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.err = ErrCanceled
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m textInputModel) View() string {
	if m.done {
		return ""
	}
	return promptFrame.Render(fmt.Sprintf("%s\n%s\n\n%s", m.prompt, m.input.View(), hintStyle.Render("(Enter to submit, Ctrl+C to cancel)")))
}

// PromptTextInput asks for a single line of text
func PromptTextInput(prompt, defaultValue string) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	ti := textinput.New()
	ti.SetValue(defaultValue)
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 80

	final, err := tea.NewProgram(textInputModel{input: ti, prompt: prompt}, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout)).Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(textInputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type")
	}
	if m.err != nil {
		return "", m.err
	}
	return m.input.Value(), nil
}

type confirmModel struct {
	prompt string
	choice bool
	done   bool
	err    error
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	case tea.KeyCtrlC, tea.KeyEsc:
		m.err = ErrCanceled
		m.done = true
		return m, tea.Quit
	case tea.KeyRunes:
		switch strings.ToLower(string(key.Runes)) {
		case "y":
			m.choice, m.done = true, true
			return m, tea.Quit
		case "n":
			m.choice, m.done = false, true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	yesNo := "[y/N]"
	if m.choice {
		yesNo = "[Y/n]"
	}
	return promptFrame.Render(fmt.Sprintf("%s %s", m.prompt, yesNo))
}

// PromptConfirm asks a yes/no question
func PromptConfirm(prompt string, defaultValue bool) (bool, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return false, err
	}

	final, err := tea.NewProgram(confirmModel{prompt: prompt, choice: defaultValue}, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout)).Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type")
	}
	if m.err != nil {
		return false, m.err
	}
	return m.choice, nil
}

// AskYesNo reads one line from in and returns true only for "y" or "yes".
// It is the line-oriented counterpart of PromptConfirm for pipes and tests.
func AskYesNo(in io.Reader, out io.Writer, prompt string) (bool, error) {
	_, _ = fmt.Fprintf(out, "%s %s: ", prompt, ColorGreen("y/n"))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// SelectOption represents an option in a selection prompt
type SelectOption struct {
	Label string
	Value string
}

// SelectModel is a selection prompt with arrow key navigation
type SelectModel struct {
	Options  []SelectOption
	Cursor   int
	Selected string
	Done     bool
	Err      error
	Title    string
}

// Init initializes the bubbletea model
func (m SelectModel) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and records the choice on Enter
func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Options) == 0 {
		return m, nil
	}
	switch key.Type {
	case tea.KeyEnter:
		m.Selected = m.Options[m.Cursor].Value
		m.Done = true
		return m, tea.Quit
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Err = ErrCanceled
		m.Done = true
		return m, tea.Quit
	case tea.KeyUp, tea.KeyShiftTab:
		m.Cursor = (m.Cursor - 1 + len(m.Options)) % len(m.Options)
	case tea.KeyDown, tea.KeyTab:
		m.Cursor = (m.Cursor + 1) % len(m.Options)
	}
	return m, nil
}

// View renders the options
func (m SelectModel) View() string {
	if m.Done {
		return ""
	}

	var b strings.Builder
	b.WriteString(Bold(m.Title))
	b.WriteString("\n\n")
	for i, opt := range m.Options {
		if i == m.Cursor {
			fmt.Fprintf(&b, "  → %s\n", cursorStyle.Render(opt.Label))
		} else {
			fmt.Fprintf(&b, "    %s\n", opt.Label)
		}
	}
	b.WriteString(hintStyle.Render("\n(↑/↓ to select, Enter to confirm, Ctrl+C to cancel)"))
	return promptFrame.Render(b.String())
}

// PromptSelect asks the user to pick one option and returns its value
func PromptSelect(title string, options []SelectOption, defaultIndex int) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}
	if defaultIndex < 0 || defaultIndex >= len(options) {
		defaultIndex = 0
	}

	final, err := tea.NewProgram(SelectModel{Options: options, Cursor: defaultIndex, Title: title}, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout)).Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(SelectModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type")
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Selected, nil
}
