package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type workDoneMsg struct {
	err error
}

type spinnerModel struct {
	spinner spinner.Model
	title   string
	work    func() error
	err     error
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	work := m.work
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return workDoneMsg{err: work()}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.err = ErrCanceled
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// WithSpinner runs work while showing a spinner. Without a terminal it logs
// the title once and runs work directly.
func WithSpinner(splog *Splog, title string, work func() error) error {
	if !IsTTY() || os.Getenv("SARATHI_TEST_NO_INTERACTIVE") != "" {
		splog.Info(ColorGreen(title))
		return work()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	final, err := tea.NewProgram(spinnerModel{spinner: s, title: title, work: work}, tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return err
	}
	return final.(spinnerModel).err
}
