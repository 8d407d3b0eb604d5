package ui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// Select presents a vertical choice list and returns the chosen option.
func Select(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options to select from")
	}

	m := selectModel{
		title:   title,
		options: options,
	}

	// Use Stderr to avoid polluting stdout
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	fm, ok := finalModel.(selectModel)
	if !ok || !fm.chosen {
		return "", fmt.Errorf("cancelled")
	}
	return fm.options[fm.cursor], nil
}

type selectModel struct {
	title    string
	options  []string
	cursor   int
	chosen   bool
	quitting bool
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.chosen || m.quitting {
		return ""
	}

	s := "\n" + titleStyle.Render(m.title) + "\n\n"
	for i, opt := range m.options {
		if i == m.cursor {
			s += selectedItemStyle.Render("> "+opt) + "\n"
		} else {
			s += itemStyle.Render(opt) + "\n"
		}
	}
	s += quitTextStyle.Render("↑/↓ to move, enter to choose, esc to cancel")
	return s
}
