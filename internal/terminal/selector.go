package terminal

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles for the selector UI.
var (
	selectorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15"))

	selectorItemStyle = lipgloss.NewStyle().
				PaddingLeft(2)

	selectorCursorStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("236"))

	selectorCheckboxSelected   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[x]")
	selectorCheckboxUnselected = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("[ ]")
	selectorCheckboxDisabled   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("[-]")

	selectorDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8"))

	selectorHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8"))
)

// ErrNotInteractive is returned by RunSelector when stdin is not a terminal.
var ErrNotInteractive = errors.New("interactive selection requires a terminal")

// SelectorItem is one selectable row.
type SelectorItem struct {
	Label  string
	Detail string
	// Disabled rows are shown but cannot be selected.
	Disabled bool
}

// SelectorModel is the bubbletea model for the interactive target selector.
type SelectorModel struct {
	items     []SelectorItem
	selected  map[int]bool
	cursor    int
	confirmed bool
	quitted   bool
}

// NewSelector creates a selector with every enabled item selected.
func NewSelector(items []SelectorItem) SelectorModel {
	selected := make(map[int]bool, len(items))
	for i, item := range items {
		if !item.Disabled {
			selected[i] = true
		}
	}
	return SelectorModel{
		items:    items,
		selected: selected,
	}
}

// Init implements tea.Model.
func (m SelectorModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case " ":
			if m.cursor < len(m.items) && !m.items[m.cursor].Disabled {
				m.selected[m.cursor] = !m.selected[m.cursor]
			}
		case "a":
			for i, item := range m.items {
				if !item.Disabled {
					m.selected[i] = true
				}
			}
		case "n":
			for i := range m.items {
				m.selected[i] = false
			}
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.quitted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m SelectorModel) View() string {
	if len(m.items) == 0 {
		return "No agents to select.\n"
	}

	var b strings.Builder

	b.WriteString(selectorTitleStyle.Render("Select agents to run"))
	b.WriteString("\n\n")

	for i, item := range m.items {
		checkbox := selectorCheckboxUnselected
		switch {
		case item.Disabled:
			checkbox = selectorCheckboxDisabled
		case m.selected[i]:
			checkbox = selectorCheckboxSelected
		}

		row := fmt.Sprintf("%s %s", checkbox, item.Label)
		if item.Detail != "" {
			row += " " + selectorDetailStyle.Render("("+item.Detail+")")
		}

		if i == m.cursor {
			b.WriteString(selectorCursorStyle.Render(row))
		} else {
			b.WriteString(selectorItemStyle.Render(row))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "↑/↓ navigate • space toggle • a all • n none • enter run • q quit"
	b.WriteString(selectorHelpStyle.Render(help))
	b.WriteString("\n")

	return b.String()
}

// SelectedIndices returns the indices of selected items in sorted order.
func (m SelectorModel) SelectedIndices() []int {
	indices := make([]int, 0, len(m.selected))
	for i, sel := range m.selected {
		if sel {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	return indices
}

// Confirmed returns true if the user confirmed the selection.
func (m SelectorModel) Confirmed() bool {
	return m.confirmed
}

// Quitted returns true if the user quit without confirming.
func (m SelectorModel) Quitted() bool {
	return m.quitted
}

// RunSelector runs the interactive selector. It returns the selected indices,
// nil when the user quit, or an error when stdin is not a terminal.
func RunSelector(items []SelectorItem) ([]int, error) {
	if !IsStdinTTY() {
		return nil, ErrNotInteractive
	}
	if len(items) == 0 {
		return []int{}, nil
	}

	p := tea.NewProgram(NewSelector(items), tea.WithOutput(os.Stderr))

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("selector UI error: %w", err)
	}

	m, ok := finalModel.(SelectorModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}

	if m.Quitted() {
		return nil, nil
	}
	return m.SelectedIndices(), nil
}
