package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/mockup/pkg/naming"
	"github.com/matzehuels/mockup/pkg/templates"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// OptionListModel - Interactive option group selection
// =============================================================================

// OptionListModel is the bubbletea model for picking one "*" option group.
type OptionListModel struct {
	Options  []string
	Current  string
	Cursor   int
	Selected string
}

// NewOptionListModel creates an option list with the cursor on current.
func NewOptionListModel(options []string, current string) OptionListModel {
	m := OptionListModel{Options: options, Current: current}
	for i, o := range options {
		if o == current {
			m.Cursor = i
		}
	}
	return m
}

func (m OptionListModel) Init() tea.Cmd {
	return nil
}

func (m OptionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Options)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Options) > 0 {
				m.Selected = m.Options[m.Cursor]
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m OptionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Option"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, o := range m.Options {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		marker := " "
		if o == m.Current {
			marker = StyleSuccess.Render("●")
		}
		line := fmt.Sprintf("%s%s %s", cursor, marker, naming.DisplayName(strings.TrimLeft(o, "*")))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Template Table
// =============================================================================

// renderTemplateTable renders template summaries as a bordered table.
func renderTemplateTable(list []templates.Summary) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, len(list))
	for i, s := range list {
		preview := s.Preview
		if preview == "" {
			preview = "-"
		}
		rows[i] = []string{s.ID, s.Name, preview}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Preview").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 2:
				return listDimStyle
			}
			return listNormalStyle
		})
	return t.Render()
}
