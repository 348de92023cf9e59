package compare

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ReportFile is the name the interactive view saves Markdown under.
const ReportFile = "perfpanel-comparison.md"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	improvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	worseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cellStyle     = lipgloss.NewStyle().PaddingRight(4)
)

type keyMap struct {
	Detail key.Binding
	Save   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Detail, k.Save, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Detail: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "toggle detail")),
	Save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save markdown")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ResultsModel is the interactive comparison view.
type ResultsModel struct {
	report   Report
	dir      string
	detail   bool
	help     help.Model
	quitting bool
	Saved    bool
	SaveMsg  string
}

// NewResultsModel creates a view over r. Saved reports go to dir.
func NewResultsModel(r Report, dir string) ResultsModel {
	return ResultsModel{report: r, dir: dir, help: help.New()}
}

// Run shows the view until the user quits.
func Run(r Report, dir string) error {
	if _, err := tea.NewProgram(NewResultsModel(r, dir)).Run(); err != nil {
		return fmt.Errorf("comparison view: %w", err)
	}
	return nil
}

func (m ResultsModel) Init() tea.Cmd { return nil }

func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Detail):
			m.detail = !m.detail
		case key.Matches(msg, keys.Save):
			if !m.Saved {
				path := filepath.Join(m.dir, ReportFile)
				if err := os.WriteFile(path, []byte(GenerateMarkdownTable(m.report)), 0o644); err != nil {
					m.SaveMsg = fmt.Sprintf("Error saving: %v", err)
				} else {
					m.Saved = true
					m.SaveMsg = fmt.Sprintf("Saved to %s", path)
				}
			}
		}
	}
	return m, nil
}

type cell struct {
	content string
	style   lipgloss.Style
}

func (m ResultsModel) View() string {
	if m.quitting {
		return ""
	}

	deltas := m.report.Deltas
	if !m.detail {
		deltas = Core(deltas)
	}

	plain := lipgloss.NewStyle()
	grid := [][]cell{{
		{content: "Metric", style: plain},
		{content: m.report.BeforeLabel, style: headerStyle},
		{content: m.report.AfterLabel, style: headerStyle},
		{content: "Change", style: headerStyle},
	}}
	for _, d := range deltas {
		changeStyle := mutedStyle
		switch d.Verdict() {
		case VerdictImproved:
			changeStyle = improvedStyle
		case VerdictWorse:
			changeStyle = worseStyle
		}
		grid = append(grid, []cell{
			{content: d.Metric.Label, style: plain},
			{content: d.BeforeText(), style: plain},
			{content: d.AfterText(), style: plain},
			{content: d.ChangeText(), style: changeStyle},
		})
	}

	colWidths := make([]int, 4)
	for _, row := range grid {
		for i, c := range row {
			if w := lipgloss.Width(c.content); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	var s strings.Builder
	s.WriteString("\n")
	s.WriteString(titleStyle.Render(" Performance Comparison "))
	s.WriteString("\n\n")

	for _, row := range grid {
		for i, c := range row {
			s.WriteString(c.style.Inherit(cellStyle).Width(colWidths[i] + cellStyle.GetPaddingRight()).Render(c.content))
		}
		s.WriteString("\n")
	}

	if n := m.report.Regressions(); n > 0 {
		s.WriteString("\n" + worseStyle.Render(fmt.Sprintf("%d metric(s) regressed", n)) + "\n")
	}
	if m.SaveMsg != "" {
		s.WriteString("\n" + m.SaveMsg + "\n")
	}
	s.WriteString("\n" + m.help.View(keys) + "\n")

	return s.String()
}
