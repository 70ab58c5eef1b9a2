package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jusunglee/uzscript/internal/transliteration"
)

var directionCycle = []transliteration.Direction{
	transliteration.Auto,
	transliteration.LatinToCyrillic,
	transliteration.CyrillicToLatin,
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	outputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

type model struct {
	input  textarea.Model
	dir    transliteration.Direction
	result transliteration.Result
	width  int
}

func newModel(dir transliteration.Direction) model {
	ta := textarea.New()
	ta.Placeholder = "Matn kiriting / Матн киритинг..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(72)
	ta.SetHeight(6)
	ta.Focus()

	return model{input: ta, dir: dir, width: 76}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.dir = nextDirection(m.dir)
			m.refresh()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 20)
		m.input.SetWidth(m.width - 4)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refresh()
	return m, cmd
}

func (m *model) refresh() {
	m.result = transliteration.TransliterateDetailed(m.input.Value(), m.dir)
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("O'zbek ⇄ Ўзбек"))
	s.WriteString("\n")
	s.WriteString(m.input.View())
	s.WriteString("\n\n")
	s.WriteString(outputStyle.Width(m.width).Render(m.result.Text))
	s.WriteString("\n")
	s.WriteString(statusLine(m.dir, m.result))
	s.WriteString("\n")
	s.WriteString(subtleStyle.Render("tab=direction • esc/ctrl+c=quit"))

	return s.String()
}

func nextDirection(d transliteration.Direction) transliteration.Direction {
	for i, c := range directionCycle {
		if c == d {
			return directionCycle[(i+1)%len(directionCycle)]
		}
	}
	return transliteration.Auto
}

// statusLine shows the selected direction and, in auto mode, the one
// detection resolved to.
func statusLine(selected transliteration.Direction, res transliteration.Result) string {
	label := activeStyle.Render(selected.String())
	if selected == transliteration.Auto && res.Text != "" {
		label += subtleStyle.Render(fmt.Sprintf(" (%s)", res.Direction))
	}
	if res.Spans > 0 {
		label += subtleStyle.Render(fmt.Sprintf(" • %d markup spans kept", res.Spans))
	}
	return "Direction: " + label
}
