package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/xvierd/mootimer/internal/domain"
)

// maxPickerRows bounds how many candidates the picker shows at once.
const maxPickerRows = 8

// TaskPickerResult holds the outcome of a picker interaction.
type TaskPickerResult struct {
	Task    *domain.Task
	Aborted bool
}

// taskSource adapts a task list for fuzzy matching over titles.
type taskSource []*domain.Task

func (s taskSource) String(i int) string { return s[i].Title }
func (s taskSource) Len() int            { return len(s) }

type pickerModel struct {
	tasks   taskSource
	matches fuzzy.Matches
	input   textinput.Model
	cursor  int
	chosen  bool
	aborted bool
	colors  palette
}

func newPickerModel(tasks []*domain.Task) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.CharLimit = 80
	ti.Width = 40
	ti.Focus()

	m := pickerModel{
		tasks:  taskSource(tasks),
		input:  ti,
		colors: defaultPalette(),
	}
	m.refilter()
	return m
}

// refilter recomputes the candidate list for the current query. An empty
// query lists every task in its given order.
func (m *pickerModel) refilter() {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		m.matches = make(fuzzy.Matches, len(m.tasks))
		for i := range m.tasks {
			m.matches[i] = fuzzy.Match{Str: m.tasks[i].Title, Index: i}
		}
	} else {
		m.matches = fuzzy.FindFrom(query, m.tasks)
	}
	if m.cursor >= len(m.matches) {
		m.cursor = 0
	}
}

func (m pickerModel) Init() tea.Cmd { return textinput.Blink }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+j":
			limit := len(m.matches)
			if limit > maxPickerRows {
				limit = maxPickerRows
			}
			if m.cursor < limit-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if len(m.matches) > 0 {
				m.chosen = true
				return m, tea.Quit
			}
			return m, nil
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refilter()
	return m, cmd
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(m.colors.title.Render("  pick a task") + " ")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.matches) == 0 {
		b.WriteString(m.colors.dim.Render("  no matching tasks") + "\n")
	}

	shown := m.matches
	if len(shown) > maxPickerRows {
		shown = shown[:maxPickerRows]
	}
	for i, match := range shown {
		task := m.tasks[match.Index]
		line := fmt.Sprintf("%s  %s", m.highlight(match), m.colors.dim.Render(string(task.Status)))
		if i == m.cursor {
			b.WriteString("  " + m.colors.active.Render("▸") + " " + line + "\n")
		} else {
			b.WriteString("    " + line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.colors.dim.Render("  ↑/↓ navigate · enter select · esc back") + "\n")
	return b.String()
}

// highlight renders a match title with the fuzzy-matched runes emphasized.
func (m pickerModel) highlight(match fuzzy.Match) string {
	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder
	for i, ch := range match.Str {
		if matched[i] {
			b.WriteString(m.colors.active.Render(string(ch)))
		} else {
			b.WriteString(string(ch))
		}
	}
	return b.String()
}

// RunTaskPicker launches a fuzzy-filterable task picker and returns the
// selected task, or an aborted result on escape.
func RunTaskPicker(tasks []*domain.Task) TaskPickerResult {
	p := tea.NewProgram(newPickerModel(tasks))
	result, err := p.Run()
	if err != nil {
		return TaskPickerResult{Aborted: true}
	}

	final := result.(pickerModel)
	if final.aborted || !final.chosen || len(final.matches) == 0 {
		return TaskPickerResult{Aborted: true}
	}
	return TaskPickerResult{Task: final.tasks[final.matches[final.cursor].Index]}
}
