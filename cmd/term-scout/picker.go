package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/monadic/term-scout/pkg/diagnose"
)

var titleCaser = cases.Title(language.English)

var (
	pickerHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	pickerSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	pickerDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
)

type pickerKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Quit  key.Binding
}

func defaultPickerKeyMap() pickerKeyMap {
	return pickerKeyMap{
		Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "diagnose")),
		Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// pickerRecordsMsg delivers the scan results to the model.
type pickerRecordsMsg struct {
	records []diagnose.TerminatingResource
}

// pickerModel is the interactive list of terminating resources. The scan
// runs as a command while the spinner shows; the chosen record is diagnosed
// on stdout after the TUI exits.
type pickerModel struct {
	contextName string
	loadRecords tea.Cmd

	spinner spinner.Model
	keymap  pickerKeyMap
	loading bool
	records []diagnose.TerminatingResource
	cursor  int
	choice  *diagnose.TerminatingResource
	width   int
	height  int
}

func initialPickerModel(ctx context.Context, reporter *diagnose.Reporter, contextName string) pickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return pickerModel{
		contextName: contextName,
		loadRecords: func() tea.Msg {
			// Records without a name cannot be diagnosed, so they are not offered.
			var records []diagnose.TerminatingResource
			for _, rec := range reporter.ScanTerminating(ctx) {
				if rec.Name != "" {
					records = append(records, rec)
				}
			}
			return pickerRecordsMsg{records: records}
		},
		spinner: s,
		keymap:  defaultPickerKeyMap(),
		loading: true,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadRecords,
	)
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pickerRecordsMsg:
		m.loading = false
		m.records = msg.records
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keymap.Down):
			if m.cursor < len(m.records)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keymap.Enter):
			if !m.loading && len(m.records) > 0 {
				choice := m.records[m.cursor]
				m.choice = &choice
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder

	title := titleCaser.String("terminating resources")
	if m.contextName != "" {
		title += " " + pickerDimStyle.Render("("+m.contextName+")")
	}
	b.WriteString(pickerHeaderStyle.Render(title) + "\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " Scanning for terminating resources...\n")
		return b.String()
	}

	if len(m.records) == 0 {
		b.WriteString("No resources in Terminating state found.\n\n")
		b.WriteString(pickerDimStyle.Render("Press q to quit"))
		return b.String()
	}

	for i, rec := range m.records {
		line := fmt.Sprintf("%s/%s", rec.Kind, rec.Name)
		if rec.Namespace != "" {
			line += fmt.Sprintf(" (ns: %s)", rec.Namespace)
		}
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + pickerDimStyle.Render("↑/k up  ↓/j down  enter diagnose  q quit"))
	return b.String()
}

// runPicker scans inside the TUI, lets the user choose one record, then
// prints the standard diagnosis for the choice after the screen is restored.
func runPicker(ctx context.Context, reporter *diagnose.Reporter, contextName string) error {
	p := tea.NewProgram(initialPickerModel(ctx, reporter, contextName), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if fm, ok := finalModel.(pickerModel); ok && fm.choice != nil {
		reporter.DiagnoseRecord(ctx, *fm.choice)
	}
	return nil
}
