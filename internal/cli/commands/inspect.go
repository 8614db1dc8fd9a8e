package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [schema]",
		Short: "Browse a schema's parameters in a terminal UI",
		Long: `Open an interactive table of every parameter and source of a schema.

Keys:
  up/down   move
  tab       switch between parameters and sources
  enter     show details of the selected row
  r         reload the schema from disk
  q         quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args)
		},
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{noHistory: true})
	if err != nil {
		return err
	}
	defer cleanup()

	file, err := pickSchema(cmdCtx.Engine, args)
	if err != nil {
		return err
	}
	load := func() (*core.Document, error) {
		res, err := cmdCtx.Engine.Load(context.Background(), file)
		if err != nil {
			return nil, err
		}
		if err := emit.CheckDocument(res.Doc); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		return res.Doc, nil
	}
	doc, err := load()
	if err != nil {
		return err
	}

	p := tea.NewProgram(newInspectModel(doc, load), tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	_, err = p.Run()
	return err
}

type inspectView int

const (
	viewParams inspectView = iota
	viewSources
)

var (
	inspectBase = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	inspectTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Padding(0, 1)

	inspectHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	inspectDetail = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("75")).
			Padding(0, 2).
			MarginLeft(2)

	inspectKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	inspectErr = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)
)

type inspectModel struct {
	table   table.Model
	doc     *core.Document
	load    func() (*core.Document, error)
	view    inspectView
	details bool
	err     error
}

func newInspectModel(doc *core.Document, load func() (*core.Document, error)) inspectModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("99"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := inspectModel{table: t, doc: doc, load: load}
	m.fill()
	return m
}

// fill loads the rows of the current view into the table.
func (m *inspectModel) fill() {
	// Columns first so rows never outnumber them.
	m.table.SetRows(nil)
	if m.view == viewSources {
		m.table.SetColumns([]table.Column{
			{Title: "ID", Width: 4},
			{Title: "PATH", Width: 36},
			{Title: "NAME", Width: 22},
			{Title: "RANGE", Width: 6},
		})
		rows := make([]table.Row, len(m.doc.Sources))
		for i, s := range m.doc.Sources {
			rows[i] = table.Row{strconv.Itoa(s.ID), s.Path, s.Name, sourceRange(s)}
		}
		m.table.SetRows(rows)
	} else {
		m.table.SetColumns([]table.Column{
			{Title: "ID", Width: 4},
			{Title: "PATH", Width: 36},
			{Title: "NAME", Width: 22},
			{Title: "DEFAULT", Width: 8},
			{Title: "STEPS", Width: 6},
		})
		rows := make([]table.Row, len(m.doc.Params))
		for i, p := range m.doc.Params {
			rows[i] = table.Row{strconv.Itoa(p.ID), p.Path, p.Name, p.Default, p.Steps}
		}
		m.table.SetRows(rows)
	}
	m.table.SetCursor(0)
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.view = 1 - m.view
			m.details = false
			m.fill()
			return m, nil
		case "enter":
			m.details = !m.details
			return m, nil
		case "esc":
			m.details = false
			return m, nil
		case "r":
			doc, err := m.load()
			m.err = err
			if err == nil {
				m.doc = doc
				m.fill()
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m inspectModel) View() string {
	label := fmt.Sprintf("Parameters (%d)", len(m.doc.Params))
	if m.view == viewSources {
		label = fmt.Sprintf("Sources (%d)", len(m.doc.Sources))
	}
	title := inspectTitle.Render(fmt.Sprintf("%s  [%s]  %s", m.doc.Top.Name, m.doc.Interface, label))
	out := title + "\n" + inspectBase.Render(m.table.View()) + "\n"

	if m.details {
		if d := m.detail(); d != "" {
			out += inspectDetail.Render(d) + "\n"
		}
	}
	if m.err != nil {
		out += inspectErr.Render(m.err.Error()) + "\n"
	}
	return out + inspectHelp.Render("↑/↓  move    tab  params/sources    enter  details    r  reload    q  quit")
}

// detail describes the selected row.
func (m inspectModel) detail() string {
	idx := m.table.Cursor()
	var lines [][2]string
	if m.view == viewSources {
		if idx < 0 || idx >= len(m.doc.Sources) {
			return ""
		}
		s := m.doc.Sources[idx]
		lines = [][2]string{
			{"path", s.Path},
			{"identifier", s.Identifier},
			{"short", s.ShortName + " / " + s.ShortIdentifier},
			{"range", sourceRange(s)},
			{"binding", s.Interface},
			{"description", oneLine(s.Description)},
		}
	} else {
		if idx < 0 || idx >= len(m.doc.Params) {
			return ""
		}
		p := m.doc.Params[idx]
		lines = [][2]string{
			{"path", p.Path},
			{"identifier", p.Identifier},
			{"short", p.ShortName + " / " + p.ShortIdentifier},
			{"default", p.Default},
			{"steps", p.Steps},
			{"transform", p.Transform},
			{"format", p.Format},
			{"flags", strings.Join(paramFlags(p), ", ")},
			{"binding", p.Interface},
			{"description", oneLine(p.Description)},
		}
		for _, o := range p.Overlays {
			state := "skipped"
			if o.Applied {
				state = "applied"
			}
			lines = append(lines, [2]string{"overlay", fmt.Sprintf("%s (%s)", o.Condition, state)})
		}
	}

	var b strings.Builder
	for i, l := range lines {
		if l[1] == "" {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(inspectKey.Render(fmt.Sprintf("%-12s", l[0])) + " " + l[1])
	}
	return b.String()
}

func paramFlags(p *core.Parameter) []string {
	var out []string
	if p.Smoothing() {
		out = append(out, "smooth")
	}
	if p.Multiply {
		out = append(out, "multiply")
	}
	if !p.Constrain {
		out = append(out, "unconstrained")
	}
	if p.Modulatable {
		out = append(out, "modulatable")
	}
	if p.Automatable {
		out = append(out, "automatable")
	}
	return out
}
