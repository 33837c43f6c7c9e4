package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/maruel/natural"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listFocusStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// focusCommand creates the focus command, an interactive picker that
// re-roots the tree on the chosen person.
func (c *CLI) focusCommand() *cobra.Command {
	var (
		flags    treeFlags
		output   string
		protocol string
	)

	cmd := &cobra.Command{
		Use:   "focus [family.json]",
		Short: "Pick the person to centre the tree on",
		Long: `Browse the people of a family and re-root the layout on the selected
person. The generation rows of the current layout are shown under the list.

With --output the final layout is drawn there when you quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, &flags)
			opts.ProtocolKey = protocol
			if len(args) == 1 {
				opts.Input = args[0]
			}
			return c.runFocus(cmd.Context(), opts, output)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "draw the chosen layout to this file on exit (format from extension)")
	cmd.Flags().StringVarP(&protocol, "protocol", "p", "", "protocol key of the family to browse")
	return cmd
}

func (c *CLI) runFocus(ctx context.Context, opts pipeline.Options, output string) error {
	runner, err := c.openRunner(ctx, opts, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	fam, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	engineOpts, err := pipeline.EngineOptions(opts)
	if err != nil {
		return err
	}

	model := newFocusModel(fam.People, layout.NewController(engineOpts...))
	final, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	m := final.(focusModel)
	if m.ctrl.Focus() == "" {
		printInfo("No focus chosen")
	} else {
		printSuccess("Focus: %s", m.ctrl.Focus())
	}
	if output == "" {
		return nil
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(output), "."))
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Focus = m.ctrl.Focus()
	opts.Formats = []string{format}
	artifacts, err := pipeline.Render(ctx, m.res, fam.People, opts)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(artifacts, opts.Formats, output, opts.Label())
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// =============================================================================
// focusModel - Interactive focus selection
// =============================================================================

// focusModel is the bubbletea model for the focus picker.
type focusModel struct {
	people  []family.Person
	choices []family.Person // valid people sorted by name
	ctrl    *layout.Controller
	res     layout.Result

	cursor int
	offset int
	height int
}

func newFocusModel(people []family.Person, ctrl *layout.Controller) focusModel {
	var choices []family.Person
	for _, p := range people {
		if p.Valid() {
			choices = append(choices, p)
		}
	}
	slices.SortStableFunc(choices, func(a, b family.Person) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})

	m := focusModel{
		people:  people,
		choices: choices,
		ctrl:    ctrl,
		res:     ctrl.Layout(people),
		height:  12,
	}
	if i := slices.IndexFunc(choices, func(p family.Person) bool { return p.ID == ctrl.Focus() }); i >= 0 {
		m.cursor = i
		m.scroll()
	}
	return m
}

func (m focusModel) Init() tea.Cmd {
	return nil
}

func (m focusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.choices)-1, 0)
		case "enter":
			if len(m.choices) > 0 {
				m.res = m.ctrl.Reroot(m.people, m.choices[m.cursor].ID)
			}
		case "r":
			m.ctrl.Reset()
			m.res = m.ctrl.Layout(m.people)
		}
		m.scroll()
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-len(m.res.Rows())-10, 5)
		m.scroll()
	}
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *focusModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m focusModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Choose Focus"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ re-root  r reset  q quit"))
	b.WriteString("\n\n")

	focus := m.ctrl.Focus()
	end := min(m.offset+m.height, len(m.choices))
	for i := m.offset; i < end; i++ {
		p := m.choices[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-32s %s", cursor, p.Name, listDimStyle.Render(p.Lifespan()))
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case p.ID == focus:
			b.WriteString(listFocusStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, row := range rowSummary(m.res) {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  gen %s  %3s  ", row[0], row[1])))
		b.WriteString(row[3])
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("\n  [%d/%d]", m.cursor+1, len(m.choices))))
	return b.String()
}
