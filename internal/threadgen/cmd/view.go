package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"threadgen/internal/listing"
	"threadgen/internal/thread"
	"threadgen/internal/threadgen/styles"
	"threadgen/internal/ui/colorize"
	"threadgen/internal/vm"
)

type viewMode int

const (
	viewListing viewMode = iota
	viewSummary
	viewOutput
)

type model struct {
	viewport viewport.Model
	mode     viewMode
	res      *thread.Result
	listing  listing.Listing
	mcfg     vm.Config
	output   string
	runErr   error
	running  bool
	width    int
	height   int
}

// runFinishedMsg carries the result of executing the program.
type runFinishedMsg struct {
	output string
	steps  int
	err    error
}

func runProgramCmd(ctx context.Context, res *thread.Result, cfg vm.Config) tea.Cmd {
	return func() tea.Msg {
		prog, err := vm.LoadThreaded(res)
		if err != nil {
			return runFinishedMsg{err: err}
		}
		var out bytes.Buffer
		m := vm.New(cfg)
		m.Stdout = &out
		m.Stdin = strings.NewReader("")
		err = m.Run(ctx, prog)
		return runFinishedMsg{output: out.String(), steps: m.Steps(), err: err}
	}
}

func newModel(res *thread.Result, mcfg vm.Config) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(20)

	m := model{
		viewport: vp,
		res:      res,
		listing:  listing.Build(res),
		mcfg:     mcfg,
		width:    80,
		height:   22,
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case runFinishedMsg:
		m.running = false
		m.output = msg.output
		m.runErr = msg.err
		if msg.err != nil {
			slog.Debug("Viewer run failed", "error", msg.err)
		}
		m.mode = viewOutput
		m.updateContent()
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.mode = (m.mode + 1) % 3
			m.updateContent()
			m.viewport.GotoTop()
			return m, nil
		case "l":
			m.mode = viewListing
			m.updateContent()
			return m, nil
		case "s":
			m.mode = viewSummary
			m.updateContent()
			return m, nil
		case "r":
			if m.running {
				return m, nil
			}
			m.running = true
			m.mode = viewOutput
			m.updateContent()
			return m, runProgramCmd(context.Background(), m.res, m.mcfg)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) View() string {
	header := styles.Header.Render("threadgen") + " " +
		styles.Stat.Render(fmt.Sprintf("tokens %d  labels %d  targets %d",
			len(m.res.Tokens), m.res.Labels.Len(), m.res.Targets()))

	menu := " L: listing • S: summary • R: run • Tab: cycle • Q: quit "
	menuStyle := styles.Menu.Width(m.width)

	return header + "\n" + m.viewport.View() + "\n" + menuStyle.Render(menu)
}

func (m *model) updateContent() {
	var content string
	switch m.mode {
	case viewSummary:
		md := m.listing.Markdown("Threaded program")
		content = md
		if r, err := styles.GetMarkdownRenderer(m.width); err == nil {
			if rendered, err := r.Render(md); err == nil {
				content = rendered
			}
		}
	case viewOutput:
		switch {
		case m.running:
			content = "Running..."
		case m.runErr != nil:
			content = m.output + styles.Error.Render("error: "+m.runErr.Error())
		case m.output == "":
			content = lipgloss.NewStyle().Faint(true).Render("(no output)")
		default:
			content = m.output
		}
	default:
		var b strings.Builder
		_, _ = m.res.WriteLabeled(&b, thread.DefaultThreadLabel, thread.DefaultStreamLabel)
		b.WriteString("\n")
		b.WriteString(m.listing.Text())
		content = colorize.Listing(b.String())
	}
	m.viewport.SetContent(strings.TrimSuffix(content, "\n"))
}

var viewCmd = &cobra.Command{
	Use:   "view [program]",
	Short: "Browse a threaded program interactively",
	Example: `
# Browse the example program
threadgen view --example
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig(cmd)
		if err != nil {
			return err
		}
		src, err := readProgram(cmd, args)
		if err != nil {
			return err
		}
		res, err := thread.Thread(src, cfg.Policy())
		if err != nil {
			return fmt.Errorf("rewrite failed: %w", err)
		}

		program := tea.NewProgram(
			newModel(res, cfg.MachineConfig()),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}
