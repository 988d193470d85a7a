package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/fkoller/threatfeed/internal/ingest"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// progressMsg carries the running counts from the backfill goroutine.
type progressMsg struct {
	done  int64
	total int64
}

// backfillDoneMsg ends the UI with the run's outcome.
type backfillDoneMsg struct {
	stats ingest.BackfillStats
	err   error
}

// backfillModel is the bubbletea model for backfill progress.
type backfillModel struct {
	progress progress.Model
	theme    Theme
	done     int64
	total    int64
	stats    ingest.BackfillStats
	err      error
	finished bool
	quitting bool
	cancel   func()
}

// newBackfillModel creates a new progress model. cancel stops the
// underlying backfill run when the user interrupts.
func newBackfillModel(cancel func()) backfillModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return backfillModel{
		progress: prog,
		theme:    defaultTheme,
		cancel:   cancel,
	}
}

// Init returns the initial command.
func (m backfillModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m backfillModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

	case progressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil

	case backfillDoneMsg:
		m.stats = msg.stats
		m.err = msg.err
		m.finished = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m backfillModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m backfillModel) renderContent() string {
	if m.finished {
		return m.finalView()
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}

	status := m.theme.statusStyle().Render("[embedding]")
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d tweets", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the completion message.
func (m backfillModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Backfill failed: %s\n", m.err))
	}

	output := m.theme.completedStyle().Render("✓ Completed") + "\n\n"
	output += fmt.Sprintf("  Tweets embedded:  %d\n", m.stats.Embedded)
	if m.stats.Failed > 0 {
		output += m.theme.errorStyle().Render(fmt.Sprintf("  Failed (skipped): %d\n", m.stats.Failed))
	}
	return output
}

// runBackfillProgress runs the interactive progress UI around a backfill.
// run is executed in a goroutine and reports through the returned model.
func runBackfillProgress(cancel func(), run func(progress ingest.ProgressFunc) (ingest.BackfillStats, error)) (ingest.BackfillStats, error) {
	p := tea.NewProgram(newBackfillModel(cancel))

	go func() {
		stats, err := run(func(done, total int64) {
			p.Send(progressMsg{done: done, total: total})
		})
		p.Send(backfillDoneMsg{stats: stats, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return ingest.BackfillStats{}, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(backfillModel); ok {
		return m.stats, m.err
	}
	return ingest.BackfillStats{}, nil
}
