package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"gamelib/internal/builder"
)

// Job is a build step run under the progress screen.
type Job func(ctx context.Context, progress func(builder.Progress)) (*builder.Summary, error)

type (
	taskProgressMsg builder.Progress
	taskDoneMsg     struct {
		summary *builder.Summary
		err     error
	}
)

type taskModel struct {
	title   string
	spin    spinner.Model
	start   time.Time
	stats   builder.Progress
	summary *builder.Summary
	err     error
	done    bool
	cancel  context.CancelFunc
	width   int
}

func newTaskModel(title string, cancel context.CancelFunc) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)
	return taskModel{title: title, spin: s, start: time.Now(), cancel: cancel}
}

func (m taskModel) Init() tea.Cmd { return m.spin.Tick }

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case taskProgressMsg:
		m.stats = builder.Progress(msg)
		return m, nil
	case taskDoneMsg:
		m.done = true
		m.summary, m.err = msg.summary, msg.err
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			// the job sees the cancelled context; committed batches stay
			m.cancel()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m taskModel) View() string {
	if m.done {
		return m.viewDone()
	}
	return m.viewRunning()
}

func (m taskModel) viewRunning() string {
	elapsed := time.Since(m.start)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n\n", m.spin.View(), headingStyle.Render(m.title))

	stage := m.stats.Stage
	if stage == "" {
		stage = "starting"
	}
	rows := [][2]string{{"Stage", stage}}
	if m.stats.Done > 0 {
		rows = append(rows, [2]string{"Files", humanize.Comma(m.stats.Done)})
	}
	if m.stats.Folders > 0 {
		rows = append(rows, [2]string{"Folders", humanize.Comma(m.stats.Folders)})
	}
	if m.stats.Bytes > 0 {
		rows = append(rows, [2]string{"Read", humanize.Bytes(uint64(m.stats.Bytes))})
	}
	if m.stats.Done > 0 && elapsed > 0 {
		rows = append(rows, [2]string{"Speed", formatSpeed(float64(m.stats.Done)/elapsed.Seconds()) + " files/s"})
	}
	rows = append(rows, [2]string{"Elapsed", elapsed.Round(time.Second).String()})
	b.WriteString(renderTable(rows))
	b.WriteString("\n\n")

	if m.stats.Total > 0 {
		pct := min(float64(m.stats.Done)/float64(m.stats.Total)*100, 100)
		fmt.Fprintf(&b, "%s %s\n", renderProgressBar(pct, m.progressBarWidth()),
			valueStyle.Render(fmt.Sprintf("%.1f%%", pct)))
	}
	if m.stats.Last != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Processing:"), subtitleStyle.Render(filepath.Base(m.stats.Last)))
	}

	b.WriteString("\n" + subtitleStyle.Render("Press q/ESC to stop (safe)"))
	return renderBorder(b.String(), "Build", accent)
}

func (m taskModel) viewDone() string {
	if m.err != nil {
		body := lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render("✗ "+m.title+" failed"),
			"",
			labelStyle.Render("Error: ")+valueStyle.Render(m.err.Error()),
		)
		return renderBorder(body, "Build", danger) + "\n"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		successStyle.Render("✓ "+m.title+" complete"),
		"",
		renderTable(m.summary.Rows()),
	)
	return renderBorder(body, "Build", success) + "\n"
}

func (m taskModel) progressBarWidth() int {
	switch {
	case m.width <= 0, m.width >= 100:
		return 50
	case m.width < 60:
		return 20
	}
	return 40
}

func formatSpeed(perSec float64) string {
	switch {
	case perSec < 1:
		return fmt.Sprintf("%.2f", perSec)
	case perSec < 100:
		return fmt.Sprintf("%.1f", perSec)
	}
	return fmt.Sprintf("%.0f", perSec)
}

// RunTask runs job behind a progress screen and returns its result.
// Quitting the screen cancels the job and reports context.Canceled.
func RunTask(ctx context.Context, title string, job Job) (*builder.Summary, error) {
	return runTaskWith(ctx, title, job)
}

func runTaskWith(ctx context.Context, title string, job Job, opts ...tea.ProgramOption) (*builder.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newTaskModel(title, cancel), opts...)
	result := make(chan taskDoneMsg, 1)
	go func() {
		summary, err := job(ctx, func(pr builder.Progress) { p.Send(taskProgressMsg(pr)) })
		done := taskDoneMsg{summary: summary, err: err}
		result <- done
		p.Send(done)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		return nil, fmt.Errorf("progress screen: %w", err)
	}
	cancel()
	done := <-result
	return done.summary, done.err
}
