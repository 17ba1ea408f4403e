package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	maxBarWidth = 60
	barPadding  = 30
)

type (
	totalMsg    int64
	positionMsg int64
	finishMsg   struct{ label, summary string }
)

type model struct {
	bar        progress.Model
	labelStyle lipgloss.Style
	countStyle lipgloss.Style

	total   int64
	pos     int64
	label   string
	summary string
	done    bool
}

func newModel(width int) model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = barWidth(width)
	return model{
		bar:        bar,
		labelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		countStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func barWidth(termWidth int) int {
	w := termWidth - barPadding
	if w > maxBarWidth || termWidth <= 0 {
		w = maxBarWidth
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = barWidth(msg.Width)
	case totalMsg:
		m.total = int64(msg)
	case positionMsg:
		m.pos = int64(msg)
	case finishMsg:
		m.label, m.summary = msg.label, msg.summary
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) percent() float64 {
	if m.total <= 0 {
		if m.done {
			return 1
		}
		return 0
	}
	p := float64(m.pos) / float64(m.total)
	if p > 1 {
		p = 1
	}
	return p
}

func (m model) View() string {
	if m.done {
		return fmt.Sprintf("%s %s\n", m.labelStyle.Render(m.label), m.summary)
	}
	counts := m.countStyle.Render(fmt.Sprintf("%s / %s", humanize.IBytes(uint64(m.pos)), humanize.IBytes(uint64(m.total))))
	return m.bar.ViewAs(m.percent()) + " " + counts + "\n"
}

// Terminal drives a bubbletea program that renders the bar on out.
type Terminal struct {
	program *tea.Program
	done    chan struct{}
}

func NewTerminal(out io.Writer, width int) *Terminal {
	t := &Terminal{
		program: tea.NewProgram(newModel(width),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		_, _ = t.program.Run()
	}()
	return t
}

func (t *Terminal) SetTotal(total int64)  { t.program.Send(totalMsg(total)) }
func (t *Terminal) SetPosition(pos int64) { t.program.Send(positionMsg(pos)) }

func (t *Terminal) Finish(label, summary string) {
	t.program.Send(finishMsg{label: label, summary: summary})
}

// Close stops the program if it has not finished and waits for the final
// frame to be written.
func (t *Terminal) Close() {
	t.program.Quit()
	<-t.done
}
