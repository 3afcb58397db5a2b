package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/spektra/internal/cli"
)

var meterLevels = []rune(" ▁▂▃▄▅▆▇█")

// AnalysisProgress reports one completed interval.
type AnalysisProgress struct {
	Interval int
	Total    int
	Bands    []float64
	RMS      float64
	Elapsed  time.Duration
}

// AnalysisComplete signals the end of the run.
type AnalysisComplete struct {
	Intervals  int
	FramesRead int64
	Elapsed    time.Duration
}

// AnalysisFailed aborts the UI with an error to report after teardown.
type AnalysisFailed struct {
	Err error
}

// Model renders live analysis progress: a meter of the current interval's
// bands above a completion bar.
type Model struct {
	bar      progress.Model
	last     AnalysisProgress
	complete *AnalysisComplete
	err      error
	width    int
}

// NewModel creates the analysis progress model. The completion bar runs
// the palette cold to hot.
func NewModel() *Model {
	return &Model{
		bar:   progress.New(progress.WithGradient(string(cli.SpectrumViolet), string(cli.SpectrumRed))),
		width: 80,
	}
}

// Err returns the failure carried by an AnalysisFailed message, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 10
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case AnalysisProgress:
		m.last = msg
	case AnalysisComplete:
		m.complete = &msg
		return m, tea.Quit
	case AnalysisFailed:
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) View() string {
	if m.err != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.SpectrumAmber).Render("Analysing"))
	sb.WriteString("\n\n")

	if m.complete != nil {
		sb.WriteString(fmt.Sprintf("  %d intervals, %d frames in %s\n",
			m.complete.Intervals, m.complete.FramesRead, m.complete.Elapsed.Round(time.Millisecond)))
		return sb.String()
	}

	sb.WriteString("  ")
	sb.WriteString(renderMeter(m.last.Bands))
	sb.WriteString("\n\n  ")

	frac := 0.0
	if m.last.Total > 0 {
		frac = float64(m.last.Interval+1) / float64(m.last.Total)
	}
	sb.WriteString(m.bar.ViewAs(frac))
	sb.WriteString("\n  ")
	sb.WriteString(lipgloss.NewStyle().Foreground(cli.CoolGray).Render(
		fmt.Sprintf("interval %d/%d  rms %.4f  %s",
			m.last.Interval+1, m.last.Total, m.last.RMS, m.last.Elapsed.Round(time.Second))))
	sb.WriteString("\n")
	return sb.String()
}

// renderMeter draws one block-character column per band, scaled against
// the loudest band of the interval.
func renderMeter(bands []float64) string {
	if len(bands) == 0 {
		return ""
	}
	var peak float64
	for _, b := range bands {
		if b > peak {
			peak = b
		}
	}

	var sb strings.Builder
	style := lipgloss.NewStyle().Foreground(cli.SpectrumCyan)
	for _, b := range bands {
		level := 0
		if peak > 0 {
			level = int(b / peak * float64(len(meterLevels)-1))
		}
		sb.WriteRune(meterLevels[level])
	}
	return style.Render(sb.String())
}
