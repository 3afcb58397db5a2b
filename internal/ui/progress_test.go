package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelCarriesAnalysisFailure(t *testing.T) {
	m := NewModel()
	updated, cmd := m.Update(AnalysisFailed{Err: errors.New("decode stalled")})
	if cmd == nil {
		t.Fatal("a failure must quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("a failure must quit the program")
	}

	model := updated.(*Model)
	if model.Err() == nil || model.Err().Error() != "decode stalled" {
		t.Errorf("Err = %v, want the delivered failure", model.Err())
	}
	if model.View() != "" {
		t.Errorf("failed model should render nothing, got %q", model.View())
	}
}

func TestModelCompletionQuits(t *testing.T) {
	m := NewModel()
	m.Update(AnalysisProgress{Interval: 3, Total: 10, RMS: 0.5})

	updated, cmd := m.Update(AnalysisComplete{
		Intervals:  10,
		FramesRead: 44100,
		Elapsed:    2 * time.Second,
	})
	if cmd == nil {
		t.Fatal("completion must quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("completion must quit the program")
	}

	model := updated.(*Model)
	if model.Err() != nil {
		t.Errorf("completed model carries error %v", model.Err())
	}
	if !strings.Contains(model.View(), "44100 frames") {
		t.Errorf("completion view missing frame count:\n%s", model.View())
	}
}

func TestModelRendersBandMeter(t *testing.T) {
	m := NewModel()
	m.Update(tea.WindowSizeMsg{Width: 60})
	m.Update(AnalysisProgress{
		Interval: 0,
		Total:    4,
		Bands:    []float64{0, 0.5, 1.0},
		RMS:      0.3,
	})

	view := m.View()
	if !strings.Contains(view, string(meterLevels[len(meterLevels)-1])) {
		t.Errorf("loudest band should render the full block:\n%s", view)
	}
	if !strings.Contains(view, "interval 1/4") {
		t.Errorf("view missing interval counter:\n%s", view)
	}
}
