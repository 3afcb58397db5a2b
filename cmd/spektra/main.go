package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/spektra/internal/audio"
	"github.com/linuxmatters/spektra/internal/cli"
	"github.com/linuxmatters/spektra/internal/config"
	"github.com/linuxmatters/spektra/internal/media"
	"github.com/linuxmatters/spektra/internal/spectrum"
	"github.com/linuxmatters/spektra/internal/ui"
)

// version is set via ldflags at build time
var version = "dev"

var CLI struct {
	Input     string `arg:"" name:"input" help:"Audio file to analyse" optional:""`
	Device    string `help:"Capture device to analyse instead of a file (e.g. default)"`
	Stream    int    `help:"Audio stream index within the container" default:"0"`
	Channel   int    `help:"Channel to analyse" default:"0"`
	Intervals int    `help:"Number of analysis intervals" default:"${intervals}"`
	Bands     int    `help:"Frequency bands per interval" default:"${bands}"`
	Info      bool   `help:"Print stream info and exit"`
	NoUI      bool   `help:"Disable the progress display"`
	Version   bool   `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("spektra"),
		kong.Description("Slice an audio stream into drift-free intervals and chart its spectrum."),
		kong.Vars{
			"intervals": fmt.Sprintf("%d", config.DefaultIntervals),
			"bands":     fmt.Sprintf("%d", config.DefaultBands),
		},
		kong.UsageOnError(),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}
	if CLI.Input == "" && CLI.Device == "" {
		cli.PrintError("<input> or --device is required")
		os.Exit(1)
	}

	media.Init()
	defer media.Shutdown()

	f := audio.Open(CLI.Input, CLI.Device, CLI.Stream)
	defer f.Close()

	// Show whatever metadata resolution managed to determine, even when
	// it failed; the codec and rates are often known before the error.
	fmt.Print(cli.RenderStreamInfo(f.Info()))
	if f.Err() != audio.OK {
		cli.PrintError(f.Err().String())
		os.Exit(1)
	}
	if CLI.Info {
		return
	}

	f.Start(CLI.Channel, CLI.Intervals)
	if f.Err() != audio.OK {
		cli.PrintError(f.Err().String())
		os.Exit(1)
	}

	if CLI.NoUI {
		if err := analyzePlain(f); err != nil {
			cli.PrintError(err.Error())
			os.Exit(1)
		}
		return
	}
	if err := analyzeTUI(f); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// analyzeTUI runs the analysis behind a Bubbletea progress display. The
// analysis outcome travels through the program's message loop, so the
// failure is read back from the model after Run returns.
func analyzeTUI(f *audio.File) error {
	model := ui.NewModel()
	p := tea.NewProgram(model)
	start := time.Now()

	go func() {
		result, err := spectrum.Analyze(f, f.Plan(), CLI.Intervals, CLI.Bands,
			func(interval, total int, bands []float64, rms float64) {
				p.Send(ui.AnalysisProgress{
					Interval: interval,
					Total:    total,
					Bands:    bands,
					RMS:      rms,
					Elapsed:  time.Since(start),
				})
			})
		if err != nil {
			p.Send(ui.AnalysisFailed{Err: err})
			return
		}
		p.Send(ui.AnalysisComplete{
			Intervals:  len(result.Bands),
			FramesRead: result.FramesRead,
			Elapsed:    time.Since(start),
		})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return model.Err()
}

// analyzePlain prints one summary line per interval.
func analyzePlain(f *audio.File) error {
	result, err := spectrum.Analyze(f, f.Plan(), CLI.Intervals, CLI.Bands,
		func(interval, total int, bands []float64, rms float64) {
			var peak float64
			for _, b := range bands {
				if b > peak {
					peak = b
				}
			}
			fmt.Printf("interval %4d/%d  rms %.4f  peak %.4f\n", interval+1, total, rms, peak)
		})
	if err != nil {
		return err
	}
	fmt.Printf("%d intervals, %d frames\n", len(result.Bands), result.FramesRead)
	return nil
}
