package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/spektra/internal/audio"
)

var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SpectrumRed)

	labelStyle = lipgloss.NewStyle().
			Foreground(SpectrumCyan).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(SpectrumGreen)

	subtleStyle = lipgloss.NewStyle().
			Foreground(CoolGray).
			Italic(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SpectrumAmber)
)

// PrintError writes a styled error line to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+msg)
}

// PrintVersion writes the styled version banner.
func PrintVersion(version string) {
	fmt.Println(titleStyle.Render("spektra") + " " + subtleStyle.Render(version))
}

// RenderStreamInfo formats the resolved stream metadata for display.
// Fields that were never determined render as em-dash placeholders, so a
// partially resolved source still shows whatever it reported.
func RenderStreamInfo(info audio.StreamInfo) string {
	var sb strings.Builder

	row := func(label, value string) {
		sb.WriteString("  ")
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", label)))
		sb.WriteString(valueStyle.Render(value))
		sb.WriteString("\n")
	}

	codec := info.CodecName
	if codec == "" {
		codec = "—"
	}
	row("Codec", codec)

	switch {
	case info.BitsPerSample != 0:
		row("Bits per sample", fmt.Sprintf("%d", info.BitsPerSample))
	case info.BitRate != 0:
		row("Bit rate", fmt.Sprintf("%d kbps", info.BitRate/1000))
	default:
		row("Bit rate", "—")
	}

	if info.SampleRate != 0 {
		row("Sample rate", fmt.Sprintf("%d Hz", info.SampleRate))
	}
	row("Audio streams", fmt.Sprintf("%d", info.Streams))
	row("Channels", fmt.Sprintf("%d", info.Channels))
	if info.Duration != 0 {
		row("Duration", fmt.Sprintf("%.2f s", info.Duration))
	}
	return sb.String()
}
