package cli

import "github.com/charmbracelet/lipgloss"

// Spectrum colour palette
// Shared theme colours for consistent output across CLI and TUI
var (
	// Core spectrum colours (cold to hot)
	SpectrumViolet = lipgloss.Color("#8A2BE2") // Blue-violet
	SpectrumCyan   = lipgloss.Color("#00CED1") // Dark turquoise
	SpectrumGreen  = lipgloss.Color("#3CB371") // Medium sea green
	SpectrumAmber  = lipgloss.Color("#FFBF00") // Amber
	SpectrumRed    = lipgloss.Color("#FF4500") // Orange-red

	// Accent colours
	CoolGray = lipgloss.Color("#708090") // Slate gray for subtle text
)
