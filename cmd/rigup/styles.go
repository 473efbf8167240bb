// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rigup/rigup/internal/engine"
)

// Color palette shared by all CLI output. Tuned for dark terminal backgrounds.
const (
	// ColorPrimary is purple - titles, headers, and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - subtitles and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - applied steps and other positive outcomes.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - failures.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - partial steps and warnings.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - commands, paths, and planned work.
	ColorHighlight = lipgloss.Color("#3B82F6")

	// ColorVerbose is light gray - verbose output and supplementary details.
	ColorVerbose = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command names, paths, and code.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// VerboseStyle is for verbose output and supplementary information.
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)
)

// outcomeMarks pairs every outcome with the symbol and style it is reported with.
var outcomeMarks = map[engine.Outcome]struct {
	symbol string
	style  lipgloss.Style
}{
	engine.OutcomeApplied:   {"✓", SuccessStyle},
	engine.OutcomeSatisfied: {"•", SubtitleStyle},
	engine.OutcomePlanned:   {"~", CmdStyle},
	engine.OutcomeSkipped:   {"-", VerboseStyle},
	engine.OutcomePartial:   {"!", WarningStyle},
	engine.OutcomeFailed:    {"✗", ErrorStyle},
}

// outcomeStyle returns the symbol and style for o.
func outcomeStyle(o engine.Outcome) (string, lipgloss.Style) {
	if m, ok := outcomeMarks[o]; ok {
		return m.symbol, m.style
	}
	return "?", VerboseStyle
}
