package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Color constants using ANSI 256-color palette.
const (
	// ColorPrimary is used for headers and sizes (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for positive status indicators (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for warnings and medium risk (orange).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for errors and high risk (red).
	ColorDanger = lipgloss.Color("196")

	// ColorCritical is used for critical risk (magenta).
	ColorCritical = lipgloss.Color("201")

	// ColorMuted is used for secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Box styles for grouped content.
var (
	// HeaderBox surrounds the report header.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox surrounds the closing hints.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)

	// ErrorBox surrounds error results.
	ErrorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDanger).
			Padding(0, 1)
)

// Text styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	PathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	SizeStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// BarStyle colors the filled part of usage bars.
	BarStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMuted)
)

// RiskStyle returns the style for a risk label.
func RiskStyle(r types.Risk) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch r {
	case types.RiskCritical:
		return base.Foreground(ColorCritical)
	case types.RiskHigh:
		return base.Foreground(ColorDanger)
	case types.RiskMedium:
		return base.Foreground(ColorWarning)
	case types.RiskLow:
		return base.Foreground(ColorPrimary)
	default:
		return base.Foreground(ColorMuted)
	}
}

// SafetyStyle returns the style for an action safety class.
func SafetyStyle(s types.Safety) lipgloss.Style {
	switch s {
	case types.SafetyDestructive:
		return ErrorStyle
	case types.SafetyCaution:
		return WarningStyle
	case types.SafetySafe:
		return SuccessStyle
	default:
		return MutedStyle
	}
}
