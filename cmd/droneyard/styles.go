// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette. Colors adapt to the terminal background.
var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	colorBuilt   = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	colorFailed  = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorSkipped = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorDrone   = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
)

var (
	// TitleStyle renders headers and summary labels.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	// SubtitleStyle renders de-emphasized text.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	// SuccessStyle marks built drones and completed actions.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorBuilt)
	// ErrorStyle marks failures.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFailed)
	// WarningStyle marks skipped drones.
	WarningStyle = lipgloss.NewStyle().Foreground(colorSkipped)
	// CmdStyle renders drone names, commands and config keys.
	CmdStyle = lipgloss.NewStyle().Foreground(colorDrone)
	// VerboseStyle renders lifecycle transitions in verbose mode.
	VerboseStyle = lipgloss.NewStyle().Faint(true)
)
