package styles

import (
	"github.com/charmbracelet/lipgloss"

	"jupiter/internal/domain"
)

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")

	// Eisenhower colors
	EisenImportant = lipgloss.Color("#6366F1") // Indigo
	EisenUrgent    = lipgloss.Color("#F97316") // Orange
	EisenBoth      = lipgloss.Color("#EC4899") // Pink

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Task rows
	TaskRow = lipgloss.NewStyle()

	TaskSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	TaskFinished = lipgloss.NewStyle().
			Foreground(Muted).
			Strikethrough(true)

	TaskRefID = lipgloss.NewStyle().Foreground(Muted)

	StatusActive = lipgloss.NewStyle().Foreground(Secondary)

	StatusBlocked = lipgloss.NewStyle().Foreground(Warning)

	DueOverdue = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Input styles
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// EisenColor returns the color for an Eisenhower class
func EisenColor(e domain.Eisen) lipgloss.Color {
	switch e {
	case domain.EisenImportant:
		return EisenImportant
	case domain.EisenUrgent:
		return EisenUrgent
	case domain.EisenImportantAndUrgent:
		return EisenBoth
	default:
		return Muted
	}
}

// StatusStyle picks the style of a status badge
func StatusStyle(s domain.InboxTaskStatus) lipgloss.Style {
	switch {
	case s.IsCompleted():
		return MutedText
	case s == domain.InboxTaskBlocked:
		return StatusBlocked
	case s == domain.InboxTaskInProgress:
		return StatusActive
	default:
		return HelpDesc
	}
}
