// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// IsDark selects the Dark half of every AdaptiveColor
	IsDark bool

	// Layout dimensions
	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderHint  lipgloss.Style

	// Message bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style

	// Emergency notice (italic, after the sources)
	Emergency lipgloss.Style

	// Doctor's note panel
	NoteHeader  lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	NoteBody    lipgloss.Style

	// Attachment line
	Attachment lipgloss.Style

	// Typing placeholder
	Typing lipgloss.Style

	// Welcome screen
	WelcomeTitle lipgloss.Style
	WelcomeBody  lipgloss.Style

	// Input and status
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	StatusInfo     lipgloss.Style
	StatusWarn     lipgloss.Style
	StatusError    lipgloss.Style
	Confirm        lipgloss.Style
}

// DetectDark reports whether the terminal background is dark.
// Used when ui.theme is "auto" and nothing is stored yet.
func DetectDark() bool {
	return termenv.HasDarkBackground()
}

// NewTheme creates a theme for a dark or light background.
// It also switches lipgloss's adaptive colors to match.
func NewTheme(isDark bool) *Theme {
	lipgloss.SetHasDarkBackground(isDark)
	t := &Theme{IsDark: isDark}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.HeaderHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(ErrorBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1).
		MarginRight(4)

	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Emergency = lipgloss.NewStyle().
		Italic(true).
		Foreground(Amber)

	// Doctor's note
	t.NoteHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(TabActiveBg).
		Padding(0, 1)

	t.TabInactive = lipgloss.NewStyle().
		Foreground(TabInactiveFg).
		Padding(0, 1)

	t.NoteBody = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Teal).
		PaddingLeft(1)

	t.Attachment = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Typing = lipgloss.NewStyle().
		Foreground(Teal)

	t.WelcomeTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Align(lipgloss.Center)

	t.WelcomeBody = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Align(lipgloss.Center)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusInfo = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusWarn = lipgloss.NewStyle().Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose)

	t.Confirm = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)
}

// SetSize updates the layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// ContentWidth is the usable width inside a bubble.
func (t *Theme) ContentWidth() int {
	w := t.Width - 10
	if w < 20 {
		return 20
	}
	return w
}
