// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/aimednow/internal/ui/styles"
	"github.com/jeranaias/aimednow/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusLevel colors the status notice.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusWarn
	StatusError
)

// StatusBar is the footer line: a notice on the left, session facts and
// key hints on the right.
type StatusBar struct {
	Width    int
	Notice   string
	Level    StatusLevel
	Endpoint string
	InFlight int
	Messages int
	Theme    string

	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, Width: 80}
}

// View renders the bar, truncating the notice first when space runs out.
func (s *StatusBar) View() string {
	var right []string
	if s.InFlight > 0 {
		right = append(right, strconv.Itoa(s.InFlight)+" pending")
	}
	right = append(right, strconv.Itoa(s.Messages)+" msgs")
	if s.Theme != "" {
		right = append(right, s.Theme)
	}
	if s.Endpoint != "" {
		right = append(right, s.Endpoint)
	}
	rightText := s.theme.HeaderHint.Render(strings.Join(right, " · "))

	noticeStyle := s.theme.StatusInfo
	switch s.Level {
	case StatusWarn:
		noticeStyle = s.theme.StatusWarn
	case StatusError:
		noticeStyle = s.theme.StatusError
	}
	room := s.Width - lipgloss.Width(rightText) - 3
	notice := ""
	if room > 0 && s.Notice != "" {
		notice = noticeStyle.Render(util.Truncate(s.Notice, room))
	}

	gap := maxInt(1, s.Width-lipgloss.Width(notice)-lipgloss.Width(rightText)-2)
	return s.theme.StatusBar.Width(maxInt(0, s.Width)).Render(notice + strings.Repeat(" ", gap) + rightText)
}

// KeyHints is the help line shown under the input.
func KeyHints(theme *styles.Theme) string {
	return theme.HeaderHint.Render(
		"enter send · /attach PATH upload · tab note view · ctrl+y copy · ctrl+t theme · ctrl+d delete · ctrl+c quit")
}
