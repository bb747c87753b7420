// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/ui/styles"
)

// NoteTitle heads every doctor's note panel.
const NoteTitle = "📋 Doctor's Note Translation"

// NotePanel renders a doctor's note with its two tabs. Only the active
// view's text is shown.
type NotePanel struct {
	note  *model.Note
	theme *styles.Theme
	width int
}

// NewNotePanel creates a panel for note.
func NewNotePanel(note *model.Note, theme *styles.Theme, width int) *NotePanel {
	return &NotePanel{note: note, theme: theme, width: width}
}

// Tabs renders the tab row with the active tab highlighted.
func (v *NotePanel) Tabs() string {
	simplified := v.theme.TabInactive
	original := v.theme.TabInactive
	if v.note.View() == model.ViewOriginal {
		original = v.theme.TabActive
	} else {
		simplified = v.theme.TabActive
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		simplified.Render(model.ViewSimplified.String()),
		" ",
		original.Render(model.ViewOriginal.String()))
}

// View renders title, tabs and the active text.
func (v *NotePanel) View() string {
	body := wordWrap(v.note.Active(), maxInt(10, v.width-2))
	return lipgloss.JoinVertical(lipgloss.Left,
		v.theme.NoteHeader.Render(NoteTitle),
		v.Tabs(),
		v.theme.NoteBody.Render(body))
}
