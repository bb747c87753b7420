// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aimednow/internal/ui/components"
)

// confirmDeletePrompt replaces the input while a delete waits for an answer.
const confirmDeletePrompt = "Are you sure you want to delete all chats? (y/n)"

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatus(),
		components.KeyHints(m.theme),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("AIMedNow")
	hint := m.theme.HeaderHint.Render("AI-powered medical assistance")
	return m.theme.Header.Width(m.width).Render(title + "  " + hint)
}

func (m Model) renderInput() string {
	if m.state == StateConfirmDelete {
		return m.theme.InputContainer.Width(m.width).Render(m.theme.Confirm.Render(confirmDeletePrompt))
	}
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatus() string {
	bar := components.NewStatusBar(m.theme)
	bar.Width = m.width
	bar.Notice = m.notice
	bar.Level = m.noticeLevel
	bar.Endpoint = m.endpoint
	bar.InFlight = len(m.pending)
	bar.Messages = len(m.sess.Messages())
	bar.Theme = string(m.sess.Theme())
	return bar.View()
}
