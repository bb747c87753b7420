// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/ui/styles"
)

// Welcome renders the empty-transcript screen centered in width x height.
func Welcome(theme *styles.Theme, width, height int) string {
	bodyWidth := minInt(60, maxInt(20, width-4))
	content := lipgloss.JoinVertical(lipgloss.Center,
		theme.WelcomeTitle.Render(model.WelcomeTitle),
		"",
		theme.WelcomeBody.Width(bodyWidth).Align(lipgloss.Center).Render(model.WelcomeBody),
	)
	if width <= 0 || height <= 0 {
		return content
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
