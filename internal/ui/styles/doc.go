// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the aimednow TUI.
//
// Colors are lipgloss.AdaptiveColor values. NewTheme(isDark) flips lipgloss
// to the matching half, so toggling the stored theme recolors everything.
package styles
