// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the aimednow TUI.
//
// Components are plain render helpers: they take a *styles.Theme and a
// width and return strings. State lives in the session and the chat model.
//
//   - MessageBubble renders one transcript record by kind
//   - NotePanel renders the Simplified/Original tabs of a doctor's note
//   - MarkdownRenderer renders answers through glamour
//   - Welcome and StatusBar render the empty screen and the footer
package components
