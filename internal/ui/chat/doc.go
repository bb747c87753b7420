// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view for the aimednow TUI.
//
// The Model is a Bubble Tea model over a session.Session. Sending a
// question or an attachment is split in two: the Begin step runs inside
// Update so the outgoing record and typing placeholder appear at once,
// and the Complete step runs as a tea.Cmd so the network call never
// blocks the UI. Each completion replaces only its own placeholder, so
// several questions can be in flight.
//
// Keys:
//
//	enter        send the input (or "/attach PATH" to upload a file)
//	tab          switch the latest doctor's note between Simplified and Original
//	ctrl+y       copy the last reply to the clipboard
//	ctrl+t       toggle dark/light theme
//	ctrl+d       delete all chats (asks first)
//	esc          cancel the newest pending request
//	pgup/pgdown  scroll
//	ctrl+c       quit
package chat
