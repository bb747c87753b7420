// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the chat transcript to files.
//
// # Supported Formats
//
//   - text: plain text, the way replies are copied to the clipboard
//   - markdown: headings per message, both texts of every doctor's note
//   - html: the markdown rendered through goldmark in a standalone page
//   - json: the transcript records as stored
//
// Typing placeholders are never exported.
//
// # Usage
//
//	exp, err := export.ForFormat("markdown", nil)
//	data, err := exp.Export(sess.Messages())
//	err = export.WriteFile("chat.md", data)
package export
