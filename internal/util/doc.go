// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions shared across aimednow.
//
// # Key Functions
//
// String Utilities:
//   - Truncate: Column-aware truncation with ellipsis (go-runewidth)
//   - TruncateRunes: UTF-8 safe rune truncation
//   - Preview: One-line summary of multi-line text
//
// Files:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - SanitizeFilename: Safe upload names (golang.org/x/text)
//
// # Usage
//
//	// One-line preview for a status bar
//	line := util.Preview(answer, 60)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
