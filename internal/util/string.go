// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UNICODE: Width-aware truncation preserves multi-byte characters.
// Transcript previews mix English, drug names and pasted EHR text, so
// truncation is measured in terminal columns, not bytes.

// TruncateRunes truncates a string to a maximum number of runes (characters).
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(r[:maxRunes])
	}
	return string(r[:maxRunes-3]) + "..."
}

// Truncate shortens s to at most maxWidth terminal columns, ending in "...".
// Double-width characters count as 2 columns.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// Preview collapses whitespace (newlines included) and truncates to maxWidth.
// Used for one-line summaries of multi-line answers.
func Preview(s string, maxWidth int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxWidth)
}

// StringWidth returns the display width of a string.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to width columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// =============================================================================
// FILENAMES
// =============================================================================

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeFilename reduces a path to a safe base name for multipart uploads.
// Diacritics are folded ("résumé.png" -> "resume.png"), separators and control
// characters become "_", and an empty result becomes "upload".
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == '/' || r == ':' || r == '"' || r == '<' || r == '>' || r == '|' || r == '?' || r == '*':
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune('_')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(strings.TrimSpace(b.String()), ".")
	if out == "" {
		return "upload"
	}
	return out
}
