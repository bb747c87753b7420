// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strconv"
	"strings"
)

// EHRPreamble opens every prompt sent while the answer cache is non-empty.
const EHRPreamble = "If needed reference the following EHRs to answer the user's question. Ignore if not relevant "

// BuildPrompt prefixes text with the cached EHR entries.
//
// Empty entries are skipped and do not consume a number, so the labels are
// always EHR 0..n-1. The preamble is added whenever entries is non-empty,
// even if every entry is empty.
func BuildPrompt(entries []string, text string) string {
	if len(entries) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(EHRPreamble)
	n := 0
	for _, e := range entries {
		if e == "" {
			continue
		}
		b.WriteString("EHR ")
		b.WriteString(strconv.Itoa(n))
		b.WriteString("\n\n")
		b.WriteString(e)
		b.WriteString("\n\n")
		n++
	}
	b.WriteString(text)
	return b.String()
}
