// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders answer markdown for the terminal.
// One glamour renderer is kept per (width, theme) pair.
type MarkdownRenderer struct {
	mu        sync.Mutex
	renderers map[rendererKey]*glamour.TermRenderer
}

type rendererKey struct {
	width int
	dark  bool
}

// NewMarkdownRenderer creates an empty renderer cache.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{renderers: make(map[rendererKey]*glamour.TermRenderer)}
}

// Render renders md wrapped at width. If glamour fails the text is
// returned word-wrapped but otherwise unchanged.
func (r *MarkdownRenderer) Render(md string, width int, dark bool) string {
	if width < 20 {
		width = 20
	}
	tr, err := r.renderer(width, dark)
	if err != nil {
		return wordWrap(md, width)
	}
	out, err := tr.Render(md)
	if err != nil {
		return wordWrap(md, width)
	}
	return strings.Trim(out, "\n")
}

func (r *MarkdownRenderer) renderer(width int, dark bool) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := rendererKey{width: width, dark: dark}
	if tr, ok := r.renderers[key]; ok {
		return tr, nil
	}

	style := "light"
	if dark {
		style = "dark"
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.renderers[key] = tr
	return tr, nil
}
