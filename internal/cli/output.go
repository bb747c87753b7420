// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/storage"
	"github.com/jeranaias/aimednow/internal/ui/components"
	"github.com/jeranaias/aimednow/internal/ui/styles"
)

// replyPrinter writes assistant replies. On a terminal they are drawn as the
// TUI draws them, with glamour markdown; otherwise as plain text.
type replyPrinter struct {
	w     io.Writer
	rich  bool
	width int
	theme *styles.Theme
	md    *components.MarkdownRenderer
}

func newReplyPrinter(w io.Writer, theme storage.Theme, wrap int) *replyPrinter {
	p := &replyPrinter{w: w, rich: isTerminal(w)}
	if p.rich {
		p.width = terminalWidth(w, wrap)
		if wrap > 0 && p.width > wrap+10 {
			p.width = wrap + 10
		}
		p.theme = styles.NewTheme(theme != storage.ThemeLight)
		p.theme.SetSize(p.width, 0)
		p.md = components.NewMarkdownRenderer()
	}
	return p
}

// Print writes msg followed by a blank line.
func (p *replyPrinter) Print(msg *model.Message) {
	if msg == nil {
		return
	}
	if !p.rich {
		fmt.Fprintln(p.w, msg.PlainText())
		return
	}
	bubble := components.NewMessageBubble(msg, p.theme)
	bubble.Width = p.width
	bubble.Markdown = p.md
	fmt.Fprintln(p.w, bubble.View())
	fmt.Fprintln(p.w)
}
