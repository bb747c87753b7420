// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// TypingLabel follows the spinner frame of a pending reply.
const TypingLabel = "AIMedNow is typing..."

// MessageBubble renders one transcript record.
type MessageBubble struct {
	Message       *model.Message
	Width         int
	ShowTimestamp bool

	// SpinnerFrame is drawn in front of TypingLabel for placeholders
	SpinnerFrame string

	// Markdown renders answers; nil means plain word-wrapped text
	Markdown *MarkdownRenderer

	theme *styles.Theme
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	if msg == nil {
		msg = model.NewError("")
	}
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
	}
}

// View renders the bubble with its role header.
func (b *MessageBubble) View() string {
	msg := b.Message
	if msg.Role == model.RoleUser {
		return b.renderOutgoing()
	}

	var body string
	style := b.theme.AssistantBubble
	switch msg.Kind {
	case model.KindTyping:
		return b.renderTyping()
	case model.KindError:
		style = b.theme.ErrorBubble
		body = wordWrap(msg.Content, b.contentWidth())
	case model.KindNote:
		body = b.renderMarkdown(msg.Content)
		if msg.Note != nil {
			body += "\n\n" + NewNotePanel(msg.Note, b.theme, b.contentWidth()).View()
		}
	case model.KindAnswer:
		body = b.renderMarkdown(msg.Content)
		if msg.Emergency {
			body += "\n\n" + b.theme.Emergency.Render(wordWrap(model.EmergencyNotice, b.contentWidth()))
		}
	default:
		body = b.renderMarkdown(msg.Content)
	}

	return lipgloss.JoinVertical(lipgloss.Left, b.header(), style.Render(body))
}

// ==========================================================================
// OUTGOING - questions and uploads
// ==========================================================================

func (b *MessageBubble) renderOutgoing() string {
	msg := b.Message
	content := msg.Content
	if msg.Kind == model.KindAttachment && msg.Attachment != nil {
		content = IconGlyph(msg.Attachment.Icon) + " " + b.theme.Attachment.Render(msg.Content)
	}
	if content == "" {
		content = "..."
	}

	wrapped := wordWrap(content, b.contentWidth())
	bubble := b.theme.UserBubble.Render(wrapped)

	leftMargin := maxInt(0, b.Width-lipgloss.Width(bubble))
	margin := lipgloss.NewStyle().MarginLeft(leftMargin)
	header := b.header()
	headerMargin := lipgloss.NewStyle().MarginLeft(maxInt(0, b.Width-lipgloss.Width(header)))

	return lipgloss.JoinVertical(lipgloss.Left, headerMargin.Render(header), margin.Render(bubble))
}

// ==========================================================================
// INCOMING - placeholders and replies
// ==========================================================================

func (b *MessageBubble) renderTyping() string {
	frame := b.SpinnerFrame
	if frame == "" {
		frame = "…"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		b.header(),
		b.theme.Typing.Render(frame+" "+TypingLabel))
}

func (b *MessageBubble) renderMarkdown(md string) string {
	if b.Markdown == nil {
		return wordWrap(md, b.contentWidth())
	}
	return b.Markdown.Render(md, b.contentWidth(), b.theme.IsDark)
}

func (b *MessageBubble) header() string {
	parts := []string{b.theme.RoleLabel.Render(b.Message.Role.DisplayName())}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		parts = append(parts, b.theme.Timestamp.Render(b.Message.Timestamp.Format("15:04")))
	}
	return strings.Join(parts, " ")
}

func (b *MessageBubble) contentWidth() int {
	return maxInt(20, b.Width-12)
}

// RenderTranscript renders every message separated by blank lines.
func RenderTranscript(msgs []*model.Message, theme *styles.Theme, md *MarkdownRenderer, width int, spinnerFrame string) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		b := NewMessageBubble(msg, theme)
		b.Width = width
		b.Markdown = md
		b.SpinnerFrame = spinnerFrame
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n\n")
}
