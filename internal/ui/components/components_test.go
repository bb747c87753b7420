// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/ui/styles"
)

func render(msg *model.Message) string {
	b := NewMessageBubble(msg, styles.NewTheme(true))
	b.Width = 400
	return ansi.Strip(b.View())
}

func TestWordWrap(t *testing.T) {
	assert.Equal(t, "one two\nthree", wordWrap("one two three", 8))
	assert.Equal(t, "a\n\nb", wordWrap("a\n\nb", 10))
	assert.Equal(t, "unchanged", wordWrap("unchanged", 0))
	assert.Equal(t, 5, maxLineWidth("ab\nabcde\nabc"))
}

func TestMessageBubble_EmergencyShowsNotice(t *testing.T) {
	out := render(model.NewEmergencyAnswer("cdc.gov"))
	assert.Contains(t, out, "cdc.gov")
	assert.Contains(t, out, model.EmergencyNotice)
}

func TestMessageBubble_PlainAnswerHasNoNotice(t *testing.T) {
	out := render(model.NewAnswer("Drink water."))
	assert.Contains(t, out, "Drink water.")
	assert.NotContains(t, out, "Call 911")
	assert.Contains(t, out, model.RoleAssistant.DisplayName())
}

func TestMessageBubble_Attachment(t *testing.T) {
	att := model.Attachment{Name: "scan.png", MIME: "image/png", Icon: model.IconImage}
	out := render(model.NewAttachmentMessage(att))
	assert.Contains(t, out, "Uploaded: scan.png")
	assert.Contains(t, out, IconGlyph(model.IconImage))
	assert.Contains(t, out, model.RoleUser.DisplayName())
}

func TestMessageBubble_Typing(t *testing.T) {
	b := NewMessageBubble(model.NewTyping(), styles.NewTheme(false))
	b.SpinnerFrame = "*"
	out := ansi.Strip(b.View())
	assert.Contains(t, out, "* "+TypingLabel)
}

func TestMessageBubble_Error(t *testing.T) {
	out := render(model.NewError(model.QnAErrorText))
	assert.Contains(t, out, model.QnAErrorText)
}

func TestMessageBubble_NilMessage(t *testing.T) {
	b := NewMessageBubble(nil, styles.NewTheme(true))
	assert.NotPanics(t, func() { _ = b.View() })
}

func TestNotePanel_ShowsOnlyActiveView(t *testing.T) {
	msg := model.NewNoteMessage("A note.", "ORIGINAL TEXT", "SIMPLE TEXT")
	out := render(msg)
	assert.Contains(t, out, NoteTitle)
	assert.Contains(t, out, "SIMPLE TEXT")
	assert.NotContains(t, out, "ORIGINAL TEXT")

	msg.Note.Show(model.ViewOriginal)
	out = render(msg)
	assert.Contains(t, out, "ORIGINAL TEXT")
	assert.NotContains(t, out, "SIMPLE TEXT")
}

func TestIconGlyph_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for _, icon := range []model.Icon{model.IconImage, model.IconPDF, model.IconDocument, model.IconSpreadsheet, model.IconOther} {
		g := IconGlyph(icon)
		require.NotEmpty(t, g)
		assert.False(t, seen[g], "duplicate glyph for %s", icon)
		seen[g] = true
	}
}

func TestWelcome(t *testing.T) {
	out := ansi.Strip(Welcome(styles.NewTheme(true), 100, 20))
	assert.Contains(t, out, model.WelcomeTitle)
	assert.Contains(t, out, "Start a conversation")
}

func TestStatusBar(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme(true))
	bar.Width = 120
	bar.Notice = "Copied"
	bar.InFlight = 2
	bar.Messages = 7
	out := ansi.Strip(bar.View())
	assert.Contains(t, out, "Copied")
	assert.Contains(t, out, "2 pending")
	assert.Contains(t, out, "7 msgs")

	bar.Width = 10
	assert.NotPanics(t, func() { _ = bar.View() })
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer()
	out := ansi.Strip(r.Render("**Rest** and fluids", 60, true))
	assert.Contains(t, out, "Rest")
	assert.Contains(t, out, "fluids")
	assert.NotContains(t, out, "**")

	_ = r.Render("again", 60, true)
	_ = r.Render("again", 60, false)
	assert.Len(t, r.renderers, 2)
}

func TestRenderTranscript(t *testing.T) {
	msgs := []*model.Message{model.NewUserText("hello"), model.NewAnswer("hi there")}
	out := ansi.Strip(RenderTranscript(msgs, styles.NewTheme(true), nil, 100, ""))
	assert.True(t, strings.Index(out, "hello") < strings.Index(out, "hi there"))
}
