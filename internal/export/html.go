// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/jeranaias/aimednow/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// markdownEngine renders message bodies. Raw HTML in answers is dropped.
var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// RenderMarkdown converts markdown to an HTML fragment. If conversion fails
// the escaped text is returned.
func RenderMarkdown(md string) string {
	text := strings.TrimSpace(md)
	if text == "" {
		return ""
	}
	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &out); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return out.String()
}

// HTMLExporter exports the transcript as a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts the transcript to an HTML page with embedded CSS.
func (e *HTMLExporter) Export(msgs []*model.Message) ([]byte, error) {
	msgs = settled(msgs)
	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(e.options.Title)))
	sb.WriteString("<meta name=\"generator\" content=\"aimednow\">\n")
	sb.WriteString(fmt.Sprintf("<meta name=\"date\" content=\"%s\">\n", e.options.now().Format(time.RFC3339)))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n<div class=\"container\">\n", theme))
	sb.WriteString(fmt.Sprintf("<header><h1>%s</h1></header>\n", html.EscapeString(e.options.Title)))

	sb.WriteString("<main class=\"conversation\">\n")
	if len(msgs) == 0 {
		sb.WriteString("<p class=\"welcome\">" + html.EscapeString(model.WelcomeBody) + "</p>\n")
	}
	for _, msg := range msgs {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("</main>\n</div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<section class=\"message %s %s\" id=\"m-%s\">\n",
		html.EscapeString(string(msg.Role)), html.EscapeString(string(msg.Kind)), html.EscapeString(msg.ID)))

	sb.WriteString("<div class=\"meta\"><span class=\"role\">" + html.EscapeString(msg.Role.DisplayName()) + "</span>")
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		sb.WriteString(fmt.Sprintf(" <time datetime=\"%s\">%s</time>",
			msg.Timestamp.Format(time.RFC3339), formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("</div>\n<div class=\"body\">\n")

	switch msg.Kind {
	case model.KindAttachment:
		sb.WriteString("<p class=\"attachment\">📎 " + html.EscapeString(msg.Content) + "</p>\n")
	case model.KindError:
		sb.WriteString("<p class=\"error\">" + html.EscapeString(msg.Content) + "</p>\n")
	case model.KindNote:
		sb.WriteString(RenderMarkdown(msg.Content))
		if msg.Note != nil {
			sb.WriteString("<div class=\"note\"><h4>" + model.ViewSimplified.String() + "</h4>\n")
			sb.WriteString(RenderMarkdown(msg.Note.Simplified))
			sb.WriteString("<h4>" + model.ViewOriginal.String() + "</h4>\n")
			sb.WriteString(RenderMarkdown(msg.Note.Original))
			sb.WriteString("</div>\n")
		}
	default:
		sb.WriteString(RenderMarkdown(msg.Content))
		if msg.Emergency {
			sb.WriteString("<p class=\"emergency\"><em>" + html.EscapeString(model.EmergencyNotice) + "</em></p>\n")
		}
	}

	sb.WriteString("</div>\n</section>\n")
	return sb.String()
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html; charset=utf-8"
}

const pageCSS = `<style>
body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.5; }
.dark-theme { background: #1e1e2e; color: #cdd6f4; }
.light-theme { background: #f8fafc; color: #1f2937; }
.container { max-width: 860px; margin: 0 auto; padding: 24px; }
header h1 { color: #2dd4bf; }
.message { border-radius: 10px; padding: 10px 14px; margin: 14px 0; }
.dark-theme .message.user { background: #1e3a5f; margin-left: 15%; }
.dark-theme .message.assistant { background: #27293d; margin-right: 15%; }
.light-theme .message.user { background: #dbeafe; margin-left: 15%; }
.light-theme .message.assistant { background: #e6fffa; margin-right: 15%; }
.meta { font-size: 0.85em; opacity: 0.7; }
.role { font-weight: bold; }
.error { color: #fb7185; }
.emergency { color: #fbbf24; }
.note { border-left: 3px solid #14b8a6; padding-left: 10px; }
.welcome { text-align: center; opacity: 0.7; }
pre { overflow-x: auto; padding: 8px; border-radius: 6px; background: rgba(0,0,0,0.2); }
</style>
`
