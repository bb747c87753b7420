// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/aimednow/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports the transcript to Markdown.
type MarkdownExporter struct {
	options *Options
}

// frontMatter is the YAML header of a Markdown export.
type frontMatter struct {
	Title     string    `yaml:"title"`
	Exported  time.Time `yaml:"exported"`
	Messages  int       `yaml:"messages"`
	Generator string    `yaml:"generator"`
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts the transcript to Markdown with a YAML front matter.
func (e *MarkdownExporter) Export(msgs []*model.Message) ([]byte, error) {
	msgs = settled(msgs)

	header, err := yaml.Marshal(frontMatter{
		Title:     e.options.Title,
		Exported:  e.options.now().Truncate(time.Second),
		Messages:  len(msgs),
		Generator: "aimednow",
	})
	if err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(e.options.Title)))

	for i, msg := range msgs {
		sb.WriteString(e.heading(msg))
		sb.WriteString(messageMarkdown(msg))
		sb.WriteString("\n\n")
		if i < len(msgs)-1 {
			sb.WriteString("---\n\n")
		}
	}
	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) heading(msg *model.Message) string {
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		return fmt.Sprintf("### %s <sub>%s</sub>\n\n", msg.Role.DisplayName(), formatShortTimestamp(msg.Timestamp))
	}
	return fmt.Sprintf("### %s\n\n", msg.Role.DisplayName())
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown; charset=utf-8"
}

// =============================================================================
// MESSAGE BODIES
// =============================================================================

// messageMarkdown renders the body of one message. Doctor's notes carry both
// texts, Simplified first.
func messageMarkdown(msg *model.Message) string {
	switch msg.Kind {
	case model.KindAttachment:
		if msg.Attachment == nil {
			return msg.Content
		}
		return fmt.Sprintf("📎 %s *(%s, %s)*",
			escapeMarkdown(msg.Content), msg.Attachment.MIME, formatSize(msg.Attachment.Size))

	case model.KindError:
		return "> ⚠ " + msg.Content

	case model.KindAnswer:
		if msg.Emergency {
			return msg.Content + "\n\n> *" + model.EmergencyNotice + "*"
		}
		return msg.Content

	case model.KindNote:
		if msg.Note == nil {
			return msg.Content
		}
		var sb strings.Builder
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n#### " + model.ViewSimplified.String() + "\n\n")
		sb.WriteString(msg.Note.Simplified)
		sb.WriteString("\n\n#### " + model.ViewOriginal.String() + "\n\n")
		sb.WriteString(msg.Note.Original)
		return sb.String()

	default:
		return msg.Content
	}
}

// escapeMarkdown escapes characters that would start Markdown syntax.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"#", `\#`,
		"[", `\[`,
		"]", `\]`,
		"<", `&lt;`,
		">", `&gt;`,
	)
	return replacer.Replace(s)
}
