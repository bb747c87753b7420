// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/jeranaias/aimednow/internal/model"
)

// TextExporter exports the transcript as plain text.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new plain text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export writes one block per message, separated by blank lines.
func (e *TextExporter) Export(msgs []*model.Message) ([]byte, error) {
	var sb strings.Builder
	for i, msg := range settled(msgs) {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString("[" + formatTimestamp(msg.Timestamp) + "] ")
		}
		sb.WriteString(msg.Role.DisplayName())
		sb.WriteString(":\n")
		sb.WriteString(msg.PlainText())
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain; charset=utf-8"
}
