// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one file format.
type Exporter interface {
	// Export converts the messages and returns the file content.
	Export(msgs []*model.Message) ([]byte, error)

	// FileExtension returns the file extension, dot included.
	FileExtension() string

	// MimeType returns the MIME type of the format.
	MimeType() string
}

// ErrUnknownFormat is returned by ForFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// Formats lists the accepted format names.
var Formats = []string{"text", "markdown", "html", "json"}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// Title heads markdown and HTML exports.
	Title string

	// IncludeTimestamps adds the send time of each message.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string

	// Now stamps the export; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		Title:             "AIMedNow transcript",
		IncludeTimestamps: true,
		Theme:             "dark",
		Now:               time.Now,
	}
}

func (o *Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "txt", "":
		return NewTextExporter(opts), nil
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// WriteFile writes exported content to path atomically.
func WriteFile(path string, data []byte) error {
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// DefaultFilename names an export file after its time.
func DefaultFilename(exp Exporter, now time.Time) string {
	return "aimednow_transcript_" + now.Format("20060102_150405") + exp.FileExtension()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// settled drops typing placeholders.
func settled(msgs []*model.Message) []*model.Message {
	out := make([]*model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m != nil && !m.IsPending() {
			out = append(out, m)
		}
	}
	return out
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// formatSize renders a byte count.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
