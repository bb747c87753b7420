// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/aimednow/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports the transcript records with a small envelope.
type JSONExporter struct {
	options *Options
}

// jsonExport is the document written by JSONExporter.
type jsonExport struct {
	Title    string           `json:"title"`
	Exported time.Time        `json:"exported"`
	Messages []*model.Message `json:"messages"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts the transcript to indented JSON.
func (e *JSONExporter) Export(msgs []*model.Message) ([]byte, error) {
	doc := jsonExport{
		Title:    e.options.Title,
		Exported: e.options.now(),
		Messages: settled(msgs),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
