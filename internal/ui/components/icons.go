// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import "github.com/jeranaias/aimednow/internal/model"

// IconGlyph returns the glyph shown before an uploaded file name.
func IconGlyph(icon model.Icon) string {
	switch icon {
	case model.IconImage:
		return "🖼"
	case model.IconPDF:
		return "📕"
	case model.IconDocument:
		return "📝"
	case model.IconSpreadsheet:
		return "📊"
	default:
		return "📎"
	}
}
