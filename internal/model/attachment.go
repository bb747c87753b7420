// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Icon names the MIME family of an attachment.
type Icon string

const (
	IconImage       Icon = "image"
	IconPDF         Icon = "pdf"
	IconDocument    Icon = "document"
	IconSpreadsheet Icon = "spreadsheet"
	IconOther       Icon = "other"
)

// MaxAttachmentSize bounds the bytes read for one upload.
const MaxAttachmentSize int64 = 20 << 20

// Attachment describes an uploaded file. The bytes are never stored.
type Attachment struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
	Icon Icon   `json:"icon"`
}

// IsImage reports whether the attachment is sent to the EHR endpoint.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIME, "image/")
}

// IconFor picks the icon family for a MIME type.
func IconFor(mime string) Icon {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return IconImage
	case strings.Contains(mime, "pdf"):
		return IconPDF
	case strings.Contains(mime, "word") || strings.Contains(mime, "document"):
		return IconDocument
	case strings.Contains(mime, "excel") || strings.Contains(mime, "sheet"):
		return IconSpreadsheet
	default:
		return IconOther
	}
}

// DetectMIME sniffs the MIME type from the first bytes of a file, falling
// back to the extension of name. Unknown types are application/octet-stream.
func DetectMIME(name string, head []byte) string {
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext != "" {
		if kind := filetype.GetType(ext); kind != filetype.Unknown {
			return kind.MIME.Value
		}
	}
	return "application/octet-stream"
}

// DetectAttachment builds the Attachment record for a file.
func DetectAttachment(name string, head []byte, size int64) Attachment {
	mime := DetectMIME(name, head)
	return Attachment{
		Name: name,
		MIME: mime,
		Size: size,
		Icon: IconFor(mime),
	}
}
