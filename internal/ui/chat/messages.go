// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/aimednow/internal/model"

// =============================================================================
// REPLY MESSAGES
// =============================================================================

// ReplyMsg carries a completed reply. The session has already replaced the
// placeholder; the view only needs to refresh.
type ReplyMsg struct {
	PlaceholderID string
	Reply         *model.Message
}

// FileReadMsg carries the bytes of a file named by /attach.
type FileReadMsg struct {
	Path string
	Name string
	Data []byte
	Err  error
}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// statusClearMsg clears the status notice if it is still the one set at seq.
type statusClearMsg struct {
	seq int
}
