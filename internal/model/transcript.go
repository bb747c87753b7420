// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
)

// Transcript is the ordered chat history.
// It is not safe for concurrent use; session.Session guards it.
type Transcript struct {
	Messages []*Message
}

// NewTranscript wraps msgs (which may be nil).
func NewTranscript(msgs []*Message) *Transcript {
	return &Transcript{Messages: msgs}
}

// Append adds messages to the end.
func (t *Transcript) Append(msgs ...*Message) {
	t.Messages = append(t.Messages, msgs...)
}

// Replace swaps the message with the given ID for repl, in place.
// It returns false when id is not in the transcript.
func (t *Transcript) Replace(id string, repl ...*Message) bool {
	for i, m := range t.Messages {
		if m.ID != id {
			continue
		}
		out := make([]*Message, 0, len(t.Messages)-1+len(repl))
		out = append(out, t.Messages[:i]...)
		out = append(out, repl...)
		out = append(out, t.Messages[i+1:]...)
		t.Messages = out
		return true
	}
	return false
}

// Find returns the message with the given ID, or nil.
func (t *Transcript) Find(id string) *Message {
	for _, m := range t.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Len returns the number of messages, placeholders included.
func (t *Transcript) Len() int {
	return len(t.Messages)
}

// IsEmpty reports whether there is nothing to show (the welcome text case).
func (t *Transcript) IsEmpty() bool {
	return len(t.Messages) == 0
}

// Clear removes every message.
func (t *Transcript) Clear() {
	t.Messages = nil
}

// Pending returns the number of typing placeholders.
func (t *Transcript) Pending() int {
	n := 0
	for _, m := range t.Messages {
		if m.IsPending() {
			n++
		}
	}
	return n
}

// LastReply returns the most recent settled assistant message, or nil.
func (t *Transcript) LastReply() *Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		m := t.Messages[i]
		if m.Role == RoleAssistant && !m.IsPending() {
			return m
		}
	}
	return nil
}

// Persistable returns the messages that are written to storage.
func (t *Transcript) Persistable() []*Message {
	out := make([]*Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		if !m.IsPending() {
			out = append(out, m)
		}
	}
	return out
}

// Snapshot returns a deep copy of the messages for readers outside the lock.
func (t *Transcript) Snapshot() []*Message {
	out := make([]*Message, len(t.Messages))
	for i, m := range t.Messages {
		out[i] = m.Clone()
	}
	return out
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// MarshalMessages encodes msgs as the persisted JSON array.
// Placeholders are dropped.
func MarshalMessages(msgs []*Message) (string, error) {
	keep := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.IsPending() {
			keep = append(keep, m)
		}
	}
	data, err := json.Marshal(keep)
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return string(data), nil
}

// UnmarshalMessages decodes a persisted JSON array.
// An empty string is an empty transcript.
func UnmarshalMessages(s string) ([]*Message, error) {
	if s == "" {
		return nil, nil
	}
	var msgs []*Message
	if err := json.Unmarshal([]byte(s), &msgs); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	out := msgs[:0]
	for _, m := range msgs {
		if m != nil && !m.IsPending() {
			out = append(out, m)
		}
	}
	return out, nil
}
