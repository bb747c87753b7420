// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/aimednow/internal/util"
)

// =============================================================================
// FIXED TEXT
// =============================================================================

const (
	// EmergencyNotice follows every emergency-classified answer.
	EmergencyNotice = "This question appears to involve a medical or safety emergency. " +
		"If you need immediate assistance in the USA: Call 911. " +
		"If someone is in danger, please seek professional help immediately"

	// QnAErrorText replaces the placeholder when a question fails.
	QnAErrorText = "Oops! Something went wrong while retrieving the response. Please try again."

	// UploadErrorText replaces the placeholder when an upload fails.
	UploadErrorText = "Error processing the file. Please try again."

	// NoteLeadIn precedes a doctor's note translation.
	NoteLeadIn = "I've detected this is a doctor's note and translated it to make it easier to understand:"

	// ImageFollowUp follows the description of an image that is not a doctor's note.
	ImageFollowUp = "Please provide your questions about this image, and I'll do my best to assist you!"

	// EmergencySourcesPrefix starts the body of an emergency answer.
	EmergencySourcesPrefix = "Sources: \n"

	// WelcomeTitle and WelcomeBody are shown while the transcript is empty.
	WelcomeTitle = "AIMedNow"
	WelcomeBody  = "Start a conversation and explore AI-powered medical assistance. " +
		"Your chat history will be displayed here."

	// UploadedPrefix labels an outgoing attachment record.
	UploadedPrefix = "Uploaded: "
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "AIMedNow"
	default:
		return string(r)
	}
}

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind tells the renderer how to draw a message.
type Kind string

const (
	// KindText is an outgoing question.
	KindText Kind = "text"
	// KindAttachment is an outgoing file record.
	KindAttachment Kind = "attachment"
	// KindTyping is a pending-reply placeholder. Never persisted.
	KindTyping Kind = "typing"
	// KindAnswer is a markdown QnA answer (possibly an emergency answer).
	KindAnswer Kind = "answer"
	// KindDescription is the reply to a non-note image upload.
	KindDescription Kind = "description"
	// KindNote is a doctor's note with Simplified and Original views.
	KindNote Kind = "note"
	// KindError is a failed request, rendered in the error state.
	KindError Kind = "error"
)

// =============================================================================
// NOTE TYPE
// =============================================================================

// NoteView selects which text of a doctor's note is shown.
type NoteView int

const (
	// ViewSimplified is the initial view.
	ViewSimplified NoteView = iota
	ViewOriginal
)

// String returns the tab label.
func (v NoteView) String() string {
	if v == ViewOriginal {
		return "Original"
	}
	return "Simplified"
}

// ParseNoteView accepts "simplified" or "original" (any case).
func ParseNoteView(s string) (NoteView, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simplified":
		return ViewSimplified, true
	case "original":
		return ViewOriginal, true
	}
	return ViewSimplified, false
}

// Note holds both texts of a translated doctor's note.
// The active view is not serialized, so a reloaded note shows Simplified.
type Note struct {
	Original   string `json:"original"`
	Simplified string `json:"simplified"`

	view NoteView
}

// View returns the active view.
func (n *Note) View() NoteView { return n.view }

// Show makes v the active view.
func (n *Note) Show(v NoteView) { n.view = v }

// Toggle switches to the other view and returns it.
func (n *Note) Toggle() NoteView {
	if n.view == ViewSimplified {
		n.view = ViewOriginal
	} else {
		n.view = ViewSimplified
	}
	return n.view
}

// Active returns the text of the active view.
func (n *Note) Active() string {
	if n.view == ViewOriginal {
		return n.Original
	}
	return n.Simplified
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one record of the transcript.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Content is the question, the answer markdown, the description, or the error text
	Content string `json:"content"`

	// Emergency marks an answer whose Content is the sources list
	Emergency bool `json:"emergency,omitempty"`

	Attachment *Attachment `json:"attachment,omitempty"`
	Note       *Note       `json:"note,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, kind Kind, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserText creates an outgoing question.
func NewUserText(text string) *Message {
	return NewMessage(RoleUser, KindText, text)
}

// NewAttachmentMessage creates an outgoing "Uploaded: <name>" record.
func NewAttachmentMessage(att Attachment) *Message {
	msg := NewMessage(RoleUser, KindAttachment, UploadedPrefix+att.Name)
	msg.Attachment = &att
	return msg
}

// NewTyping creates a pending-reply placeholder.
func NewTyping() *Message {
	return NewMessage(RoleAssistant, KindTyping, "")
}

// NewAnswer creates a QnA answer. The content is trimmed.
func NewAnswer(answer string) *Message {
	return NewMessage(RoleAssistant, KindAnswer, strings.TrimSpace(answer))
}

// NewEmergencyAnswer creates the sources-plus-notice reply to an emergency question.
func NewEmergencyAnswer(source string) *Message {
	msg := NewMessage(RoleAssistant, KindAnswer, EmergencySourcesPrefix+strings.TrimSpace(source))
	msg.Emergency = true
	return msg
}

// NewDescription creates the reply to a non-note image: description plus follow-up.
func NewDescription(answer string) *Message {
	content := ImageFollowUp
	if d := strings.TrimSpace(answer); d != "" {
		content = d + "\n\n" + ImageFollowUp
	}
	return NewMessage(RoleAssistant, KindDescription, content)
}

// NewNoteMessage creates the reply to a doctor's note upload.
func NewNoteMessage(description, original, simplified string) *Message {
	content := NoteLeadIn
	if d := strings.TrimSpace(description); d != "" {
		content = d + "\n\n" + NoteLeadIn
	}
	msg := NewMessage(RoleAssistant, KindNote, content)
	msg.Note = &Note{Original: original, Simplified: simplified}
	return msg
}

// NewError creates an error-state reply.
func NewError(text string) *Message {
	return NewMessage(RoleAssistant, KindError, text)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsPending reports whether m is a typing placeholder.
func (m *Message) IsPending() bool {
	return m.Kind == KindTyping
}

// PlainText returns the message as plain text, the way it is copied to the
// clipboard: emergency answers carry the notice, notes carry the active view.
func (m *Message) PlainText() string {
	switch {
	case m.Kind == KindAnswer && m.Emergency:
		return m.Content + "\n\n" + EmergencyNotice
	case m.Kind == KindNote && m.Note != nil:
		return m.Content + "\n\n" + m.Note.Active()
	default:
		return m.Content
	}
}

// Preview returns a one-line truncated preview of the message.
func (m *Message) Preview(maxWidth int) string {
	return util.Preview(m.PlainText(), maxWidth)
}

// Clone returns a deep copy, including the note's active view.
func (m *Message) Clone() *Message {
	c := *m
	if m.Attachment != nil {
		att := *m.Attachment
		c.Attachment = &att
	}
	if m.Note != nil {
		note := *m.Note
		c.Note = &note
	}
	return &c
}
