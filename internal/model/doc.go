// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
//
// Records are structured, not markup: each Message carries a Kind that the
// terminal renderer and the exporters turn into output on demand.
//
// # Key Types
//
//   - Transcript: Ordered history with replace-by-ID for placeholders
//   - Message: Single record with role, kind, content and optional extras
//   - Note: Doctor's note with a transient Simplified/Original view
//   - Attachment: File metadata with a sniffed MIME type and icon family
//
// # Usage
//
//	t := model.NewTranscript(nil)
//	q := model.NewUserText("What is the dosage?")
//	typing := model.NewTyping()
//	t.Append(q, typing)
//	t.Replace(typing.ID, model.NewAnswer("Take 200mg every 6 hours."))
package model
