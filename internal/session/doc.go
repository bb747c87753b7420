// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds aimednow's application state and runs the chat flows.
//
// A Session owns the transcript, the EHR answer cache and the theme. Every
// surface (TUI, REPL, local API, inbox watcher) drives the same operations:
//
//   - BeginText / CompleteText: question, placeholder, prompt, reply
//   - BeginUpload / CompleteUpload: attachment record, EHR upload, reply
//   - DeleteTranscript, ClearAnswers, ToggleTheme, ShowNoteView
//
// Begin* mutates state and persists without touching the network, so the
// outgoing record is saved before any request starts. Complete* performs the
// request outside the lock and replaces only its own placeholder.
//
// # Usage
//
//	s, err := session.New(ctx, session.Options{Backend: client, Store: store})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	p, _ := s.BeginText(ctx, "What is the dosage?")
//	reply := s.CompleteText(p)
package session
