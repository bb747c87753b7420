// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the three persisted pieces of aimednow state on
// top of a kv.Store.
//
// # Key Types
//
//   - TranscriptStore: chat history under "all-chats"
//   - AnswerCache: extracted EHR text under "EHRAnswers", optionally sealed
//   - ThemeStore: "light" or "dark" under "themeColor"
//
// The key names match the browser widget so a profile exported from it can
// be loaded into the same store.
package storage
