// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides the string key-value store behind aimednow's
// persisted state (transcript, theme, EHR answer cache).
//
// # Backends
//
//   - sqlite: single-file database (modernc.org/sqlite), the default
//   - redis: shared store (go-redis), for several clients on one history
//   - memory: process-local, used by tests and --ephemeral runs
//
// Open picks a backend from Options. A missing key is reported as ErrNotFound.
package kv
