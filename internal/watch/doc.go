// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch uploads images dropped into an inbox directory.
//
// Events from fsnotify are debounced per path, so a file is sent once its
// writer has gone quiet. Uploads run on an errgroup bounded by
// max_concurrent and are paced by a token bucket (uploads_per_minute).
// A file is sent again only when its size or modification time changes.
package watch
