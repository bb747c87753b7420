// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes a session over a local JSON API, so a browser
// widget or a script can drive the same transcript as the TUI.
//
// # Endpoints
//
//   - GET    /health                     - liveness, message and in-flight counts
//   - GET    /api/transcript             - all records
//   - DELETE /api/transcript             - delete all chats (answer cache kept)
//   - GET    /api/transcript/export      - ?format=text|markdown|html|json
//   - GET    /transcript.html            - the transcript as a page
//   - POST   /api/messages               - {"text": "..."} asks a question
//   - POST   /api/attachments            - multipart "file" uploads an attachment
//   - PUT    /api/notes/:id/view         - {"view": "original"} selects a note tab
//   - GET    /api/theme                  - stored theme
//   - PUT    /api/theme                  - {"theme": "light"}
//   - POST   /api/theme/toggle           - flip the theme
//   - GET    /api/answers                - cached EHR text
//   - DELETE /api/answers                - clear the answer cache
//
// # Middleware
//
//   - gin recovery, zap request logging, security headers
//   - CORS from server.allowed_origins (loopback origins only when empty)
//   - per-IP token bucket limits (golang.org/x/time/rate)
//   - optional bearer token compared in constant time
package server
