// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves aimednow settings.
//
// Settings live under ~/.aimednow (or $AIMEDNOW_HOME) as config.toml,
// config.json or config.yaml; the first file found wins. AIMEDNOW_*
// environment variables are applied on top, and anything left unset falls
// back to Default().
//
// The sections map onto the commands that read them:
//
//   - [api]     QnA and EHR endpoints, request timeout
//   - [storage] transcript/theme/answer-cache backend (sqlite, redis, memory)
//   - [ui]      theme and delete confirmation
//   - [server]  aimednow serve
//   - [watch]   aimednow watch
//   - [log]     log level and directory
//
// The answer-cache passphrase is never read from a file, only from
// AIMEDNOW_PASSPHRASE; see Passphrase.
//
//	cfg, err := config.Load()
//	if err != nil && cfg == nil {
//		return err
//	}
//	timeout := cfg.API.Timeout()
package config
