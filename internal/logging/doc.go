// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap loggers used across aimednow.
//
// Logs go to a daily JSON-lines file (aimednow_YYYY-MM-DD.log) under the
// configured log directory. The TUI never logs to the terminal; serve and
// watch additionally tee a console encoder to stderr.
package logging
