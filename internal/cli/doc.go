// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the aimednow command line.
//
// Running aimednow with no command starts the full-screen chat. The other
// commands drive the same session from scripts and shells:
//
//	aimednow ask "What is the dosage?"     One question, answer on stdout
//	aimednow chat                           Line-editing REPL
//	aimednow upload scan.png                Upload an attachment
//	aimednow history --format html -o t.html
//	aimednow clear                          Delete all chats (asks first)
//	aimednow forget                         Clear the EHR answer cache
//	aimednow theme [dark|light|toggle]
//	aimednow config show|get|set|path
//	aimednow watch DIR                      Upload images dropped into DIR
//	aimednow serve                          Local JSON API
//	aimednow version
//
// Global flags:
//
//	--config FILE    load this config file instead of ~/.aimednow/config.toml
//	--ephemeral      keep everything in memory for this run
//	--log-level LVL  override log.level
//	-v, --verbose    also log to stderr
//
// Exit codes follow ExitSuccess .. ExitNetworkError in errors.go.
package cli
