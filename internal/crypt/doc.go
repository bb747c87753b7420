// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package crypt seals short strings at rest with AES-256-GCM under a
// PBKDF2-SHA256 key derived from a passphrase.
//
// It protects the EHR answer cache when storage.encrypt_answers is set;
// the passphrase comes from AIMEDNOW_PASSPHRASE.
package crypt
