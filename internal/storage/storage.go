// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/aimednow/internal/crypt"
	"github.com/jeranaias/aimednow/internal/kv"
	"github.com/jeranaias/aimednow/internal/model"
)

// Persisted keys.
const (
	KeyTranscript = "all-chats"
	KeyTheme      = "themeColor"
	KeyAnswers    = "EHRAnswers"
)

// ErrCorrupt is returned when a persisted value cannot be decoded.
// Older widget installs stored raw HTML under all-chats; that is reported here.
var ErrCorrupt = errors.New("storage: corrupt value")

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore persists the chat history as a JSON array of records.
type TranscriptStore struct {
	kv kv.Store
}

// NewTranscriptStore creates a store over s.
func NewTranscriptStore(s kv.Store) *TranscriptStore {
	return &TranscriptStore{kv: s}
}

// Load returns the persisted messages. A missing key is an empty history.
func (t *TranscriptStore) Load(ctx context.Context) ([]*model.Message, error) {
	raw, err := t.kv.Get(ctx, KeyTranscript)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, fmt.Errorf("%w: %s is not a JSON array", ErrCorrupt, KeyTranscript)
	}
	msgs, err := model.UnmarshalMessages(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return msgs, nil
}

// Save replaces the persisted history with msgs. Placeholders are dropped.
func (t *TranscriptStore) Save(ctx context.Context, msgs []*model.Message) error {
	data, err := model.MarshalMessages(msgs)
	if err != nil {
		return err
	}
	if err := t.kv.Set(ctx, KeyTranscript, data); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

// Delete removes the persisted history. The answer cache is not touched.
func (t *TranscriptStore) Delete(ctx context.Context) error {
	if err := t.kv.Remove(ctx, KeyTranscript); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

// =============================================================================
// ANSWER CACHE
// =============================================================================

// AnswerCache is the ordered list of text extracted from uploaded EHRs.
// Entries are never deduplicated or capped.
type AnswerCache struct {
	kv     kv.Store
	sealer *crypt.Sealer

	// guards the read-modify-write in Append
	mu sync.Mutex
}

// NewAnswerCache creates a cache over s. A non-nil sealer encrypts the
// stored list; plaintext lists written earlier are still readable.
func NewAnswerCache(s kv.Store, sealer *crypt.Sealer) *AnswerCache {
	return &AnswerCache{kv: s, sealer: sealer}
}

// List returns every entry in upload order.
func (a *AnswerCache) List(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.list(ctx)
}

func (a *AnswerCache) list(ctx context.Context) ([]string, error) {
	raw, err := a.kv.Get(ctx, KeyAnswers)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	if crypt.IsSealed(raw) {
		if a.sealer == nil {
			return nil, fmt.Errorf("%w: %s is encrypted and no passphrase is set", ErrCorrupt, KeyAnswers)
		}
		raw, err = a.sealer.Open(raw)
		if err != nil {
			return nil, fmt.Errorf("open answers: %w", err)
		}
	}

	// JSON.parse(null) in the widget yields an empty list
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return entries, nil
}

// Append adds entry to the end of the list.
func (a *AnswerCache) Append(ctx context.Context, entry string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.list(ctx)
	if err != nil {
		return err
	}
	return a.save(ctx, append(entries, entry))
}

func (a *AnswerCache) save(ctx context.Context, entries []string) error {
	if entries == nil {
		entries = []string{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	value := string(data)
	if a.sealer != nil {
		if value, err = a.sealer.Seal(value); err != nil {
			return fmt.Errorf("seal answers: %w", err)
		}
	}

	if err := a.kv.Set(ctx, KeyAnswers, value); err != nil {
		return fmt.Errorf("save answers: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (a *AnswerCache) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.kv.Remove(ctx, KeyAnswers); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}
	return nil
}

// =============================================================================
// THEME STORE
// =============================================================================

// Theme is the persisted color preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme accepts "light"/"dark" and the legacy "light_mode"/"dark_mode".
func ParseTheme(s string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light", "light_mode":
		return ThemeLight, true
	case "dark", "dark_mode":
		return ThemeDark, true
	}
	return ThemeDark, false
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// ThemeStore persists the theme preference.
type ThemeStore struct {
	kv kv.Store
}

// NewThemeStore creates a store over s.
func NewThemeStore(s kv.Store) *ThemeStore {
	return &ThemeStore{kv: s}
}

// Get returns the stored theme. ok is false when nothing valid is stored.
func (t *ThemeStore) Get(ctx context.Context) (theme Theme, ok bool, err error) {
	raw, err := t.kv.Get(ctx, KeyTheme)
	if errors.Is(err, kv.ErrNotFound) {
		return ThemeDark, false, nil
	}
	if err != nil {
		return ThemeDark, false, fmt.Errorf("load theme: %w", err)
	}
	theme, ok = ParseTheme(raw)
	return theme, ok, nil
}

// Set stores theme.
func (t *ThemeStore) Set(ctx context.Context, theme Theme) error {
	if err := t.kv.Set(ctx, KeyTheme, string(theme)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
