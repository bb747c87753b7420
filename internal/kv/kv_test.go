// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sq, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory":   NewMemory(),
		"sqlite":   sq,
		"prefixed": WithPrefix(NewMemory(), "profile"),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "all-chats")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "all-chats", "[]"))
			v, err := s.Get(ctx, "all-chats")
			require.NoError(t, err)
			assert.Equal(t, "[]", v)

			// last write wins
			require.NoError(t, s.Set(ctx, "all-chats", `[{"id":"1"}]`))
			v, err = s.Get(ctx, "all-chats")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"1"}]`, v)

			require.NoError(t, s.Remove(ctx, "all-chats"))
			_, err = s.Get(ctx, "all-chats")
			assert.ErrorIs(t, err, ErrNotFound)

			// removing a missing key is not an error
			assert.NoError(t, s.Remove(ctx, "never-set"))
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "themeColor", "light"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "themeColor")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}

func TestPrefix_Isolates(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()
	a := WithPrefix(base, "a")
	b := WithPrefix(base, "b:")

	require.NoError(t, a.Set(ctx, "themeColor", "dark"))
	_, err := b.Get(ctx, "themeColor")
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := base.Get(ctx, "a:themeColor")
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	_, err := m.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set(context.Background(), "x", "y"), ErrClosed)
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: "memory", Prefix: "p"})
	require.NoError(t, err)
	_, ok := s.(*prefixed)
	assert.True(t, ok)
	s.Close()

	s, err = Open(ctx, Options{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	_, ok = s.(*SQLiteStore)
	assert.True(t, ok)
	s.Close()

	_, err = Open(ctx, Options{Backend: "floppy"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "redis", RedisURL: "not a url"})
	assert.Error(t, err)
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)
}

func TestSQLite_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, "EHRAnswers", `["x"]`))
		}()
	}
	wg.Wait()

	v, err := s.Get(ctx, "EHRAnswers")
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, v)
}
