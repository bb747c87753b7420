// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been set or was removed.
var ErrNotFound = errors.New("kv: key not found")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("kv: store closed")

// Store is a string key-value store with localStorage semantics:
// last write wins, values are opaque strings.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	// Backend is "sqlite", "redis" or "memory"
	Backend string
	// Path is the SQLite database file
	Path string
	// RedisURL is a redis:// or rediss:// URL
	RedisURL string
	// Prefix is prepended to every key
	Prefix string
}

// Open opens the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)

	switch strings.ToLower(opts.Backend) {
	case "", "sqlite":
		store, err = OpenSQLite(ctx, opts.Path)
	case "redis":
		store, err = OpenRedis(ctx, opts.RedisURL)
	case "memory":
		store = NewMemory()
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if opts.Prefix != "" {
		store = WithPrefix(store, opts.Prefix)
	}
	return store, nil
}

// =============================================================================
// PREFIXED STORE
// =============================================================================

type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix namespaces every key of s under prefix + ":".
func WithPrefix(s Store, prefix string) Store {
	return &prefixed{inner: s, prefix: strings.TrimSuffix(prefix, ":") + ":"}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

func (p *prefixed) Close() error {
	return p.inner.Close()
}
