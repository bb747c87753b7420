// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package crypt

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Low iteration count keeps the suite fast.
const testIterations = 1000

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer("correct horse", WithIterations(testIterations))
	require.NoError(t, err)

	sealed, err := s.Seal(`["Ibuprofen 200mg"]`)
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "Ibuprofen")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, `["Ibuprofen 200mg"]`, plain)
}

func TestSealer_NonceIsFresh(t *testing.T) {
	s, err := NewSealer("pw", WithIterations(testIterations))
	require.NoError(t, err)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_OpensOtherSealersOutput(t *testing.T) {
	first, err := NewSealer("pw", WithIterations(testIterations))
	require.NoError(t, err)
	second, err := NewSealer("pw", WithIterations(testIterations))
	require.NoError(t, err)

	sealed, err := first.Seal("note text")
	require.NoError(t, err)

	plain, err := second.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "note text", plain)
}

func TestSealer_WrongPassphrase(t *testing.T) {
	s, err := NewSealer("right", WithIterations(testIterations))
	require.NoError(t, err)
	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	other, err := NewSealer("wrong", WithIterations(testIterations))
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestSealer_Tampered(t *testing.T) {
	s, err := NewSealer("pw", WithIterations(testIterations))
	require.NoError(t, err)

	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, EncryptedPrefix))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	_, err = s.Open(EncryptedPrefix + base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = s.Open(EncryptedPrefix + "AAAA")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestSealer_Errors(t *testing.T) {
	_, err := NewSealer("")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)

	s, err := NewSealer("pw", WithIterations(testIterations))
	require.NoError(t, err)
	_, err = s.Open(`["plain"]`)
	assert.ErrorIs(t, err, ErrNotSealed)
}
