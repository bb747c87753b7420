// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_WritesWithPerm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, AtomicWriteFile(path, []byte("theme = \"dark\"\n"), 0o600))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theme = \"dark\"\n", string(content))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestAtomicWriteFile_CreatesPrivateParents(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "exports", "2025", "transcript.html")

	require.NoError(t, AtomicWriteFile(path, []byte("<html></html>"), 0o600))

	_, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(root, "exports"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
}

func TestAtomicWriteFile_ReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.json")

	require.NoError(t, AtomicWriteFile(path, []byte(`{"messages":[1]}`), 0o600))
	require.NoError(t, AtomicWriteFile(path, []byte(`{"messages":[]}`), 0o600))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"messages":[]}`, string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "transcript.json", entries[0].Name())
}

func TestAtomicWriteFile_EmptyData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, AtomicWriteFile(path, nil, 0o600))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestAtomicWriteFile_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(target, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o600))

	assert.Error(t, AtomicWriteFile(target, []byte("x"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be removed on failure")
}

// =============================================================================
// STRING TRUNCATION TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"ibuprofène 200mg", 10, "ibuprof..."},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, TruncateRunes(tc.input, tc.max), tc.input)
	}
}

func TestTruncate_Width(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "he...", Truncate("hello world", 5))
	assert.Equal(t, "", Truncate("hello", 0))

	// 日本語 is 6 columns wide
	got := Truncate("日本語テキスト", 7)
	assert.LessOrEqual(t, StringWidth(got), 7)
	assert.Contains(t, got, "...")
}

func TestPreview_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "Take with food.", Preview("Take\n\n  with   food.", 40))
	assert.Equal(t, "a b...", Preview("a\nb\nc\nd\ne", 6))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, 4, StringWidth(PadRight("日", 4)))
}

// =============================================================================
// FILENAME TESTS
// =============================================================================

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"scan.png", "scan.png"},
		{"/home/pat/Downloads/note.jpg", "note.jpg"},
		{`C:\Users\pat\note.jpg`, "note.jpg"},
		{"résumé médical.png", "resume medical.png"},
		{"bad\x00name?.png", "bad_name_.png"},
		{"", "upload"},
		{"...", "upload"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestReadFileLimited(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	data, err := ReadFileLimited(path, 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	_, err = ReadFileLimited(path, 9)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = ReadFileLimited(dir, 10)
	assert.Error(t, err)

	_, err = ReadFileLimited(filepath.Join(dir, "missing"), 10)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
