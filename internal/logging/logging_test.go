// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFilename(t *testing.T) {
	day := time.Date(2025, 3, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "aimednow_2025-03-07.log", Filename(day))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("chatty"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestNewLogger_WritesDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := NewLogger(Options{Dir: dir, Level: "info"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("qna request", zap.String("id", "abc"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filepath.Join(dir, Filename(time.Now())))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "qna request", entry["msg"])
	assert.Equal(t, "abc", entry["id"])
}

func TestDailyWriter_RollsOver(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDailyWriter(dir)
	require.NoError(t, err)

	day := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return day }
	_, err = w.Write([]byte("one\n"))
	require.NoError(t, err)

	day = day.Add(24 * time.Hour)
	_, err = w.Write([]byte("two\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")
	logger.Info("skipped")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "skipped")
	assert.Contains(t, buf.String(), "kept")
}
