// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFilePerm = 0o600
	logDirPerm  = 0o700
)

// Options configures NewLogger.
type Options struct {
	// Dir holds the daily log files
	Dir string
	// Level is debug, info, warn or error
	Level string
	// Console also writes human-readable lines to stderr.
	// Off for the TUI, which owns the terminal.
	Console bool
}

// Filename returns the daily log filename for t.
func Filename(t time.Time) string {
	return "aimednow_" + t.Format("2006-01-02") + ".log"
}

// DailyWriter appends to a file named after the current day.
// The file is reopened per write so the day can roll over in a long session.
type DailyWriter struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewDailyWriter creates dir if needed and returns a writer into it.
func NewDailyWriter(dir string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &DailyWriter{dir: dir, now: time.Now}, nil
}

// Path returns the file the next write goes to.
func (w *DailyWriter) Path() string {
	return filepath.Join(w.dir, Filename(w.now()))
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.OpenFile(w.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePerm)
	if err != nil {
		return 0, err
	}

	n, writeErr := file.Write(p)
	closeErr := file.Close()
	if writeErr != nil {
		return n, writeErr
	}
	return n, closeErr
}

// Sync is a no-op; every write closes its file.
func (w *DailyWriter) Sync() error {
	return nil
}

// ParseLevel maps a config level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// NewLogger builds a zap logger writing JSON lines to the daily file.
func NewLogger(opts Options) (*zap.Logger, error) {
	writer, err := NewDailyWriter(opts.Dir)
	if err != nil {
		return nil, err
	}
	return newLogger(writer, opts.Level, opts.Console), nil
}

// NewWithWriter builds a logger writing JSON lines to w. Used by tests.
func NewWithWriter(w io.Writer, level string) *zap.Logger {
	return newLogger(zapcore.AddSync(w), level, false)
}

func newLogger(w zapcore.WriteSyncer, level string, console bool) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(ParseLevel(level))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, lvl),
	}
	if console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), lvl))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
