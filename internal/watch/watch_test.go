// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aimednow/internal/model"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

type fakeUploader struct {
	mu      sync.Mutex
	names   []string
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
}

func (f *fakeUploader) Upload(ctx context.Context, name string, data []byte) (*model.Message, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		old := f.maxSeen.Load()
		if n <= old || f.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.names = append(f.names, name)
	f.mu.Unlock()
	return model.NewDescription("an image"), nil
}

func (f *fakeUploader) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

// failingUploader answers the first fails uploads with an error reply, the
// way a session does when the service is unreachable.
type failingUploader struct {
	fakeUploader
	fails atomic.Int32
}

func (f *failingUploader) Upload(ctx context.Context, name string, data []byte) (*model.Message, error) {
	if f.fails.Add(-1) >= 0 {
		return model.NewError(model.UploadErrorText), nil
	}
	return f.fakeUploader.Upload(ctx, name, data)
}

type results struct {
	mu  sync.Mutex
	all []Result
}

func (r *results) add(res Result) {
	r.mu.Lock()
	r.all = append(r.all, res)
	r.mu.Unlock()
}

func (r *results) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

func (r *results) get() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.all...)
}

func startWatcher(t *testing.T, dir string, up Uploader, opts Options) *results {
	t.Helper()
	res := &results{}
	opts.OnResult = res.add
	if opts.Debounce == 0 {
		opts.Debounce = 30 * time.Millisecond
	}
	w, err := New(dir, up, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// give fsnotify a moment to register the directory
	time.Sleep(50 * time.Millisecond)
	return res
}

func TestNew_RejectsMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), &fakeUploader{}, Options{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = New(file, &fakeUploader{}, Options{})
	assert.Error(t, err)
}

func TestDue_Debounces(t *testing.T) {
	w, err := New(t.TempDir(), &fakeUploader{}, Options{Debounce: time.Second})
	require.NoError(t, err)

	start := time.Now()
	w.touch("/a", start)
	w.touch("/b", start.Add(500*time.Millisecond))

	assert.Empty(t, w.due(start.Add(900*time.Millisecond)))
	assert.Equal(t, []string{"/a"}, w.due(start.Add(1200*time.Millisecond)))
	assert.Equal(t, []string{"/b"}, w.due(start.Add(2*time.Second)))
	assert.Empty(t, w.due(start.Add(3*time.Second)))
}

func TestWatcher_UploadsNewImage(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}
	res := startWatcher(t, dir, up, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.png"), pngBytes, 0o600))

	require.Eventually(t, func() bool { return res.len() == 1 }, 3*time.Second, 10*time.Millisecond)
	got := res.get()[0]
	assert.NoError(t, got.Err)
	assert.False(t, got.Skipped)
	require.NotNil(t, got.Reply)
	assert.Equal(t, []string{"scan.png"}, up.uploaded())
}

func TestWatcher_SkipsNonImagesAndHidden(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}
	res := startWatcher(t, dir, up, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial.png"), pngBytes, 0o600))

	require.Eventually(t, func() bool { return res.len() == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.True(t, res.get()[0].Skipped)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, res.len())
	assert.Empty(t, up.uploaded())
}

func TestWatcher_RepeatedWritesUploadOnce(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}
	res := startWatcher(t, dir, up, Options{Debounce: 100 * time.Millisecond})

	path := filepath.Join(dir, "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	for _, b := range pngBytes {
		_, err := f.Write([]byte{b})
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return res.len() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, []string{"scan.png"}, up.uploaded())
}

func TestWatcher_IncludeExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.png"), pngBytes, 0o600))

	up := &fakeUploader{}
	res := startWatcher(t, dir, up, Options{IncludeExisting: true})
	require.Eventually(t, func() bool { return res.len() == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"old.png"}, up.uploaded())
}

func TestWatcher_BoundedConcurrency(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), pngBytes, 0o600))
	}

	up := &fakeUploader{delay: 50 * time.Millisecond}
	res := startWatcher(t, dir, up, Options{IncludeExisting: true, MaxConcurrent: 2})
	require.Eventually(t, func() bool { return res.len() == 4 }, 5*time.Second, 10*time.Millisecond)
	assert.LessOrEqual(t, up.maxSeen.Load(), int32(2))
	assert.ElementsMatch(t, []string{"a.png", "b.png", "c.png", "d.png"}, up.uploaded())
}

func TestHidden(t *testing.T) {
	assert.True(t, hidden("/in/.DS_Store"))
	assert.True(t, hidden("/in/scan.png~"))
	assert.False(t, hidden("/in/scan.png"))
}

func TestProcess_ErrorReplyAllowsRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))

	up := &failingUploader{}
	up.fails.Store(1)
	res := &results{}
	w, err := New(dir, up, Options{OnResult: res.add})
	require.NoError(t, err)

	w.process(context.Background(), path)
	require.Equal(t, 1, res.len())
	first := res.get()[0]
	require.ErrorIs(t, first.Err, ErrUploadFailed)
	assert.Contains(t, first.Err.Error(), model.UploadErrorText)
	assert.NotContains(t, w.done, path)

	w.process(context.Background(), path)
	require.Equal(t, 2, res.len())
	assert.NoError(t, res.get()[1].Err)
	assert.Equal(t, []string{"scan.png"}, up.uploaded())

	// unchanged file is not sent again
	w.process(context.Background(), path)
	assert.Equal(t, 2, res.len())
}
