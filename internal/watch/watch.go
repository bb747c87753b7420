// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// Uploader sends one attachment. *session.Session implements it.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (*model.Message, error)
}

// ErrUploadFailed is set on a Result when the service answered with an
// error reply instead of a description.
var ErrUploadFailed = errors.New("upload failed")

// Result reports one processed file.
type Result struct {
	Path  string
	Reply *model.Message
	// Skipped is set for files that are not images
	Skipped bool
	Err     error
}

// Options configures a Watcher.
type Options struct {
	Debounce         time.Duration
	MaxConcurrent    int
	UploadsPerMinute int

	// IncludeExisting uploads images already in the directory at start
	IncludeExisting bool

	Logger *zap.Logger

	// OnResult is called from upload goroutines after each file
	OnResult func(Result)
}

// Watcher watches one directory.
type Watcher struct {
	dir      string
	uploader Uploader
	opts     Options
	log      *zap.Logger
	limiter  *rate.Limiter

	mu      sync.Mutex
	pending map[string]time.Time
	done    map[string]string
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// New creates a watcher for dir.
func New(dir string, uploader Uploader, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir: %s is not a directory", dir)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	limit := rate.Inf
	if opts.UploadsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.UploadsPerMinute))
	}

	return &Watcher{
		dir:      dir,
		uploader: uploader,
		opts:     opts,
		log:      opts.Logger.Named("watch"),
		limiter:  rate.NewLimiter(limit, 1),
		pending:  make(map[string]time.Time),
		done:     make(map[string]string),
	}, nil
}

// =============================================================================
// RUN LOOP
// =============================================================================

// Run watches until ctx is cancelled and waits for running uploads.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching", zap.String("dir", w.dir),
		zap.Duration("debounce", w.opts.Debounce),
		zap.Int("max_concurrent", w.opts.MaxConcurrent))

	g := &errgroup.Group{}
	g.SetLimit(w.opts.MaxConcurrent)

	if w.opts.IncludeExisting {
		if err := w.queueExisting(); err != nil {
			w.log.Warn("scan existing files", zap.Error(err))
		}
	}

	events := make(chan struct{}, 1)
	go w.readEvents(ctx, fsw, events)

	tick := w.opts.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case <-events:
		case <-ticker.C:
		}
		for _, path := range w.due(time.Now()) {
			path := path
			g.Go(func() error {
				w.process(ctx, path)
				return nil
			})
		}
	}
}

// readEvents turns create and write events into pending entries.
func (w *Watcher) readEvents(ctx context.Context, fsw *fsnotify.Watcher, notify chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if hidden(event.Name) {
				continue
			}
			w.touch(event.Name, time.Now())
			select {
			case notify <- struct{}{}:
			default:
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// =============================================================================
// DEBOUNCE
// =============================================================================

func (w *Watcher) touch(path string, at time.Time) {
	w.mu.Lock()
	w.pending[path] = at
	w.mu.Unlock()
}

// due removes and returns the paths quiet for at least the debounce interval.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.opts.Debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) queueExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	past := time.Now().Add(-w.opts.Debounce)
	for _, e := range entries {
		if e.Type().IsRegular() && !hidden(e.Name()) {
			w.touch(filepath.Join(w.dir, e.Name()), past)
		}
	}
	return nil
}

// =============================================================================
// UPLOAD
// =============================================================================

// process uploads one file unless it was already sent unchanged.
func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	stamp := fmt.Sprintf("%d|%d", info.Size(), info.ModTime().UnixNano())

	w.mu.Lock()
	if w.done[path] == stamp {
		w.mu.Unlock()
		return
	}
	w.done[path] = stamp
	w.mu.Unlock()

	res := w.upload(ctx, path)
	if res.Err != nil {
		// allow a retry on the next change
		w.mu.Lock()
		delete(w.done, path)
		w.mu.Unlock()
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(res)
	}
}

func (w *Watcher) upload(ctx context.Context, path string) Result {
	res := Result{Path: path}

	data, err := util.ReadFileLimited(path, model.MaxAttachmentSize)
	if err != nil {
		w.log.Warn("read failed", zap.String("path", path), zap.Error(err))
		res.Err = err
		return res
	}

	name := filepath.Base(path)
	if !model.DetectAttachment(name, data, int64(len(data))).IsImage() {
		w.log.Debug("skipping non-image", zap.String("path", path))
		res.Skipped = true
		return res
	}

	if err := w.limiter.Wait(ctx); err != nil {
		res.Err = err
		return res
	}

	reply, err := w.uploader.Upload(ctx, name, data)
	if err != nil {
		w.log.Warn("upload failed", zap.String("path", path), zap.Error(err))
		res.Err = err
		return res
	}
	res.Reply = reply
	if reply != nil && reply.Kind == model.KindError {
		w.log.Warn("upload rejected", zap.String("path", path), zap.String("reply", reply.Content))
		res.Err = fmt.Errorf("%w: %s", ErrUploadFailed, reply.Content)
		return res
	}
	w.log.Info("uploaded", zap.String("path", path), zap.Int("bytes", len(data)))
	return res
}

func hidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
