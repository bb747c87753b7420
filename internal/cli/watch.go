// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aimednow/internal/watch"
)

// =============================================================================
// WATCH COMMAND
// =============================================================================

func newWatchCommand(a *App) *cobra.Command {
	var existing bool

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Upload every image dropped into a folder",
		Long: `Watch DIR and upload each new or changed image, for example the output
folder of a scanner. Uploads are debounced, paced to watch.uploads_per_minute
and limited to watch.max_concurrent at a time. Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, done, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer done()

			rp := &resultPrinter{w: cmd.OutOrStdout()}
			w, err := watch.New(args[0], sess, watch.Options{
				Debounce:         a.cfg.Watch.Debounce(),
				MaxConcurrent:    a.cfg.Watch.MaxConcurrent,
				UploadsPerMinute: a.cfg.Watch.UploadsPerMinute,
				IncludeExisting:  existing,
				Logger:           a.log,
				OnResult:         rp.Print,
			})
			if err != nil {
				return usageError(err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", args[0])
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&existing, "existing", false, "also upload images already in DIR")
	return cmd
}

// resultPrinter serializes watcher results from upload goroutines.
type resultPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *resultPrinter) Print(res watch.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := filepath.Base(res.Path)
	switch {
	case res.Err != nil:
		fmt.Fprintf(p.w, "✗ %s: %v\n", name, res.Err)
	case res.Skipped:
		fmt.Fprintf(p.w, "- %s (not an image)\n", name)
	case res.Reply != nil:
		fmt.Fprintf(p.w, "✓ %s: %s\n", name, res.Reply.Preview(72))
	default:
		fmt.Fprintf(p.w, "✓ %s\n", name)
	}
}
