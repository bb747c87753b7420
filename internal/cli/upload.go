// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/session"
	"github.com/jeranaias/aimednow/internal/util"
)

// =============================================================================
// UPLOAD COMMAND
// =============================================================================

func newUploadCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload attachments",
		Long: `Upload one or more files. Every file is recorded in the transcript; images
are sent to the EHR service, which describes them or translates a doctor's note.`,
		Example: `  aimednow upload note.jpg
  aimednow upload scan1.png scan2.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, done, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			printer := newReplyPrinter(cmd.OutOrStdout(), sess.Theme(), a.cfg.UI.WordWrap)
			failed := 0
			for _, path := range args {
				if err := uploadFile(cmd.Context(), sess, path, printer, cmd.ErrOrStderr()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
				}
			}
			if failed > 0 {
				return &CommandError{Code: ExitGeneralError, Err: fmt.Errorf("%d of %d uploads failed", failed, len(args))}
			}
			return nil
		},
	}
}

// uploadFile reads path and uploads it through sess.
func uploadFile(ctx context.Context, sess *session.Session, path string, printer *replyPrinter, notices io.Writer) error {
	data, err := util.ReadFileLimited(path, model.MaxAttachmentSize)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	reply, err := sess.Upload(ctx, name, data)
	if err != nil {
		return err
	}
	if reply == nil {
		fmt.Fprintf(notices, "Saved %s; only images are analyzed\n", name)
		return nil
	}
	return printReply(printer, reply)
}
