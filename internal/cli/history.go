// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aimednow/internal/export"
)

// =============================================================================
// HISTORY COMMAND
// =============================================================================

func newHistoryCommand(a *App) *cobra.Command {
	var (
		format       string
		output       string
		noTimestamps bool
	)

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"export"},
		Short:   "Print or export the transcript",
		Example: `  aimednow history
  aimednow history --format markdown
  aimednow history --format html -o transcript.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.IncludeTimestamps = !noTimestamps

			// validate the format before touching the store
			if _, err := export.ForFormat(format, opts); err != nil {
				return usageError(err)
			}

			sess, done, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			opts.Theme = string(sess.Theme())
			exp, _ := export.ForFormat(format, opts)
			data, err := exp.Export(sess.Messages())
			if err != nil {
				return fmt.Errorf("export transcript: %w", err)
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := export.WriteFile(output, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d messages to %s\n", len(sess.Messages()), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text",
		"output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to FILE instead of stdout")
	cmd.Flags().BoolVar(&noTimestamps, "no-timestamps", false, "leave out message times")
	return cmd
}
