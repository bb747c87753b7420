// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aimednow/internal/storage"
)

// =============================================================================
// CLEAR COMMAND
// =============================================================================

// DeletePrompt is asked before all chats are deleted.
const DeletePrompt = "Are you sure you want to delete all chats?"

func newClearCommand(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all chats",
		Long: `Delete the whole transcript. Cached EHR answers are kept; use
"aimednow forget" to drop them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, done, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if sess.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No chats to delete")
				return nil
			}
			err = RequireConfirmation(cmd.InOrStdin(), cmd.ErrOrStderr(), DeletePrompt, ConfirmationOptions{
				Yes:         yes || !a.cfg.UI.ConfirmDelete,
				Interactive: isTerminal(cmd.InOrStdin()),
			})
			if err != nil {
				return err
			}
			if err := sess.DeleteTranscript(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All chats deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// =============================================================================
// FORGET COMMAND
// =============================================================================

func newForgetCommand(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Clear the cached EHR answers",
		Long: `Clear the EHR answers collected from uploads. These are sent as context
with every question until they are forgotten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, done, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			answers, err := sess.Answers(cmd.Context())
			if err != nil {
				return err
			}
			if len(answers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached EHR answers")
				return nil
			}
			prompt := fmt.Sprintf("Forget %d cached EHR answer(s)?", len(answers))
			err = RequireConfirmation(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt, ConfirmationOptions{
				Yes:         yes,
				Interactive: isTerminal(cmd.InOrStdin()),
			})
			if err != nil {
				return err
			}
			if err := sess.ClearAnswers(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %d cached EHR answer(s)\n", len(answers))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// =============================================================================
// THEME COMMAND
// =============================================================================

func newThemeCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the color theme",
		ValidArgs: []string{"dark", "light", "toggle"},
		Args:      cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, done, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, sess.Theme())
				return nil
			}

			if args[0] == "toggle" {
				theme, err := sess.ToggleTheme(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Theme: %s\n", theme)
				return nil
			}

			theme, ok := storage.ParseTheme(args[0])
			if !ok {
				return usageError(fmt.Errorf("unknown theme %q (want dark, light or toggle)", args[0]))
			}
			if err := sess.SetTheme(cmd.Context(), theme); err != nil {
				return err
			}
			fmt.Fprintf(out, "Theme: %s\n", theme)
			return nil
		},
	}
}
