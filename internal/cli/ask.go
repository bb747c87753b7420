// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/server"
)

// =============================================================================
// ASK COMMAND
// =============================================================================

func newAskCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the answer",
		Long: `Ask one question. The question and the answer are added to the transcript,
and cached EHR answers are sent along as context.

With no arguments, or "-", the question is read from stdin.`,
		Example: `  aimednow ask "What is the usual dosage of ibuprofen?"
  echo "Is this rash serious?" | aimednow ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := questionFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			sess, done, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			reply, err := sess.SendText(cmd.Context(), question)
			if err != nil {
				return err
			}
			return printReply(newReplyPrinter(cmd.OutOrStdout(), sess.Theme(), a.cfg.UI.WordWrap), reply)
		},
	}
}

// questionFrom joins args, or reads stdin for no args or "-".
func questionFrom(args []string, stdin io.Reader) (string, error) {
	var question string
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(io.LimitReader(stdin, server.MaxQuestionBytes+1))
		if err != nil {
			return "", fmt.Errorf("read question: %w", err)
		}
		if len(data) > server.MaxQuestionBytes {
			return "", usageError(fmt.Errorf("question longer than %d bytes", server.MaxQuestionBytes))
		}
		question = string(data)
	} else {
		question = strings.Join(args, " ")
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return "", usageError(errors.New("empty question"))
	}
	return question, nil
}

// printReply prints reply, turning an error-state reply into a failure.
func printReply(p *replyPrinter, reply *model.Message) error {
	if reply == nil {
		return nil
	}
	if reply.Kind == model.KindError {
		return &CommandError{Code: ExitNetworkError, Err: errors.New(reply.Content)}
	}
	p.Print(reply)
	return nil
}
