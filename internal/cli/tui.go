// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aimednow/internal/ui/chat"
)

// runTUI starts the full-screen chat.
func (a *App) runTUI(cmd *cobra.Command) error {
	if !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
		return usageError(errors.New(`the chat view needs a terminal; use "aimednow ask" or "aimednow chat" in scripts`))
	}

	sess, done, err := a.openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	m := chat.New(cmd.Context(), chat.Options{
		Session:       sess,
		Endpoint:      a.cfg.API.BaseURL,
		ConfirmDelete: a.cfg.UI.ConfirmDelete,
		Logger:        a.log,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	a.log.Info("tui started", zap.Int("messages", len(sess.Messages())))
	if _, err := p.Run(); err != nil {
		return err
	}
	a.log.Info("tui stopped")
	return nil
}
