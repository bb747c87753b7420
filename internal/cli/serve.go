// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aimednow/internal/server"
)

// =============================================================================
// SERVE COMMAND
// =============================================================================

func newServeCommand(a *App) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat over a local JSON API",
		Long: `Serve the session over HTTP so a browser widget or another tool can
drive it. Set server.token to require "Authorization: Bearer <token>".

Routes: GET /health, GET /transcript.html, GET|DELETE /api/transcript,
GET /api/transcript/export, POST /api/messages, POST /api/attachments,
PUT /api/notes/:id/view, GET|PUT /api/theme, POST /api/theme/toggle,
GET|DELETE /api/answers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, done, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer done()

			opts := server.Options{
				Host:           a.cfg.Server.Host,
				Port:           a.cfg.Server.Port,
				RateLimit:      a.cfg.Server.RateLimit,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Token:          a.cfg.Server.Token,
				Version:        Version,
				Logger:         a.log,
			}
			if cmd.Flags().Changed("host") {
				opts.Host = host
			}
			if cmd.Flags().Changed("port") {
				opts.Port = port
			}

			srv := server.New(sess, opts)
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving on http://%s (Ctrl+C to stop)\n", srv.Addr())
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default server.port)")
	return cmd
}
