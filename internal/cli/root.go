// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree. Running the root command with no
// subcommand starts the TUI.
func NewRootCommand() *cobra.Command {
	a := &App{}

	root := &cobra.Command{
		Use:   "aimednow",
		Short: "AI-powered medical assistance in your terminal",
		Long: `aimednow talks to the AIMedNow QnA and EHR service.

Ask medical questions, upload images of doctor's notes to get a simplified
translation, and keep a local transcript of the conversation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "config file (default ~/.aimednow/config.toml)")
	flags.BoolVar(&a.flags.ephemeral, "ephemeral", false, "keep transcript, theme and answers in memory only")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "also write logs to stderr")

	root.AddCommand(
		newAskCommand(a),
		newChatCommand(a),
		newUploadCommand(a),
		newHistoryCommand(a),
		newClearCommand(a),
		newForgetCommand(a),
		newThemeCommand(a),
		newConfigCommand(a),
		newWatchCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCodeFor(err)
	}
	return ExitSuccess
}
