// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// isTerminal reports whether v is an *os.File attached to a terminal.
// Buffers and pipes are never terminals.
func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or fallback when w is not a terminal.
func terminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// Yes skips the prompt (--yes)
	Yes bool
	// Interactive is false when stdin cannot be prompted
	Interactive bool
}

// RequireConfirmation asks "<prompt> (y/n)" unless opts.Yes is set.
// Without a terminal it refuses rather than guess.
func RequireConfirmation(in io.Reader, out io.Writer, prompt string, opts ConfirmationOptions) error {
	if opts.Yes {
		return nil
	}
	if !opts.Interactive {
		return usageError(errors.New("confirmation required: re-run with --yes"))
	}
	ok, err := promptYesNo(in, out, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}
	return nil
}

// promptYesNo reads one line and accepts y or yes.
func promptYesNo(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s (y/n) ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
