// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aimednow/internal/config"
	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/session"
	"github.com/jeranaias/aimednow/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle  = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	welcomeStyle = lipgloss.NewStyle().Foreground(styles.Teal).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	commandStyle = lipgloss.NewStyle().Foreground(styles.Emerald)
	warningStyle = lipgloss.NewStyle().Foreground(styles.Amber)
)

const chatHelp = `Commands:
  /attach PATH   upload a file
  /copy          copy the last response to the clipboard
  /note          switch the latest doctor's note between Simplified and Original
  /theme         toggle dark and light
  /history       print the transcript
  /clear         delete all chats
  /help          show this help
  /quit          exit (Ctrl+D also exits)

Ctrl+C cancels a request that is waiting for a reply.`

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat in the shell",
		Long: `Start a line-editing chat. Input history is kept in ~/.aimednow/chat_history.
Type /help for the slash commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, done, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			r := newREPL(a, sess, cmd.OutOrStdout())
			input := NewChatCLI()
			defer input.Close()

			r.printWelcome()
			return r.loop(cmd.Context(), input)
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the chat REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{line: line, historyFile: filepath.Join(configDir, "chat_history")}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads one line, adding non-empty input to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with 0600 permissions and restores the terminal.
func (c *ChatCLI) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

type lineReader interface {
	ReadInput(prompt string) (string, error)
}

// repl dispatches chat input to the session.
type repl struct {
	a       *App
	sess    *session.Session
	out     io.Writer
	printer *replyPrinter
	copy    func(string) error

	// confirm asks a yes/no question; nil means yes
	confirm func(prompt string) bool
}

func newREPL(a *App, sess *session.Session, out io.Writer) *repl {
	return &repl{
		a:       a,
		sess:    sess,
		out:     out,
		printer: newReplyPrinter(out, sess.Theme(), a.cfg.UI.WordWrap),
		copy:    clipboard.WriteAll,
	}
}

func (r *repl) printWelcome() {
	fmt.Fprintln(r.out, welcomeStyle.Render(model.WelcomeTitle))
	fmt.Fprintln(r.out, infoStyle.Render(model.WelcomeBody))
	fmt.Fprintln(r.out, infoStyle.Render("Type /help for commands. Endpoint: "+r.a.cfg.API.BaseURL))
	fmt.Fprintln(r.out)
}

func (r *repl) loop(ctx context.Context, input lineReader) error {
	r.confirm = func(prompt string) bool {
		answer, err := input.ReadInput(prompt + " (y/n) ")
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}

	for {
		line, err := input.ReadInput(promptStyle.Render("you> "))
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		if quit := r.handle(ctx, line); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handle runs one line of input. It returns true to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/quit", "/q", "/exit":
		return true
	case "/help", "/h", "/?":
		fmt.Fprintln(r.out, commandStyle.Render(chatHelp))
	case "/attach", "/a":
		r.attach(ctx, arg)
	case "/copy":
		r.copyLast()
	case "/note":
		r.toggleNote()
	case "/theme":
		r.toggleTheme(ctx)
	case "/history":
		for _, msg := range r.sess.Messages() {
			fmt.Fprintf(r.out, "%s: %s\n", msg.Role.DisplayName(), msg.PlainText())
		}
	case "/clear", "/c":
		r.clear(ctx)
	default:
		r.warn(fmt.Sprintf("Unknown command %s (try /help)", name))
	}
	return false
}

// withInterrupt runs fn with a context Ctrl+C cancels.
func withInterrupt(ctx context.Context, fn func(context.Context)) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	fn(ctx)
}

func (r *repl) send(ctx context.Context, text string) {
	withInterrupt(ctx, func(ctx context.Context) {
		fmt.Fprintln(r.out, infoStyle.Render("AIMedNow is typing..."))
		reply, err := r.sess.SendText(ctx, text)
		if err != nil {
			r.warn(err.Error())
			return
		}
		r.printer.Print(reply)
	})
}

func (r *repl) attach(ctx context.Context, path string) {
	if path == "" {
		r.warn("Usage: /attach PATH")
		return
	}
	withInterrupt(ctx, func(ctx context.Context) {
		if err := uploadFile(ctx, r.sess, path, r.printer, r.out); err != nil {
			r.warn(err.Error())
		}
	})
}

func (r *repl) copyLast() {
	last := r.sess.LastReply()
	if last == nil {
		r.warn("Nothing to copy yet")
		return
	}
	text := last.PlainText()
	if err := r.copy(text); err != nil {
		r.a.log.Warn("clipboard write failed", zap.Error(err))
		r.warn("Clipboard unavailable: " + err.Error())
		return
	}
	fmt.Fprintln(r.out, infoStyle.Render(fmt.Sprintf("Copied response to clipboard (%d chars)", len([]rune(text)))))
}

func (r *repl) toggleNote() {
	msgs := r.sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind != model.KindNote {
			continue
		}
		view, err := r.sess.ToggleNoteView(msgs[i].ID)
		if err != nil {
			r.warn(err.Error())
			return
		}
		msgs[i].Note.Show(view)
		r.printer.Print(msgs[i])
		return
	}
	r.warn("No doctor's note in this chat")
}

func (r *repl) toggleTheme(ctx context.Context) {
	theme, err := r.sess.ToggleTheme(ctx)
	if err != nil {
		r.warn(err.Error())
		return
	}
	r.printer = newReplyPrinter(r.out, theme, r.a.cfg.UI.WordWrap)
	fmt.Fprintln(r.out, infoStyle.Render("Theme: "+string(theme)))
}

func (r *repl) clear(ctx context.Context) {
	if r.sess.IsEmpty() {
		fmt.Fprintln(r.out, infoStyle.Render("No chats to delete"))
		return
	}
	if r.a.cfg.UI.ConfirmDelete && r.confirm != nil && !r.confirm(DeletePrompt) {
		return
	}
	if err := r.sess.DeleteTranscript(ctx); err != nil {
		r.warn(err.Error())
		return
	}
	fmt.Fprintln(r.out, infoStyle.Render("All chats deleted"))
}

func (r *repl) warn(msg string) {
	fmt.Fprintln(r.out, warningStyle.Render(msg))
}
