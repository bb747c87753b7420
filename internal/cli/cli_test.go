// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/aimednow/internal/api"
	"github.com/jeranaias/aimednow/internal/config"
	"github.com/jeranaias/aimednow/internal/kv"
	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/session"
)

// =============================================================================
// HELPERS
// =============================================================================

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

// fakeService answers like the QnA/EHR service and records prompts.
type fakeService struct {
	prompts []string
	uploads atomic.Int32
	fail    bool
}

func (f *fakeService) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/qna", func(w http.ResponseWriter, r *http.Request) {
		if f.fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var req api.QnARequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.prompts = append(f.prompts, req.Text)
		_ = json.NewEncoder(w).Encode(map[string]string{"answer": "Take **200mg** every 6 hours."})
	})
	mux.HandleFunc("/api/upload_ehr", func(w http.ResponseWriter, r *http.Request) {
		f.uploads.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"answer":          "A prescription.",
			"is_doctor_note":  true,
			"original_text":   "Ibuprofen 200mg PRN",
			"simplified_text": "Ibuprofen 200mg when needed",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// setupHome points config, logs and the SQLite store at a temp dir.
func setupHome(t *testing.T, baseURL string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("AIMEDNOW_HOME", home)
	t.Setenv("AIMEDNOW_API_BASE_URL", baseURL)
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)
	return home
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "aimednow "+Version)
}

func TestAsk_PrintsPlainAnswerAndPersists(t *testing.T) {
	svc := &fakeService{}
	setupHome(t, svc.start(t).URL)

	out, _, err := runCLI(t, "", "ask", "What", "is", "the", "dosage?")
	require.NoError(t, err)
	assert.Equal(t, "Take **200mg** every 6 hours.\n", out)
	require.Len(t, svc.prompts, 1)
	assert.Equal(t, "What is the dosage?", svc.prompts[0])

	out, _, err = runCLI(t, "", "history", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "What is the dosage?")
	assert.Contains(t, out, "200mg")
}

func TestAsk_ReadsStdin(t *testing.T) {
	svc := &fakeService{}
	setupHome(t, svc.start(t).URL)

	_, _, err := runCLI(t, "  Is this serious?\n", "ask")
	require.NoError(t, err)
	require.Len(t, svc.prompts, 1)
	assert.Equal(t, "Is this serious?", svc.prompts[0])
}

func TestAsk_EmptyQuestion(t *testing.T) {
	setupHome(t, "http://127.0.0.1:1")
	_, _, err := runCLI(t, "   ", "ask")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCodeFor(err))
}

func TestAsk_ServiceFailure(t *testing.T) {
	svc := &fakeService{fail: true}
	setupHome(t, svc.start(t).URL)

	out, _, err := runCLI(t, "", "--ephemeral", "ask", "hello")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Equal(t, model.QnAErrorText, err.Error())
	assert.Equal(t, ExitNetworkError, ExitCodeFor(err))
}

func TestUpload_NoteThenAskIncludesEHR(t *testing.T) {
	svc := &fakeService{}
	home := setupHome(t, svc.start(t).URL)

	scan := filepath.Join(home, "note.png")
	require.NoError(t, os.WriteFile(scan, pngBytes, 0o600))
	notes := filepath.Join(home, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o600))

	out, stderr, err := runCLI(t, "", "upload", scan, notes)
	require.NoError(t, err)
	assert.Contains(t, out, model.NoteLeadIn)
	assert.Contains(t, out, "Ibuprofen 200mg when needed")
	assert.Contains(t, stderr, "Saved notes.txt; only images are analyzed")
	assert.Equal(t, int32(1), svc.uploads.Load())

	_, _, err = runCLI(t, "", "ask", "What is the dosage?")
	require.NoError(t, err)
	require.Len(t, svc.prompts, 1)
	assert.Equal(t, session.BuildPrompt([]string{"Ibuprofen 200mg when needed"}, "What is the dosage?"), svc.prompts[0])
}

func TestUpload_MissingFile(t *testing.T) {
	setupHome(t, "http://127.0.0.1:1")
	_, stderr, err := runCLI(t, "", "--ephemeral", "upload", "/does/not/exist.png")
	require.Error(t, err)
	assert.Contains(t, stderr, "/does/not/exist.png")
}

func TestHistory_WritesFile(t *testing.T) {
	svc := &fakeService{}
	home := setupHome(t, svc.start(t).URL)

	_, _, err := runCLI(t, "", "ask", "hello")
	require.NoError(t, err)

	target := filepath.Join(home, "out.html")
	_, stderr, err := runCLI(t, "", "history", "-f", "html", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 2 messages")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<strong>200mg</strong>")
}

func TestHistory_UnknownFormat(t *testing.T) {
	setupHome(t, "http://127.0.0.1:1")
	_, _, err := runCLI(t, "", "history", "--format", "pdf")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCodeFor(err))
}

func TestClear_RequiresYesWithoutTerminal(t *testing.T) {
	svc := &fakeService{}
	setupHome(t, svc.start(t).URL)

	_, _, err := runCLI(t, "", "ask", "hello")
	require.NoError(t, err)

	_, _, err = runCLI(t, "y\n", "clear")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCodeFor(err))

	out, _, err := runCLI(t, "", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All chats deleted")

	out, _, err = runCLI(t, "", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "No chats to delete")
}

func TestForget_KeepsTranscript(t *testing.T) {
	svc := &fakeService{}
	home := setupHome(t, svc.start(t).URL)

	scan := filepath.Join(home, "note.png")
	require.NoError(t, os.WriteFile(scan, pngBytes, 0o600))
	_, _, err := runCLI(t, "", "upload", scan)
	require.NoError(t, err)

	out, _, err := runCLI(t, "", "forget", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, "Forgot 1 cached EHR answer(s)")

	out, _, err = runCLI(t, "", "forget")
	require.NoError(t, err)
	assert.Contains(t, out, "No cached EHR answers")

	out, _, err = runCLI(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded: note.png")
}

func TestTheme(t *testing.T) {
	setupHome(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, "", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, _, err = runCLI(t, "", "theme", "toggle")
	require.NoError(t, err)
	assert.Equal(t, "Theme: light\n", out)

	out, _, err = runCLI(t, "", "theme")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	_, _, err = runCLI(t, "", "theme", "purple")
	assert.Equal(t, ExitUsageError, ExitCodeFor(err))
}

func TestConfig_GetSetPath(t *testing.T) {
	home := setupHome(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml")+"\n", out)

	_, _, err = runCLI(t, "", "config", "set", "ui.word_wrap", "100")
	require.NoError(t, err)

	out, _, err = runCLI(t, "", "config", "get", "ui.word_wrap")
	require.NoError(t, err)
	assert.Equal(t, "100\n", out)

	// the env override is not written into the file
	data, err := os.ReadFile(filepath.Join(home, "config.toml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "127.0.0.1:1")

	_, _, err = runCLI(t, "", "config", "set", "ui.theme", "purple")
	assert.Equal(t, ExitConfigError, ExitCodeFor(err))

	_, _, err = runCLI(t, "", "config", "get", "nope.key")
	assert.Equal(t, ExitUsageError, ExitCodeFor(err))
}

func TestConfig_ShowRedactsToken(t *testing.T) {
	setupHome(t, "http://127.0.0.1:1")
	t.Setenv("AIMEDNOW_SERVER_TOKEN", "s3cret")

	out, _, err := runCLI(t, "", "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "[REDACTED]")
}

func TestEncryptAnswers_NeedsPassphrase(t *testing.T) {
	setupHome(t, "http://127.0.0.1:1")
	t.Setenv("AIMEDNOW_STORAGE_ENCRYPT_ANSWERS", "true")
	t.Setenv("AIMEDNOW_PASSPHRASE", "")

	_, _, err := runCLI(t, "", "theme")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCodeFor(err))
}

func TestRoot_NeedsTerminal(t *testing.T) {
	setupHome(t, "http://127.0.0.1:1")
	_, _, err := runCLI(t, "")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCodeFor(err))
}

// =============================================================================
// CONFIRMATION
// =============================================================================

func TestRequireConfirmation(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, RequireConfirmation(strings.NewReader(""), &out, "Go?", ConfirmationOptions{Yes: true}))
	assert.Empty(t, out.String())

	err := RequireConfirmation(strings.NewReader("y\n"), &out, "Go?", ConfirmationOptions{})
	assert.Equal(t, ExitUsageError, ExitCodeFor(err))

	assert.NoError(t, RequireConfirmation(strings.NewReader("yes\n"), &out, "Go?", ConfirmationOptions{Interactive: true}))
	assert.Contains(t, out.String(), "Go? (y/n)")

	err = RequireConfirmation(strings.NewReader("n\n"), &out, "Go?", ConfirmationOptions{Interactive: true})
	assert.Equal(t, ExitCancelled, ExitCodeFor(err))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeFor(nil))
	assert.Equal(t, ExitGeneralError, ExitCodeFor(errors.New("x")))
	assert.Equal(t, ExitNetworkError, ExitCodeFor(&api.ClientError{Type: api.ErrTypeTimeout, Message: "slow"}))
	assert.Equal(t, ExitConfigError, ExitCodeFor(&CommandError{Code: ExitConfigError, Err: errors.New("bad")}))
}

// =============================================================================
// REPL
// =============================================================================

type scriptedInput struct {
	lines []string
}

func (s *scriptedInput) ReadInput(prompt string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newTestREPL(t *testing.T, baseURL string) (*repl, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	a := &App{cfg: cfg, log: zap.NewNop()}

	sess, err := session.New(context.Background(), session.Options{
		Backend: api.NewClientWithConfig(&api.ClientConfig{BaseURL: baseURL}),
		Store:   kv.NewMemory(),
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	var out bytes.Buffer
	return newREPL(a, sess, &out), &out
}

func TestREPL_Conversation(t *testing.T) {
	svc := &fakeService{}
	r, out := newTestREPL(t, svc.start(t).URL)

	var copied string
	r.copy = func(s string) error { copied = s; return nil }

	input := &scriptedInput{lines: []string{"What is the dosage?", "/copy", "/quit", "never read"}}
	require.NoError(t, r.loop(context.Background(), input))

	assert.Contains(t, out.String(), "Take **200mg** every 6 hours.")
	assert.Equal(t, "Take **200mg** every 6 hours.", copied)
	assert.Contains(t, out.String(), "Copied response to clipboard")
	assert.Equal(t, []string{"never read"}, input.lines)
}

func TestREPL_AttachAndNoteToggle(t *testing.T) {
	svc := &fakeService{}
	r, out := newTestREPL(t, svc.start(t).URL)

	path := filepath.Join(t.TempDir(), "note.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))

	r.handle(context.Background(), "/attach "+path)
	assert.Contains(t, out.String(), "Ibuprofen 200mg when needed")

	out.Reset()
	r.handle(context.Background(), "/note")
	assert.Contains(t, out.String(), "Ibuprofen 200mg PRN")

	msgs := r.sess.Messages()
	last := msgs[len(msgs)-1]
	require.NotNil(t, last.Note)
	assert.Equal(t, model.ViewOriginal, last.Note.View())
}

func TestREPL_ClearAsks(t *testing.T) {
	svc := &fakeService{}
	r, out := newTestREPL(t, svc.start(t).URL)

	r.handle(context.Background(), "hello")
	require.False(t, r.sess.IsEmpty())

	r.confirm = func(string) bool { return false }
	r.handle(context.Background(), "/clear")
	assert.False(t, r.sess.IsEmpty())

	r.confirm = func(string) bool { return true }
	r.handle(context.Background(), "/clear")
	assert.True(t, r.sess.IsEmpty())
	assert.Contains(t, out.String(), "All chats deleted")
}

func TestREPL_Commands(t *testing.T) {
	r, out := newTestREPL(t, "http://127.0.0.1:1")

	assert.True(t, r.handle(context.Background(), "/quit"))
	assert.False(t, r.handle(context.Background(), "   "))

	r.handle(context.Background(), "/copy")
	assert.Contains(t, out.String(), "Nothing to copy yet")

	r.handle(context.Background(), "/note")
	assert.Contains(t, out.String(), "No doctor's note")

	r.handle(context.Background(), "/theme")
	assert.Contains(t, out.String(), "Theme: light")

	r.handle(context.Background(), "/bogus")
	assert.Contains(t, out.String(), "Unknown command /bogus")

	r.handle(context.Background(), "/attach")
	assert.Contains(t, out.String(), "Usage: /attach PATH")
}
