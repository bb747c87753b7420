// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aimednow/internal/api"
	"github.com/jeranaias/aimednow/internal/kv"
	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/session"
	"github.com/jeranaias/aimednow/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubBackend struct {
	answer string
	note   bool
	err    error
}

func (b *stubBackend) Ask(ctx context.Context, prompt string) (*api.QnAResponse, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &api.QnAResponse{Answer: &b.answer}, nil
}

func (b *stubBackend) UploadEHR(ctx context.Context, name, mime string, r io.Reader) (*api.UploadResult, error) {
	if b.err != nil {
		return nil, b.err
	}
	_, _ = io.Copy(io.Discard, r)
	return &api.UploadResult{
		Answer:         &b.answer,
		IsDoctorNote:   b.note,
		OriginalText:   "Pt c/o HA",
		SimplifiedText: "The patient has a headache",
	}, nil
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func newModel(t *testing.T, backend *stubBackend, confirm bool) (Model, *session.Session, *[]string) {
	t.Helper()
	sess, err := session.New(context.Background(), session.Options{
		Backend:      backend,
		Store:        kv.NewMemory(),
		DefaultTheme: storage.ThemeDark,
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	var copied []string
	m := New(context.Background(), Options{
		Session:       sess,
		Endpoint:      "http://localhost:5000",
		ConfirmDelete: confirm,
		CopyFunc: func(s string) error {
			copied = append(copied, s)
			return nil
		},
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, sess, &copied
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func stepCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeAndSend(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	return stepCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// TESTS
// =============================================================================

func TestView_WelcomeWhenEmpty(t *testing.T) {
	m, _, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	assert.Contains(t, ansi.Strip(m.View()), "Start a conversation")
}

func TestSubmit_ShowsQuestionBeforeReply(t *testing.T) {
	m, sess, _ := newModel(t, &stubBackend{answer: "Rest and fluids."}, true)

	m, cmd := typeAndSend(t, m, "I have a cold")
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())
	require.Len(t, m.Pending(), 1)

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "I have a cold", msgs[0].Content)
	assert.True(t, msgs[1].IsPending())

	reply, ok := cmd().(ReplyMsg)
	require.True(t, ok)
	assert.Equal(t, "Rest and fluids.", reply.Reply.Content)

	m = step(t, m, reply)
	assert.Empty(t, m.Pending())
	assert.Contains(t, ansi.Strip(m.viewport.View()), "Rest and fluids.")
}

func TestSubmit_EmptyInputIgnored(t *testing.T) {
	m, sess, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	m, cmd := typeAndSend(t, m, "   ")
	assert.Nil(t, cmd)
	assert.True(t, sess.IsEmpty())
	assert.Empty(t, m.Pending())
}

func TestSubmit_FailureShowsFixedText(t *testing.T) {
	m, sess, _ := newModel(t, &stubBackend{err: errors.New("refused")}, true)
	m, cmd := typeAndSend(t, m, "hello")
	m = step(t, m, cmd())

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.KindError, msgs[1].Kind)
	assert.Equal(t, model.QnAErrorText, msgs[1].Content)
	assert.Empty(t, m.Pending())
}

func TestAttach_ImageUploads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))

	m, sess, _ := newModel(t, &stubBackend{answer: "A note.", note: true}, true)
	m, cmd := typeAndSend(t, m, "/attach "+path)
	require.NotNil(t, cmd)

	read, ok := cmd().(FileReadMsg)
	require.True(t, ok)
	require.NoError(t, read.Err)
	assert.Equal(t, "note.png", read.Name)

	m, cmd = stepCmd(t, m, read)
	require.NotNil(t, cmd)
	require.Len(t, m.Pending(), 1)
	m = step(t, m, cmd())

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Uploaded: note.png", msgs[0].Content)
	assert.Equal(t, model.KindNote, msgs[1].Kind)

	// tab flips the note to its original text
	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, model.ViewOriginal, sess.Messages()[1].Note.View())
	assert.Contains(t, m.Notice(), "Original")
}

func TestAttach_MissingFile(t *testing.T) {
	m, sess, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	m, cmd := typeAndSend(t, m, "/attach /does/not/exist.png")
	m = step(t, m, cmd())
	assert.Contains(t, m.Notice(), "Cannot read")
	assert.True(t, sess.IsEmpty())
}

func TestAttach_Usage(t *testing.T) {
	m, _, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	m, _ = typeAndSend(t, m, "/attach")
	assert.Contains(t, m.Notice(), "Usage")
}

func TestToggleNote_NoNote(t *testing.T) {
	m, _, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.Notice(), "No doctor's note")
}

func TestCopy_LastReply(t *testing.T) {
	m, _, copied := newModel(t, &stubBackend{answer: "Take ibuprofen."}, true)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Contains(t, m.Notice(), "No response")
	assert.Empty(t, *copied)

	m, cmd := typeAndSend(t, m, "headache?")
	m = step(t, m, cmd())
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	require.Len(t, *copied, 1)
	assert.Equal(t, "Take ibuprofen.", (*copied)[0])
	assert.Contains(t, m.Notice(), "Copied")
}

func TestToggleTheme_Persists(t *testing.T) {
	m, sess, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	require.Equal(t, storage.ThemeDark, sess.Theme())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, storage.ThemeLight, sess.Theme())
	assert.False(t, m.theme.IsDark)
	assert.Contains(t, m.Notice(), "light")
}

func TestDelete_AsksFirst(t *testing.T) {
	m, sess, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	m, cmd := typeAndSend(t, m, "hello")
	m = step(t, m, cmd())
	require.False(t, sess.IsEmpty())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, StateConfirmDelete, m.State())
	assert.Contains(t, ansi.Strip(m.View()), confirmDeletePrompt)

	m = step(t, m, runes("n"))
	assert.Equal(t, StateReady, m.State())
	assert.False(t, sess.IsEmpty())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	m = step(t, m, runes("y"))
	assert.Equal(t, StateReady, m.State())
	assert.True(t, sess.IsEmpty())
	assert.Contains(t, ansi.Strip(m.View()), "Start a conversation")
}

func TestDelete_WithoutConfirm(t *testing.T) {
	m, sess, _ := newModel(t, &stubBackend{answer: "ok"}, false)
	m, cmd := typeAndSend(t, m, "hello")
	m = step(t, m, cmd())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, StateReady, m.State())
	assert.True(t, sess.IsEmpty())
}

func TestCancel_NewestPending(t *testing.T) {
	m, sess, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	m, cmd := typeAndSend(t, m, "hello")
	require.Equal(t, 1, sess.InFlight())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Contains(t, m.Notice(), "cancelled")

	m = step(t, m, cmd())
	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.KindError, msgs[1].Kind)
	assert.Empty(t, m.Pending())
}

func TestStatusNoticeExpires(t *testing.T) {
	m, _, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	m, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	require.NotEmpty(t, m.Notice())

	stale := statusClearMsg{seq: m.noticeSeq - 1}
	m = step(t, m, stale)
	assert.NotEmpty(t, m.Notice())

	m = step(t, m, statusClearMsg{seq: m.noticeSeq})
	assert.Empty(t, m.Notice())
}

func TestQuit(t *testing.T) {
	m, _, _ := newModel(t, &stubBackend{answer: "ok"}, true)
	m, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
