// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/session"
	"github.com/jeranaias/aimednow/internal/ui/components"
	"github.com/jeranaias/aimednow/internal/util"
)

// chromeHeight is the number of lines outside the viewport:
// header, input border, input, status bar, key hints.
const chromeHeight = 5

// attachCommand uploads the file named after it.
const attachCommand = "/attach"

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if len(m.pending) > 0 {
			m.refresh(false)
		}
		return m, cmd

	case ReplyMsg:
		m.removePending(msg.PlaceholderID)
		m.refresh(true)
		return m, nil

	case FileReadMsg:
		return m.handleFileRead(msg)

	case statusClearMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.viewport.Width = msg.Width
	m.viewport.Height = maxInt(3, msg.Height-chromeHeight)
	m.input.Width = maxInt(10, msg.Width-6)
	m.ready = true
	m.refresh(true)
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if m.state == StateConfirmDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.state = StateReady
			return m.deleteAll()
		case key.Matches(msg, m.keys.Deny):
			m.state = StateReady
			return m, m.setNotice("Delete cancelled", components.StatusInfo)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.ToggleNote):
		return m.toggleNote()
	case key.Matches(msg, m.keys.Copy):
		return m.copyLastReply()
	case key.Matches(msg, m.keys.ToggleTheme):
		return m.toggleTheme()
	case key.Matches(msg, m.keys.Delete):
		if m.confirmDelete {
			m.state = StateConfirmDelete
			return m, nil
		}
		return m.deleteAll()
	case key.Matches(msg, m.keys.Cancel):
		return m.cancelNewest()
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	for _, id := range m.pending {
		m.sess.Cancel(id)
	}
	return m, tea.Quit
}

// =============================================================================
// SENDING
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return m, nil
	}
	m.input.Reset()

	if value == attachCommand || strings.HasPrefix(value, attachCommand+" ") {
		path := strings.TrimSpace(strings.TrimPrefix(value, attachCommand))
		if path == "" {
			return m, m.setNotice("Usage: /attach PATH", components.StatusWarn)
		}
		return m, readFileCmd(path)
	}

	p, err := m.sess.BeginText(m.ctx, value)
	if err != nil {
		return m, m.sessionError("send", err)
	}
	m.pending = append(m.pending, p.PlaceholderID)
	m.refresh(true)
	return m, completeTextCmd(m.sess, p)
}

func (m Model) handleFileRead(msg FileReadMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn("attachment unreadable", zap.String("path", msg.Path), zap.Error(msg.Err))
		return m, m.setNotice("Cannot read "+msg.Path+": "+msg.Err.Error(), components.StatusError)
	}

	p, err := m.sess.BeginUpload(m.ctx, msg.Name, msg.Data)
	if err != nil {
		return m, m.sessionError("upload", err)
	}
	if p == nil {
		m.refresh(true)
		return m, m.setNotice("Saved "+msg.Name+"; only images are analyzed", components.StatusInfo)
	}
	m.pending = append(m.pending, p.PlaceholderID)
	m.refresh(true)
	return m, completeUploadCmd(m.sess, p)
}

func (m *Model) sessionError(op string, err error) tea.Cmd {
	if errors.Is(err, session.ErrClosed) {
		return m.setNotice("Session closed", components.StatusError)
	}
	m.log.Warn("chat "+op+" failed", zap.Error(err))
	return m.setNotice(op+" failed: "+err.Error(), components.StatusError)
}

func (m Model) cancelNewest() (tea.Model, tea.Cmd) {
	if len(m.pending) == 0 {
		return m, nil
	}
	id := m.pending[len(m.pending)-1]
	if !m.sess.Cancel(id) {
		return m, nil
	}
	return m, m.setNotice("Request cancelled", components.StatusWarn)
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) toggleNote() (tea.Model, tea.Cmd) {
	id := latestNoteID(m.sess.Messages())
	if id == "" {
		return m, m.setNotice("No doctor's note to switch", components.StatusWarn)
	}
	view, err := m.sess.ToggleNoteView(id)
	if err != nil {
		return m, m.sessionError("note view", err)
	}
	m.refresh(false)
	return m, m.setNotice("Showing "+view.String()+" text", components.StatusInfo)
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	reply := m.sess.LastReply()
	if reply == nil || reply.Content == "" {
		return m, m.setNotice("No response to copy", components.StatusWarn)
	}

	text := reply.PlainText()
	if err := m.copy(text); err != nil {
		m.log.Warn("clipboard write failed", zap.Error(err))
		return m, m.setNotice("Failed to copy: "+err.Error(), components.StatusError)
	}
	return m, m.setNotice(fmt.Sprintf("Copied response to clipboard (%d chars)", len([]rune(text))), components.StatusInfo)
}

func (m Model) toggleTheme() (tea.Model, tea.Cmd) {
	t, err := m.sess.ToggleTheme(m.ctx)
	m.applyTheme(m.sess.Theme())
	m.refresh(false)
	if err != nil {
		return m, m.sessionError("theme", err)
	}
	return m, m.setNotice("Theme: "+string(t), components.StatusInfo)
}

func (m Model) deleteAll() (tea.Model, tea.Cmd) {
	if err := m.sess.DeleteTranscript(m.ctx); err != nil {
		m.refresh(true)
		return m, m.sessionError("delete", err)
	}
	m.refresh(true)
	return m, m.setNotice("All chats deleted", components.StatusInfo)
}

// =============================================================================
// COMMANDS
// =============================================================================

func completeTextCmd(sess Session, p *session.PendingText) tea.Cmd {
	return func() tea.Msg {
		return ReplyMsg{PlaceholderID: p.PlaceholderID, Reply: sess.CompleteText(p)}
	}
}

func completeUploadCmd(sess Session, p *session.PendingUpload) tea.Cmd {
	return func() tea.Msg {
		return ReplyMsg{PlaceholderID: p.PlaceholderID, Reply: sess.CompleteUpload(p)}
	}
}

func readFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := util.ReadFileLimited(path, model.MaxAttachmentSize)
		return FileReadMsg{Path: path, Name: filepath.Base(path), Data: data, Err: err}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
