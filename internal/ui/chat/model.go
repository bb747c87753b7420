// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/session"
	"github.com/jeranaias/aimednow/internal/storage"
	"github.com/jeranaias/aimednow/internal/ui/components"
	"github.com/jeranaias/aimednow/internal/ui/styles"
)

// =============================================================================
// SESSION INTERFACE
// =============================================================================

// Session is the part of *session.Session the chat view drives.
type Session interface {
	BeginText(ctx context.Context, text string) (*session.PendingText, error)
	CompleteText(p *session.PendingText) *model.Message
	BeginUpload(ctx context.Context, name string, data []byte) (*session.PendingUpload, error)
	CompleteUpload(p *session.PendingUpload) *model.Message
	Cancel(id string) bool
	InFlight() int

	Messages() []*model.Message
	IsEmpty() bool
	LastReply() *model.Message
	DeleteTranscript(ctx context.Context) error
	ToggleNoteView(id string) (model.NoteView, error)

	Theme() storage.Theme
	ToggleTheme(ctx context.Context) (storage.Theme, error)
}

// =============================================================================
// MODEL
// =============================================================================

// State is the input mode of the chat view.
type State int

const (
	// StateReady accepts input.
	StateReady State = iota
	// StateConfirmDelete waits for y/n before deleting all chats.
	StateConfirmDelete
)

// statusTTL is how long a status notice stays visible.
const statusTTL = 4 * time.Second

// Options configures New.
type Options struct {
	Session Session

	// Endpoint is shown in the status bar
	Endpoint string

	// ConfirmDelete asks before deleting all chats
	ConfirmDelete bool

	Logger *zap.Logger

	// CopyFunc writes to the clipboard; defaults to atotto/clipboard
	CopyFunc func(string) error
}

// Model is the Bubble Tea model of the chat view.
type Model struct {
	ctx   context.Context
	sess  Session
	log   *zap.Logger
	state State
	keys  KeyMap

	theme    *styles.Theme
	markdown *components.MarkdownRenderer
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	// pending holds placeholder IDs in send order
	pending []string

	endpoint      string
	confirmDelete bool
	copy          func(string) error

	notice      string
	noticeLevel components.StatusLevel
	noticeSeq   int
	quitting    bool
}

// New creates a chat model over opts.Session. ctx bounds every request
// started from the view.
func New(ctx context.Context, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a medical question, or /attach PATH"
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	copyFn := opts.CopyFunc
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	m := Model{
		ctx:           ctx,
		sess:          opts.Session,
		log:           logger,
		state:         StateReady,
		keys:          DefaultKeyMap(),
		markdown:      components.NewMarkdownRenderer(),
		viewport:      vp,
		input:         ti,
		spinner:       sp,
		endpoint:      opts.Endpoint,
		confirmDelete: opts.ConfirmDelete,
		copy:          copyFn,
	}
	m.applyTheme(opts.Session.Theme())
	return m
}

// Init starts the cursor blink and the typing spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// State returns the current input mode.
func (m Model) State() State {
	return m.state
}

// Notice returns the current status notice.
func (m Model) Notice() string {
	return m.notice
}

// Pending returns the placeholder IDs still waiting for a reply.
func (m Model) Pending() []string {
	return append([]string(nil), m.pending...)
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) applyTheme(t storage.Theme) {
	m.theme = styles.NewTheme(t == storage.ThemeDark)
	m.theme.SetSize(m.width, m.height)
}

func (m *Model) removePending(id string) {
	kept := make([]string, 0, len(m.pending))
	for _, p := range m.pending {
		if p != id {
			kept = append(kept, p)
		}
	}
	m.pending = kept
}

// setNotice shows a status notice and schedules its removal.
func (m *Model) setNotice(text string, level components.StatusLevel) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.noticeLevel = level
	seq := m.noticeSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}

// refresh re-renders the transcript into the viewport. When follow is set
// the viewport scrolls to the newest message.
func (m *Model) refresh(follow bool) {
	if !m.ready {
		return
	}
	var content string
	if m.sess.IsEmpty() {
		content = components.Welcome(m.theme, m.viewport.Width, m.viewport.Height)
	} else {
		content = components.RenderTranscript(m.sess.Messages(), m.theme, m.markdown, m.viewport.Width, m.spinner.View())
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(content)
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}

// latestNoteID returns the ID of the newest doctor's note, or "".
func latestNoteID(msgs []*model.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind == model.KindNote && msgs[i].Note != nil {
			return msgs[i].ID
		}
	}
	return ""
}
