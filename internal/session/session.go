// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/aimednow/internal/api"
	"github.com/jeranaias/aimednow/internal/crypt"
	"github.com/jeranaias/aimednow/internal/kv"
	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/storage"
)

var (
	// ErrEmptyText is returned by BeginText for blank input.
	ErrEmptyText = errors.New("session: empty message")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: closed")
	// ErrNotFound is returned when no message has the given ID.
	ErrNotFound = errors.New("session: message not found")
	// ErrNotNote is returned when a view is selected on a message without a note.
	ErrNotNote = errors.New("session: message is not a doctor's note")
)

// Backend is the remote QnA/EHR service. *api.Client implements it.
type Backend interface {
	Ask(ctx context.Context, prompt string) (*api.QnAResponse, error)
	UploadEHR(ctx context.Context, name, mime string, r io.Reader) (*api.UploadResult, error)
}

// Options configures New.
type Options struct {
	Backend Backend
	Store   kv.Store

	// Sealer encrypts the answer cache when non-nil
	Sealer *crypt.Sealer

	// Logger defaults to a no-op logger
	Logger *zap.Logger

	// DefaultTheme applies while no theme is stored
	DefaultTheme storage.Theme
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the application state: transcript, answer cache and theme,
// plus the set of in-flight requests.
//
// All methods are safe for concurrent use. Network calls run outside the
// lock; each completion replaces only its own placeholder.
type Session struct {
	backend     Backend
	transcripts *storage.TranscriptStore
	answers     *storage.AnswerCache
	themes      *storage.ThemeStore
	logger      *zap.Logger

	mu         sync.Mutex
	transcript *model.Transcript
	theme      storage.Theme
	inflight   map[string]context.CancelFunc
	closed     bool
}

// New loads persisted state from opts.Store.
//
// An undecodable transcript (for example widget-era HTML) is logged and the
// session starts empty; it is overwritten on the next save.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, errors.New("session: backend is required")
	}
	if opts.Store == nil {
		return nil, errors.New("session: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		backend:     opts.Backend,
		transcripts: storage.NewTranscriptStore(opts.Store),
		answers:     storage.NewAnswerCache(opts.Store, opts.Sealer),
		themes:      storage.NewThemeStore(opts.Store),
		logger:      logger,
		inflight:    make(map[string]context.CancelFunc),
	}

	msgs, err := s.transcripts.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		logger.Warn("discarding unreadable transcript", zap.Error(err))
		msgs = nil
	case err != nil:
		return nil, err
	}
	s.transcript = model.NewTranscript(msgs)

	theme, ok, err := s.themes.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		theme = opts.DefaultTheme
		if theme == "" {
			theme = storage.ThemeDark
		}
	}
	s.theme = theme

	return s, nil
}

// persistLocked writes the transcript. Caller holds s.mu.
// Failures are logged; the in-memory transcript stays authoritative.
func (s *Session) persistLocked(ctx context.Context) {
	if err := s.transcripts.Save(context.WithoutCancel(ctx), s.transcript.Messages); err != nil {
		s.logger.Error("failed to save transcript", zap.Error(err))
	}
}

// track registers a cancellable context for the placeholder id.
// Caller holds s.mu.
func (s *Session) trackLocked(ctx context.Context, id string) context.Context {
	reqCtx, cancel := context.WithCancel(ctx)
	s.inflight[id] = cancel
	return reqCtx
}

func (s *Session) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.inflight[id]; ok {
		cancel()
		delete(s.inflight, id)
	}
}

// =============================================================================
// TEXT QUESTIONS
// =============================================================================

// PendingText is a question whose reply has not arrived yet.
type PendingText struct {
	// Question is the outgoing record
	Question *model.Message
	// PlaceholderID identifies the typing placeholder the reply replaces
	PlaceholderID string
	// Prompt is the text sent to the service
	Prompt string

	ctx context.Context
}

// BeginText appends the outgoing question and a typing placeholder, persists
// the transcript and builds the prompt. No network call is made.
func (s *Session) BeginText(ctx context.Context, text string) (*PendingText, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	entries, err := s.answers.List(ctx)
	if err != nil {
		s.logger.Warn("answer cache unreadable, asking without EHRs", zap.Error(err))
		entries = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	question := model.NewUserText(text)
	typing := model.NewTyping()
	s.transcript.Append(question, typing)
	s.persistLocked(ctx)

	return &PendingText{
		Question:      question.Clone(),
		PlaceholderID: typing.ID,
		Prompt:        BuildPrompt(entries, text),
		ctx:           s.trackLocked(ctx, typing.ID),
	}, nil
}

// CompleteText asks the service and replaces the placeholder with the reply.
// It always returns a message: the answer, the emergency sources, or the
// fixed error text.
func (s *Session) CompleteText(p *PendingText) *model.Message {
	defer s.untrack(p.PlaceholderID)

	reply := s.askReply(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transcript.Replace(p.PlaceholderID, reply) {
		s.logger.Debug("placeholder gone, dropping reply", zap.String("placeholder", p.PlaceholderID))
		return reply.Clone()
	}
	s.persistLocked(p.ctx)
	return reply.Clone()
}

func (s *Session) askReply(p *PendingText) *model.Message {
	resp, err := s.backend.Ask(p.ctx, p.Prompt)
	if err != nil {
		s.logger.Warn("qna request failed",
			zap.String("placeholder", p.PlaceholderID),
			zap.Stringer("type", api.TypeOf(err)),
			zap.Error(err))
		return model.NewError(model.QnAErrorText)
	}

	if resp.IsEmergency() {
		s.logger.Info("emergency classification", zap.String("placeholder", p.PlaceholderID))
		return model.NewEmergencyAnswer(resp.SourceText())
	}
	return model.NewAnswer(resp.AnswerText())
}

// SendText runs BeginText and CompleteText in sequence.
func (s *Session) SendText(ctx context.Context, text string) (*model.Message, error) {
	p, err := s.BeginText(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.CompleteText(p), nil
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// PendingUpload is an image upload whose reply has not arrived yet.
type PendingUpload struct {
	// Record is the outgoing "Uploaded: <name>" message
	Record *model.Message
	// PlaceholderID identifies the typing placeholder the reply replaces
	PlaceholderID string

	data []byte
	ctx  context.Context
}

// BeginUpload records the attachment. Images also get a typing placeholder
// and a non-nil PendingUpload; other files are recorded with no reply and
// BeginUpload returns (nil, nil).
func (s *Session) BeginUpload(ctx context.Context, name string, data []byte) (*PendingUpload, error) {
	att := model.DetectAttachment(name, data, int64(len(data)))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	record := model.NewAttachmentMessage(att)
	s.transcript.Append(record)

	if !att.IsImage() {
		s.persistLocked(ctx)
		return nil, nil
	}

	typing := model.NewTyping()
	s.transcript.Append(typing)
	s.persistLocked(ctx)

	return &PendingUpload{
		Record:        record.Clone(),
		PlaceholderID: typing.ID,
		data:          data,
		ctx:           s.trackLocked(ctx, typing.ID),
	}, nil
}

// CompleteUpload sends the image and replaces the placeholder with the reply.
// A doctor's note adds its simplified text to the answer cache; any other
// image adds its description when non-empty. Failures leave the cache alone.
func (s *Session) CompleteUpload(p *PendingUpload) *model.Message {
	defer s.untrack(p.PlaceholderID)

	att := p.Record.Attachment
	res, err := s.backend.UploadEHR(p.ctx, att.Name, att.MIME, bytes.NewReader(p.data))

	var (
		reply *model.Message
		entry string
		add   bool
	)
	switch {
	case err != nil:
		s.logger.Warn("ehr upload failed",
			zap.String("file", att.Name),
			zap.Stringer("type", api.TypeOf(err)),
			zap.Error(err))
		reply = model.NewError(model.UploadErrorText)
	case res.IsDoctorNote:
		reply = model.NewNoteMessage(res.AnswerText(), res.OriginalText, res.SimplifiedText)
		entry, add = res.SimplifiedText, true
	default:
		reply = model.NewDescription(res.AnswerText())
		entry, add = res.AnswerText(), res.AnswerText() != ""
	}

	if add {
		if err := s.answers.Append(context.WithoutCancel(p.ctx), entry); err != nil {
			s.logger.Error("failed to update answer cache", zap.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transcript.Replace(p.PlaceholderID, reply) {
		s.logger.Debug("placeholder gone, dropping reply", zap.String("placeholder", p.PlaceholderID))
		return reply.Clone()
	}
	s.persistLocked(p.ctx)
	return reply.Clone()
}

// Upload runs BeginUpload and CompleteUpload in sequence. The reply is nil
// for non-image files.
func (s *Session) Upload(ctx context.Context, name string, data []byte) (*model.Message, error) {
	p, err := s.BeginUpload(ctx, name, data)
	if err != nil || p == nil {
		return nil, err
	}
	return s.CompleteUpload(p), nil
}

// =============================================================================
// CANCELLATION
// =============================================================================

// Cancel aborts the in-flight request owning placeholder id. The reply
// becomes the call site's error text. Returns false if nothing was pending.
func (s *Session) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.inflight[id]
	if ok {
		cancel()
	}
	return ok
}

// InFlight returns the number of requests awaiting a reply.
func (s *Session) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Close cancels every in-flight request and rejects new ones.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, cancel := range s.inflight {
		cancel()
	}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Messages returns a copy of the transcript, placeholders included.
func (s *Session) Messages() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Snapshot()
}

// IsEmpty reports whether the welcome text should be shown.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.IsEmpty()
}

// LastReply returns a copy of the latest settled reply, or nil.
func (s *Session) LastReply() *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.transcript.LastReply(); m != nil {
		return m.Clone()
	}
	return nil
}

// DeleteTranscript clears the history in memory and in storage.
// The answer cache is kept; see ClearAnswers. Pending replies are dropped
// when they arrive.
func (s *Session) DeleteTranscript(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.Clear()
	return s.transcripts.Delete(ctx)
}

// =============================================================================
// NOTES
// =============================================================================

// ShowNoteView selects the visible text of the note message id.
// The selection is not persisted.
func (s *Session) ShowNoteView(id string, view model.NoteView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, err := s.noteLocked(id)
	if err != nil {
		return err
	}
	note.Show(view)
	return nil
}

// ToggleNoteView flips the note message id and returns the new view.
func (s *Session) ToggleNoteView(id string) (model.NoteView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, err := s.noteLocked(id)
	if err != nil {
		return model.ViewSimplified, err
	}
	return note.Toggle(), nil
}

func (s *Session) noteLocked(id string) (*model.Note, error) {
	m := s.transcript.Find(id)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m.Note == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotNote, id)
	}
	return m.Note, nil
}

// =============================================================================
// ANSWER CACHE
// =============================================================================

// Answers returns the cached EHR text in upload order.
func (s *Session) Answers(ctx context.Context) ([]string, error) {
	return s.answers.List(ctx)
}

// ClearAnswers empties the answer cache.
func (s *Session) ClearAnswers(ctx context.Context) error {
	return s.answers.Clear(ctx)
}

// =============================================================================
// THEME
// =============================================================================

// Theme returns the current theme.
func (s *Session) Theme() storage.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SetTheme stores theme.
func (s *Session) SetTheme(ctx context.Context, theme storage.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.themes.Set(ctx, theme); err != nil {
		return err
	}
	s.theme = theme
	return nil
}

// ToggleTheme switches between light and dark and stores the result.
func (s *Session) ToggleTheme(ctx context.Context) (storage.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.theme.Toggle()
	if err := s.themes.Set(ctx, next); err != nil {
		return s.theme, err
	}
	s.theme = next
	return next, nil
}
