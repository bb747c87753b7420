// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeranaias/aimednow/internal/export"
	"github.com/jeranaias/aimednow/internal/model"
	"github.com/jeranaias/aimednow/internal/session"
	"github.com/jeranaias/aimednow/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8790

	// MaxQuestionBytes bounds the JSON body of a question.
	MaxQuestionBytes = 64 * 1024

	// sweepInterval is how often idle rate limit buckets are dropped.
	sweepInterval = time.Minute
)

// ============================================================================
// SESSION INTERFACE
// ============================================================================

// Session is the part of *session.Session the API serves.
type Session interface {
	SendText(ctx context.Context, text string) (*model.Message, error)
	Upload(ctx context.Context, name string, data []byte) (*model.Message, error)
	Messages() []*model.Message
	InFlight() int
	DeleteTranscript(ctx context.Context) error
	ShowNoteView(id string, view model.NoteView) error

	Theme() storage.Theme
	SetTheme(ctx context.Context, theme storage.Theme) error
	ToggleTheme(ctx context.Context) (storage.Theme, error)

	Answers(ctx context.Context) ([]string, error)
	ClearAnswers(ctx context.Context) error
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures New.
type Options struct {
	Host           string
	Port           int
	RateLimit      float64
	AllowedOrigins []string
	Token          string
	Version        string
	Logger         *zap.Logger
}

// Server is the local JSON API over one session.
type Server struct {
	opts    Options
	sess    Session
	log     *zap.Logger
	engine  *gin.Engine
	limiter *IPRateLimiter
	started time.Time
	http    *http.Server
}

// New creates a Server and registers its routes.
func New(sess Session, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		opts:    opts,
		sess:    sess,
		log:     opts.Logger.Named("server"),
		limiter: NewIPRateLimiter(opts.RateLimit, 0),
		started: time.Now(),
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(Logger(s.log))
	r.Use(SecurityHeaders())
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(RateLimit(s.limiter, s.log))
	if opts.Token != "" {
		r.Use(BearerAuth(opts.Token))
	}
	s.engine = r
	s.registerRoutes()
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) registerRoutes() {
	r := s.engine
	r.GET("/health", s.handleHealth)
	r.GET("/transcript.html", s.handleTranscriptHTML)

	api := r.Group("/api")
	api.GET("/transcript", s.handleTranscript)
	api.DELETE("/transcript", s.handleDeleteTranscript)
	api.GET("/transcript/export", s.handleExport)

	api.POST("/messages", s.handleSend)
	api.POST("/attachments", s.handleUpload)
	api.PUT("/notes/:id/view", s.handleNoteView)

	api.GET("/theme", s.handleGetTheme)
	api.PUT("/theme", s.handleSetTheme)
	api.POST("/theme/toggle", s.handleToggleTheme)

	api.GET("/answers", s.handleAnswers)
	api.DELETE("/answers", s.handleClearAnswers)
}

// ============================================================================
// HANDLERS
// ============================================================================

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
	Messages int    `json:"messages"`
	InFlight int    `json:"in_flight"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.opts.Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Messages: len(s.sess.Messages()),
		InFlight: s.sess.InFlight(),
	})
}

// MessageResponse is a transcript record as served by the API. Notes carry
// their active view, which the stored transcript leaves out.
type MessageResponse struct {
	*model.Message
	Note *NoteResponse `json:"note,omitempty"`
}

// NoteResponse is a doctor's note plus its active view.
type NoteResponse struct {
	*model.Note
	View string `json:"view"`
}

func newMessageResponse(m *model.Message) *MessageResponse {
	if m == nil {
		return nil
	}
	resp := &MessageResponse{Message: m}
	if m.Note != nil {
		resp.Note = &NoteResponse{Note: m.Note, View: strings.ToLower(m.Note.View().String())}
	}
	return resp
}

func (s *Server) handleTranscript(c *gin.Context) {
	msgs := s.sess.Messages()
	data := make([]*MessageResponse, len(msgs))
	for i, m := range msgs {
		data[i] = newMessageResponse(m)
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (s *Server) handleDeleteTranscript(c *gin.Context) {
	if err := s.sess.DeleteTranscript(c.Request.Context()); err != nil {
		s.internalError(c, "delete transcript", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleTranscriptHTML(c *gin.Context) {
	opts := export.DefaultOptions()
	opts.Theme = string(s.sess.Theme())
	s.writeExport(c, export.NewHTMLExporter(opts))
}

func (s *Server) handleExport(c *gin.Context) {
	opts := export.DefaultOptions()
	opts.Theme = string(s.sess.Theme())
	exp, err := export.ForFormat(c.DefaultQuery("format", "json"), opts)
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	if c.Query("download") != "" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFilename(exp, time.Now())))
	}
	s.writeExport(c, exp)
}

func (s *Server) writeExport(c *gin.Context, exp export.Exporter) {
	data, err := exp.Export(s.sess.Messages())
	if err != nil {
		s.internalError(c, "export", err)
		return
	}
	c.Data(http.StatusOK, exp.MimeType(), data)
}

// QuestionRequest is the body of POST /api/messages.
type QuestionRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSend(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxQuestionBytes)

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortError(c, http.StatusRequestEntityTooLarge, "question too large")
			return
		}
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.sess.SendText(c.Request.Context(), req.Text)
	if err != nil {
		s.sessionError(c, "send", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": newMessageResponse(reply)})
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, model.MaxAttachmentSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortError(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		abortError(c, http.StatusBadRequest, `missing multipart field "file"`)
		return
	}
	if fh.Size > model.MaxAttachmentSize {
		abortError(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.internalError(c, "open upload", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, model.MaxAttachmentSize))
	if err != nil {
		s.internalError(c, "read upload", err)
		return
	}

	name := filepath.Base(strings.ReplaceAll(fh.Filename, "\\", "/"))
	reply, err := s.sess.Upload(c.Request.Context(), name, data)
	if err != nil {
		s.sessionError(c, "upload", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": newMessageResponse(reply), "analyzed": reply != nil})
}

// NoteViewRequest is the body of PUT /api/notes/:id/view.
type NoteViewRequest struct {
	View string `json:"view"`
}

func (s *Server) handleNoteView(c *gin.Context) {
	var req NoteViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	view, ok := model.ParseNoteView(req.View)
	if !ok {
		abortError(c, http.StatusBadRequest, `view must be "simplified" or "original"`)
		return
	}
	if err := s.sess.ShowNoteView(c.Param("id"), view); err != nil {
		s.sessionError(c, "note view", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "view": strings.ToLower(view.String())})
}

// ThemeRequest is the body of PUT /api/theme.
type ThemeRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) handleGetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": s.sess.Theme()})
}

func (s *Server) handleSetTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	theme, ok := storage.ParseTheme(req.Theme)
	if !ok {
		abortError(c, http.StatusBadRequest, `theme must be "dark" or "light"`)
		return
	}
	if err := s.sess.SetTheme(c.Request.Context(), theme); err != nil {
		s.internalError(c, "set theme", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

func (s *Server) handleToggleTheme(c *gin.Context) {
	theme, err := s.sess.ToggleTheme(c.Request.Context())
	if err != nil {
		s.internalError(c, "toggle theme", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

func (s *Server) handleAnswers(c *gin.Context) {
	answers, err := s.sess.Answers(c.Request.Context())
	if err != nil {
		s.internalError(c, "list answers", err)
		return
	}
	if answers == nil {
		answers = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"data": answers})
}

func (s *Server) handleClearAnswers(c *gin.Context) {
	if err := s.sess.ClearAnswers(c.Request.Context()); err != nil {
		s.internalError(c, "clear answers", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.http = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sweep(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server start", zap.String("addr", ln.Addr().String()), zap.String("version", s.opts.Version))
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("server shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Sweep()
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

// abortError writes a JSON error response and stops the chain.
func abortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"message": message,
			"code":    status,
		},
	})
}

// sessionError maps session errors to status codes.
func (s *Server) sessionError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, session.ErrEmptyText):
		abortError(c, http.StatusBadRequest, "text must not be empty")
	case errors.Is(err, session.ErrNotFound):
		abortError(c, http.StatusNotFound, "message not found")
	case errors.Is(err, session.ErrNotNote):
		abortError(c, http.StatusConflict, "message is not a doctor's note")
	case errors.Is(err, session.ErrClosed):
		abortError(c, http.StatusServiceUnavailable, "session closed")
	default:
		s.internalError(c, op, err)
	}
}

// internalError logs the cause and returns a generic message.
func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.log.Error(op+" failed", zap.Error(err))
	abortError(c, http.StatusInternalServerError, "internal error")
}
