// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/jeranaias/aimednow/internal/util"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the QnA/EHR client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinels by Type, so wrapped causes still compare equal.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Cause == nil && t.Message == "" && t.Type == e.Type
}

// ErrorType categorizes client errors for logging.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeCancelled
	ErrTypeInvalidResponse
)

// String returns the log name of the type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCancelled:
		return "cancelled"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is checks.
var (
	ErrConnection      = &ClientError{Type: ErrTypeConnection}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout}
	ErrCancelled       = &ClientError{Type: ErrTypeCancelled}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse}
)

// TypeOf returns the ErrorType of err, ErrTypeUnknown for foreign errors.
func TypeOf(err error) ErrorType {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrTypeUnknown
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the client.
type ClientConfig struct {
	// BaseURL is the service base URL (default: http://localhost:5000)
	BaseURL string

	// QnAPath is the question endpoint (default: /api/qna)
	QnAPath string

	// UploadPath is the EHR endpoint (default: /api/upload_ehr)
	UploadPath string

	// Timeout bounds each request; 0 waits for the server indefinitely
	Timeout time.Duration

	// HTTPClient overrides the transport (tests)
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    "http://localhost:5000",
		QnAPath:    "/api/qna",
		UploadPath: "/api/upload_ehr",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the QnA/EHR service. There are no retries: one call is one
// request. The Client is safe for concurrent use.
//
// Example:
//
//	client := api.NewClient()
//	resp, err := client.Ask(ctx, prompt)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	d := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = d.BaseURL
	}
	if config.QnAPath == "" {
		config.QnAPath = d.QnAPath
	}
	if config.UploadPath == "" {
		config.UploadPath = d.UploadPath
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{config: config, httpClient: httpClient}
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// QNA
// =============================================================================

// Ask posts prompt to the QnA endpoint.
//
// The HTTP status is not inspected; a body that decodes to a response with
// an answer is a success. A missing answer, or an emergency classification
// without a source, is ErrTypeInvalidResponse.
func (c *Client) Ask(ctx context.Context, prompt string) (*QnAResponse, error) {
	body, err := json.Marshal(QnARequest{Text: prompt})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.QnAPath, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var result QnAResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	if result.Answer == nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "response has no answer"}
	}
	if result.IsEmergency() && result.Source == nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "emergency response has no source"}
	}
	return &result, nil
}

// =============================================================================
// EHR UPLOAD
// =============================================================================

// UploadEHR sends one file as the multipart field "file".
// mime is the sniffed content type; name is sanitized before sending.
//
// A non-note result without an answer is ErrTypeInvalidResponse.
func (c *Client) UploadEHR(ctx context.Context, name, mime string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, util.SanitizeFilename(name)))
	if mime == "" {
		mime = "application/octet-stream"
	}
	header.Set("Content-Type", mime)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build form", Cause: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to read file", Cause: err}
	}
	if err := w.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build form", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.UploadPath, &buf)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if !result.IsDoctorNote && result.Answer == nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "response has no answer"}
	}
	return &result, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(req.Context(), err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return classifyTransport(req.Context(), ctxErr)
		}
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "failed to decode response (" + resp.Status + ")",
			Cause:   err,
		}
	}
	return nil
}

func classifyTransport(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return &ClientError{Type: ErrTypeCancelled, Message: "request cancelled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	default:
		return &ClientError{Type: ErrTypeConnection, Message: "service unreachable", Cause: err}
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
