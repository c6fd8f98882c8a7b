// Package client is a Go SDK for the Edu-Code REST API.
//
// A Client can serve as the exam source and the attempt recorder of a
// terminal exam session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dulakshi2002/Edu-Code/internal/codeexec"
	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrTransport marks calls that never got an HTTP response, such as a
	// refused connection or a timeout. API rejections are *APIError instead.
	ErrTransport = errors.New("server unreachable")
)

// APIError is a failed API call.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []validate.FieldError
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}

// Is lets callers match status classes with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// Client talks to an Edu-Code server.
type Client struct {
	baseURL    string
	token      string
	language   string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLanguage asks the server for messages in lang.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

type signinResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Signin authenticates and keeps the issued token for later calls.
func (c *Client) Signin(ctx context.Context, email, password string) (*model.User, error) {
	var out signinResponse
	err := c.call(ctx, http.MethodPost, "/api/auth/signin", model.SigninInput{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return out.User, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.call(ctx, http.MethodGet, "/api/user/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListExams(ctx context.Context) ([]model.Exam, error) {
	var exams []model.Exam
	err := c.call(ctx, http.MethodPost, "/api/exams/get-all-exams", nil, &exams)
	return exams, err
}

// GetExam loads an exam with its questions.
func (c *Client) GetExam(ctx context.Context, id string) (model.Exam, error) {
	var exam model.Exam
	err := c.call(ctx, http.MethodPost, "/api/exams/get-exam-by-id", map[string]string{"examId": id}, &exam)
	return exam, err
}

// RecordAttempt stores a graded attempt. The server takes the user from the
// token, so userID is not sent.
func (c *Client) RecordAttempt(ctx context.Context, examID, userID string, result model.ExamResult) error {
	return c.call(ctx, http.MethodPost, "/api/examsReport/add-exam-attempt", model.AttemptInput{ExamID: examID, Result: result}, nil)
}

// ListMyReports returns the caller's reports, newest first.
func (c *Client) ListMyReports(ctx context.Context) ([]model.ReportView, error) {
	var reports []model.ReportView
	err := c.call(ctx, http.MethodPost, "/api/examsReport/get-attempts-by-user", nil, &reports)
	return reports, err
}

// ListReports returns every report. Admin only.
func (c *Client) ListReports(ctx context.Context) ([]model.ReportView, error) {
	var reports []model.ReportView
	err := c.call(ctx, http.MethodPost, "/api/examsReport/get-all-attempts", nil, &reports)
	return reports, err
}

func (c *Client) DeleteReport(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/api/examsReport/delete-exam-report", map[string]string{"reportId": id}, nil)
}

// RunCode executes code through the server's IDE endpoint.
func (c *Client) RunCode(ctx context.Context, req codeexec.Request) (codeexec.Result, error) {
	var res codeexec.Result
	body, err := c.doRequest(ctx, http.MethodPost, "/ide/runCode", req)
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return res, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return res, nil
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Code    string                `json:"code"`
	Fields  []validate.FieldError `json:"fields"`
}

// call sends in as JSON and decodes the envelope's data into out.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	body, err := c.doRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !env.Success {
		return &APIError{Status: http.StatusOK, Code: env.Code, Message: env.Message, Fields: env.Fields}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var env envelope
		if json.Unmarshal(respBody, &env) == nil && env.Message != "" {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.Fields = env.Fields
		}
		return nil, apiErr
	}
	return respBody, nil
}
