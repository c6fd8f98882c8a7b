// Package codeexec runs user code on a remote JDoodle-compatible execution
// service. Nothing is compiled or interpreted locally.
package codeexec

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the public JDoodle execute API.
const DefaultEndpoint = "https://api.jdoodle.com/v1/execute"

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrTransport           = errors.New("code execution service unavailable")
)

// Languages accepted by Run. The IDE sends these tags as is.
var Languages = []string{"java", "python", "cpp17"}

// providerLanguage maps an IDE tag to the provider's language name.
var providerLanguage = map[string]string{
	"java":   "java",
	"python": "python3",
	"cpp17":  "cpp17",
}

// Request is code submitted from the IDE. Cache asks for a stored result of
// an identical earlier run; leave it off for programs whose output depends
// on time or randomness.
type Request struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required,oneof=java python cpp17"`
	Input    string `json:"input"`
	Cache    bool   `json:"cache,omitempty"`
}

// Result is the provider's answer.
type Result struct {
	Output     string `json:"output"`
	StatusCode int    `json:"statusCode"`
	Memory     string `json:"memory,omitempty"`
	CPUTime    string `json:"cpuTime,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
}

// Cache stores results of earlier runs.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, r Result) error
}

// Executor forwards code to the execution service.
type Executor struct {
	endpoint     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	cache        Cache
}

// Option configures the executor
type Option func(*Executor)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) {
		e.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.httpClient.Timeout = timeout
	}
}

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(e *Executor) {
		e.cache = c
	}
}

// New creates an executor. An empty endpoint means DefaultEndpoint.
func New(endpoint, clientID, clientSecret string, opts ...Option) *Executor {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	e := &Executor{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type executeRequest struct {
	Script       string `json:"script"`
	Language     string `json:"language"`
	Stdin        string `json:"stdin"`
	VersionIndex string `json:"versionIndex"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type executeResponse struct {
	Output     string          `json:"output"`
	StatusCode int             `json:"statusCode"`
	Memory     json.RawMessage `json:"memory"`
	CPUTime    json.RawMessage `json:"cpuTime"`
	Error      string          `json:"error"`
}

// Run executes req remotely. Provider and network failures wrap ErrTransport.
func (e *Executor) Run(ctx context.Context, req Request) (Result, error) {
	lang, ok := providerLanguage[req.Language]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, req.Language)
	}

	key := CacheKey(req)
	useCache := e.cache != nil && req.Cache
	if useCache {
		r, hit, err := e.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("run cache lookup failed", "error", err)
		} else if hit {
			r.Cached = true
			return r, nil
		}
	}

	body, err := json.Marshal(executeRequest{
		Script:       req.Code,
		Language:     lang,
		Stdin:        req.Input,
		VersionIndex: "0",
		ClientID:     e.clientID,
		ClientSecret: e.clientSecret,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("%w: HTTP %d: %s", ErrTransport, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out executeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	if out.Error != "" {
		return Result{}, fmt.Errorf("%w: %s", ErrTransport, out.Error)
	}

	r := Result{
		Output:     out.Output,
		StatusCode: out.StatusCode,
		Memory:     rawString(out.Memory),
		CPUTime:    rawString(out.CPUTime),
	}
	slog.Debug("code executed", "language", req.Language, "status", r.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if useCache && r.StatusCode == http.StatusOK {
		if err := e.cache.Set(ctx, key, r); err != nil {
			slog.Warn("run cache store failed", "error", err)
		}
	}
	return r, nil
}

// CacheKey identifies a run by language, code and stdin.
func CacheKey(req Request) string {
	h := sha256.New()
	h.Write([]byte(req.Language))
	h.Write([]byte{0})
	h.Write([]byte(req.Code))
	h.Write([]byte{0})
	h.Write([]byte(req.Input))
	return "educode:run:" + hex.EncodeToString(h.Sum(nil))
}

// rawString accepts both JSON strings and numbers.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
