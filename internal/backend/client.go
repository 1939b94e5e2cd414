package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidsub/internal/config"
	"vidsub/internal/logging"
	"vidsub/internal/services"
)

const (
	defaultCatalogTimeout = 10 * time.Second
	maxErrorBody          = 64 << 10
	headerRequestID       = "X-Request-ID"
)

// Client wraps the transcription service API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	userAgent      string
	catalogTimeout time.Duration
	logger         *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// WithCatalogTimeout bounds the languages and health calls.
func WithCatalogTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.catalogTimeout = timeout
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "backend")
	}
}

// New constructs a client for baseURL. Upload and processing requests have no
// overall timeout unless a custom HTTP client supplies one.
func New(baseURL string, opts ...Option) (*Client, error) {
	normalized := config.NormalizeBaseURL(baseURL)
	if err := config.ValidateBaseURL(normalized); err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "backend client", "invalid base url", err)
	}
	client := &Client{
		baseURL:        normalized,
		httpClient:     &http.Client{},
		catalogTimeout: defaultCatalogTimeout,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client using the backend section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("backend: config is required")
	}
	return New(cfg.Backend.BaseURL,
		WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		WithUserAgent(cfg.Backend.UserAgent),
		WithCatalogTimeout(cfg.CatalogTimeout()),
		WithLogger(logger),
	)
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set(headerRequestID, requestID)
	return req, nil
}

// do executes req and returns the response when the status is 2xx. Any other
// status is converted into a *services.StatusError and the body is closed.
func (c *Client) do(req *http.Request, stage, operation string) (*http.Response, error) {
	started := time.Now()
	logger := logging.WithContext(req.Context(), c.logger)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("backend request failed",
			logging.String("method", req.Method),
			logging.String("path", req.URL.Path),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return nil, services.Wrap(services.ErrTransport, stage, operation, "request failed", err)
	}

	logger.Debug("backend request",
		logging.String("method", req.Method),
		logging.String("path", req.URL.Path),
		logging.Int("status", resp.StatusCode),
		logging.String(logging.FieldCorrelationID, req.Header.Get(headerRequestID)),
		logging.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := readStatusError(resp)
		resp.Body.Close()
		return nil, services.Wrap(services.ErrStatus, stage, operation, "", statusErr)
	}
	return resp, nil
}

func readStatusError(resp *http.Response) *services.StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &services.StatusError{
		StatusCode: resp.StatusCode,
		Detail:     parseDetail(raw),
		Body:       strings.TrimSpace(string(raw)),
	}
}

// parseDetail extracts FastAPI's "detail" member, which is either a string or
// a list of validation entries carrying "msg".
func parseDetail(raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil {
		messages := make([]string, 0, len(entries))
		for _, entry := range entries {
			if msg := strings.TrimSpace(entry.Msg); msg != "" {
				messages = append(messages, msg)
			}
		}
		return strings.Join(messages, "; ")
	}
	return ""
}

func decodeJSON(resp *http.Response, stage, operation string, target any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrMalformed, stage, operation, "decode response", err)
	}
	return nil
}

func missingField(stage, operation, field string) error {
	return services.Wrap(services.ErrMalformed, stage, operation, fmt.Sprintf("response missing %s", field), nil)
}
