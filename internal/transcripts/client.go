package transcripts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"audioscribe/internal/config"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

const (
	userAgent       = "audioscribe/0.1.0"
	requestIDHeader = "X-Request-ID"
	errorBodyLimit  = 2048
)

// HTTPDoer describes the HTTP client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the transcription service.
type Client struct {
	baseURL string
	client  HTTPDoer
	logger  *slog.Logger
}

// NewClient constructs a client for baseURL. A nil doer uses http.DefaultClient.
func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  doer,
		logger:  logging.NewComponentLogger(logger, "api"),
	}
}

// NewConfiguredClient builds a client from configuration.
func NewConfiguredClient(cfg *config.Config, logger *slog.Logger) *Client {
	return NewClient(cfg.API.BaseURL, &http.Client{Timeout: cfg.APITimeout()}, logger)
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes GET /health. Any transport failure or non-2xx response is
// reported as an error wrapping services.ErrUnhealthy.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, nil, "")
	if err != nil {
		return services.Wrap(services.ErrUnhealthy, "health", "probe", err)
	}
	defer drain(resp)
	if err := checkStatus("health", resp); err != nil {
		return services.Wrap(services.ErrUnhealthy, "health", "probe", err)
	}
	return nil
}

// List fetches every known transcription.
func (c *Client) List(ctx context.Context) ([]Transcription, error) {
	var out []Transcription
	if err := c.getJSON(ctx, "list transcriptions", "/transcriptions", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Transcription{}
	}
	return out, nil
}

// Search fetches transcriptions matching query. The query is sent as-is.
func (c *Client) Search(ctx context.Context, query string) ([]Transcription, error) {
	params := url.Values{}
	params.Set("query", query)
	var out []Transcription
	if err := c.getJSON(ctx, "search transcriptions", "/search", params, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Transcription{}
	}
	return out, nil
}

// Transcribe uploads files in one multipart request using the repeated
// "files" field and returns the per-file outcome report.
func (c *Client) Transcribe(ctx context.Context, files []UploadFile) (*TranscribeResponse, error) {
	const op = "transcribe files"
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w: no files", op, services.ErrValidation)
	}

	body, contentType := multipartBody(files)
	defer body.Close()

	resp, err := c.do(ctx, http.MethodPost, "/transcribe", nil, body, contentType)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, op, "send", err)
	}
	defer drain(resp)
	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}

	var out TranscribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, services.Wrap(services.ErrTransport, op, "decode response", err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, path, params, nil, "")
	if err != nil {
		return services.Wrap(services.ErrTransport, op, "send", err)
	}
	defer drain(resp)
	if err := checkStatus(op, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return services.Wrap(services.ErrTransport, op, "decode response", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader, contentType string) (*http.Response, error) {
	ctx, requestID := services.EnsureRequestID(ctx)

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("sending request", logging.String("method", method), logging.String("url", target))

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Debug("request failed", logging.String("url", target), logging.Error(err))
		return nil, err
	}
	logger.Debug("response received", logging.String("url", target), logging.Int("status", resp.StatusCode))
	return resp, nil
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
}

// errorMessage prefers the {"error": "..."} envelope the service uses for 4xx replies.
func errorMessage(raw []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(raw))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
