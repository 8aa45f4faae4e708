package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"audioscribe/internal/config"
)

const userAgent = "audioscribe/0.1.0"

// Service defines the notification surface used by the upload flow and the
// health check.
type Service interface {
	NotifyBatchCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error
	NotifyUploadFailed(ctx context.Context, files int, err error) error
	NotifyServerUnhealthy(ctx context.Context, baseURL string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		batch:    cfg.Notifications.Batch,
		health:   cfg.Notifications.Health,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	batch    bool
	health   bool
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error {
	if !n.batch {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	total := succeeded + failed
	data := payload{
		title:   "Audioscribe - Batch Complete",
		message: fmt.Sprintf("Transcribed %d of %d files in %s", succeeded, total, duration),
		tags:    []string{"audioscribe", "batch", "completed"},
	}
	if failed > 0 {
		data.title = "Audioscribe - Batch Complete (with errors)"
		data.message = fmt.Sprintf("Batch complete: %d succeeded, %d failed in %s", succeeded, failed, duration)
		data.tags = []string{"audioscribe", "batch", "warning"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, files int, err error) error {
	if !n.batch {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "Upload of %d files failed", files)
	if err != nil {
		builder.WriteString(": ")
		builder.WriteString(strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Audioscribe - Upload Failed",
		message:  builder.String(),
		tags:     []string{"audioscribe", "batch", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyServerUnhealthy(ctx context.Context, baseURL string, err error) error {
	if !n.health {
		return nil
	}
	message := fmt.Sprintf("Transcription service at %s is not healthy", strings.TrimSpace(baseURL))
	if err != nil {
		message = fmt.Sprintf("%s\n%s", message, strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Audioscribe - Server Unhealthy",
		message:  message,
		tags:     []string{"audioscribe", "health", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Audioscribe - Test",
		message:  "Notification system test",
		tags:     []string{"audioscribe", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyUploadFailed(context.Context, int, error) error               { return nil }
func (noopService) NotifyServerUnhealthy(context.Context, string, error) error         { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
