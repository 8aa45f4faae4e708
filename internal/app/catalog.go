package app

import (
	"context"
	"fmt"

	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/transcripts"
)

// CheckHealth probes the service. A failure raises the banner, which is never
// lowered again, and sends an unhealthy notification.
func (a *App) CheckHealth(ctx context.Context) error {
	ctx, _ = services.EnsureRequestID(ctx)
	logger := logging.WithContext(ctx, a.logger)

	err := a.api.Health(ctx)
	if err == nil {
		logger.Debug("health check passed")
		return nil
	}

	a.mu.Lock()
	a.banner = BannerUnhealthy
	a.mu.Unlock()

	logger.Warn("health check failed", logging.Error(err))
	if notifyErr := a.notifier.NotifyServerUnhealthy(ctx, a.api.BaseURL(), err); notifyErr != nil {
		logger.Warn("unhealthy notification failed", logging.Error(notifyErr))
	}
	return err
}

// Transcriptions returns the canonical list.
func (a *App) Transcriptions() []transcripts.Transcription {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]transcripts.Transcription, len(a.transcriptions))
	copy(out, a.transcriptions)
	return out
}

// Refresh replaces the canonical list with a full re-fetch. On failure the
// list is cleared and the fetch message set. Either way the pager returns to
// page 1.
func (a *App) Refresh(ctx context.Context) error {
	ctx, _ = services.EnsureRequestID(ctx)
	logger := logging.WithContext(ctx, a.logger)

	items, err := a.api.List(ctx)
	if err != nil {
		a.mu.Lock()
		a.transcriptions = nil
		a.listMessage = MessageFetchFailed
		a.mu.Unlock()
		a.pager.SetItems(nil)
		logger.Error("fetch transcriptions failed", logging.Error(err))
		return fmt.Errorf("refresh transcriptions: %w", err)
	}

	a.mu.Lock()
	a.transcriptions = items
	a.listMessage = ""
	a.mu.Unlock()
	a.pager.SetItems(items)
	logger.Debug("transcriptions loaded", logging.Int("count", len(items)))
	return nil
}
