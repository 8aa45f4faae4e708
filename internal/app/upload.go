package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"audioscribe/internal/fileutil"
	"audioscribe/internal/history"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/upload"
)

// ErrUploadLocked is returned when another process holds the upload lock.
var ErrUploadLocked = fmt.Errorf("app: upload lock held by another process: %w", services.ErrBusy)

// Stage validates candidates against the canonical list and replaces the
// staged batch.
func (a *App) Stage(candidates []upload.File) upload.Outcome {
	return a.uploads.SelectFiles(candidates)
}

// Upload submits the staged batch. With an upload lock configured it first
// takes the lock, re-fetches the canonical list, and re-validates the staged
// files so a name uploaded elsewhere since staging is caught locally. Every
// submitted batch is journaled and announced; local refusals are not.
func (a *App) Upload(ctx context.Context) (upload.Summary, error) {
	batchID := uuid.NewString()
	ctx = services.WithBatchID(ctx, batchID)
	ctx, _ = services.EnsureRequestID(ctx)
	logger := logging.WithContext(ctx, a.logger)

	if a.lockPath != "" {
		unlock, err := a.acquireLock()
		if err != nil {
			return upload.Summary{}, err
		}
		defer unlock()

		if err := a.revalidate(ctx); err != nil {
			return upload.Summary{}, err
		}
	}

	staged := a.uploads.Staged()
	started := a.now()
	summary, err := a.uploads.Upload(ctx)
	if err != nil && (errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrBusy)) {
		return summary, err
	}
	finished := a.now()

	a.record(ctx, batchID, started, finished, staged, summary, err)

	if err != nil {
		if notifyErr := a.notifier.NotifyUploadFailed(ctx, len(staged), err); notifyErr != nil {
			logger.Warn("upload failure notification failed", logging.Error(notifyErr))
		}
		return summary, err
	}
	if notifyErr := a.notifier.NotifyBatchCompleted(ctx, summary.Succeeded, summary.Failed, finished.Sub(started)); notifyErr != nil {
		logger.Warn("batch notification failed", logging.Error(notifyErr))
	}
	return summary, nil
}

func (a *App) acquireLock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(a.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(a.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire upload lock: %w", err)
	}
	if !ok {
		return nil, ErrUploadLocked
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Warn("failed to release upload lock", logging.Error(err))
		}
	}, nil
}

// revalidate re-fetches the canonical list and re-stages the current batch
// against it. Any rejection stops the upload: the last one is returned and
// left in the message slot, and the surviving files stay staged.
func (a *App) revalidate(ctx context.Context) error {
	staged := a.uploads.Staged()
	if len(staged) == 0 {
		return nil
	}
	if err := a.Refresh(ctx); err != nil {
		logging.WithContext(ctx, a.logger).Warn("re-fetch before upload failed; validating against last known list", logging.Error(err))
	}

	outcome := a.uploads.SelectFiles(staged)
	if outcome.Err != nil {
		return outcome.Err
	}
	if len(outcome.Rejected) > 0 {
		return outcome.Rejected[len(outcome.Rejected)-1].Err
	}
	return nil
}

func (a *App) record(ctx context.Context, batchID string, started, finished time.Time, staged []upload.File, summary upload.Summary, uploadErr error) {
	if a.recorder == nil {
		return
	}
	logger := logging.WithContext(ctx, a.logger)

	files := make([]history.File, len(summary.Entries))
	for i, entry := range summary.Entries {
		digest, err := fileutil.DigestOpener(entry.File)
		if err != nil {
			logger.Warn("digest staged file failed", logging.String("file", entry.File.Name()), logging.Error(err))
		}
		files[i] = history.File{
			Name:   entry.File.Name(),
			Size:   entry.File.Size(),
			Digest: digest,
			Status: entry.Status.String(),
			Reason: entry.Reason,
		}
	}
	if len(files) == 0 {
		for _, f := range staged {
			files = append(files, history.File{Name: f.Name(), Size: f.Size(), Status: upload.StatusFailed.String()})
		}
	}

	batch := history.Batch{
		ID:         batchID,
		BaseURL:    a.api.BaseURL(),
		StartedAt:  started,
		FinishedAt: finished,
		Outcome:    history.OutcomeFor(summary.Succeeded, summary.Failed),
		Files:      files,
	}
	if uploadErr != nil {
		batch.Outcome = history.OutcomeFailed
		batch.Error = uploadErr.Error()
	}
	if err := a.recorder.RecordBatch(ctx, batch); err != nil {
		logger.Warn("record batch history failed", logging.Error(err))
	}
}
