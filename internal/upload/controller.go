package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"audioscribe/internal/config"
	"audioscribe/internal/logging"
	"audioscribe/internal/transcripts"
)

// MessageUploadFailed is shown when the batch request itself fails.
const MessageUploadFailed = "Error uploading files"

// Catalog is the canonical transcription list the controller validates
// against and refreshes after a successful upload.
type Catalog interface {
	Transcriptions() []transcripts.Transcription
	Refresh(ctx context.Context) error
}

// Transcriber is the subset of the API client the controller needs.
type Transcriber interface {
	Transcribe(ctx context.Context, files []transcripts.UploadFile) (*transcripts.TranscribeResponse, error)
}

// Entry is a staged file and its outcome. Reason carries the service's
// per-file error when one was reported.
type Entry struct {
	File   File
	Status Status
	Reason string
}

// Rejection is a candidate refused during selection.
type Rejection struct {
	Filename string
	Err      *ValidationError
}

// Outcome reports the result of SelectFiles. Err is set when the selection
// as a whole was refused and the staged batch left unchanged.
type Outcome struct {
	Accepted []string
	Rejected []Rejection
	Err      error
}

// Summary aggregates the per-file results of one upload.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Entries   []Entry
}

// FailedEntries returns only the failed entries.
func (s Summary) FailedEntries() []Entry {
	var failed []Entry
	for _, e := range s.Entries {
		if e.Status == StatusFailed {
			failed = append(failed, e)
		}
	}
	return failed
}

// Controller owns the staged batch, per-file statuses, the in-flight flag,
// and the shared validation/upload message slot. It is safe for concurrent
// use; a second Upload while one is in flight fails with ErrUploadInProgress.
type Controller struct {
	limits  config.Limits
	catalog Catalog
	api     Transcriber
	logger  *slog.Logger

	mu       sync.Mutex
	staged   []File
	entries  []Entry
	message  string
	inFlight bool
}

// New constructs an upload controller.
func New(limits config.Limits, catalog Catalog, api Transcriber, logger *slog.Logger) *Controller {
	return &Controller{
		limits:  limits,
		catalog: catalog,
		api:     api,
		logger:  logging.NewComponentLogger(logger, "upload"),
	}
}

// SelectFiles validates candidates and replaces the staged batch with the
// accepted ones. More candidates than the batch limit refuses the whole
// selection and keeps the previous batch. Each rejected candidate overwrites
// the message slot, so the last failure is the one displayed.
func (c *Controller) SelectFiles(candidates []File) Outcome {
	known := knownNames(c.catalog.Transcriptions())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return Outcome{Err: ErrUploadInProgress}
	}

	c.message = ""
	if len(candidates) > c.limits.MaxBatchSize {
		verr := tooManyFiles(c.limits)
		c.message = verr.Message
		return Outcome{Err: verr}
	}

	var outcome Outcome
	staged := make([]File, 0, len(candidates))
	entries := make([]Entry, 0, len(candidates))
	for _, candidate := range candidates {
		if verr := validateName(candidate.Name(), c.limits, known); verr != nil {
			c.message = verr.Message
			outcome.Rejected = append(outcome.Rejected, Rejection{Filename: candidate.Name(), Err: verr})
			c.logger.Debug("file rejected", logging.String("file", candidate.Name()), logging.String("reason", verr.Kind.Error()))
			continue
		}
		staged = append(staged, candidate)
		entries = append(entries, Entry{File: candidate, Status: StatusPending})
		outcome.Accepted = append(outcome.Accepted, candidate.Name())
	}
	c.staged = staged
	c.entries = entries
	return outcome
}

// Upload submits the staged batch in one request and reconciles the
// response. On success the canonical list is refreshed and the staged batch
// cleared while the statuses remain visible. On failure every staged file is
// marked failed and stays staged so the user can retry. The in-flight flag
// is released on every return path.
func (c *Controller) Upload(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return Summary{}, ErrUploadInProgress
	}
	c.message = ""
	if len(c.staged) == 0 {
		verr := nothingStaged()
		c.message = verr.Message
		c.mu.Unlock()
		return Summary{}, verr
	}
	c.inFlight = true
	files := make([]File, len(c.staged))
	copy(files, c.staged)
	c.entries = make([]Entry, len(files))
	for i, f := range files {
		c.entries[i] = Entry{File: f, Status: StatusPending}
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	logger := logging.WithContext(ctx, c.logger)
	logger.Info("uploading batch", logging.Int("files", len(files)))

	payload := make([]transcripts.UploadFile, len(files))
	for i, f := range files {
		payload[i] = f
	}

	resp, err := c.api.Transcribe(ctx, payload)
	if err != nil {
		c.mu.Lock()
		for i := range c.entries {
			c.entries[i].Status = StatusFailed
			c.entries[i].Reason = ""
		}
		c.message = MessageUploadFailed
		summary := summarize(c.entries)
		c.mu.Unlock()
		logger.Error("upload failed", logging.Error(err))
		return summary, fmt.Errorf("upload batch: %w", err)
	}

	entries := Reconcile(files, resp)

	c.mu.Lock()
	c.entries = entries
	summary := summarize(entries)
	c.mu.Unlock()

	logger.Info("batch reconciled", logging.Int("succeeded", summary.Succeeded), logging.Int("failed", summary.Failed))

	if err := c.catalog.Refresh(ctx); err != nil {
		logger.Warn("refresh after upload failed", logging.Error(err))
	}

	c.mu.Lock()
	c.staged = nil
	c.mu.Unlock()

	return summary, nil
}

// Reconcile assigns each file Success when its name is in the response's
// transcription list and Failed otherwise. Response order is ignored.
func Reconcile(files []File, resp *transcripts.TranscribeResponse) []Entry {
	succeeded := resp.SucceededFilenames()
	entries := make([]Entry, len(files))
	for i, f := range files {
		entry := Entry{File: f, Status: StatusFailed}
		if _, ok := succeeded[f.Name()]; ok {
			entry.Status = StatusSuccess
		} else if reason, ok := resp.ErrorFor(f.Name()); ok {
			entry.Reason = reason
		}
		entries[i] = entry
	}
	return entries
}

func summarize(entries []Entry) Summary {
	summary := Summary{Total: len(entries), Entries: make([]Entry, len(entries))}
	copy(summary.Entries, entries)
	for _, e := range entries {
		switch e.Status {
		case StatusSuccess:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		}
	}
	return summary
}

// Staged returns the files that the next Upload will submit.
func (c *Controller) Staged() []File {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]File, len(c.staged))
	copy(out, c.staged)
	return out
}

// Entries returns the upload queue: the last selected or submitted files and
// their statuses.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Message returns the shared validation/upload message, or "" when none.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// InFlight reports whether an upload request is outstanding.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Limits returns the limits the controller validates against.
func (c *Controller) Limits() config.Limits {
	return c.limits
}
