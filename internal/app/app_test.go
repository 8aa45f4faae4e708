package app_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"audioscribe/internal/app"
	"audioscribe/internal/config"
	"audioscribe/internal/history"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/testsupport"
	"audioscribe/internal/transcripts"
	"audioscribe/internal/upload"
)

func newApp(t *testing.T, backend *testsupport.Backend, opts ...app.Option) (*app.App, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
	client := transcripts.NewClient(cfg.API.BaseURL, nil, logging.NewNop())
	return app.New(cfg, client, logging.NewNop(), opts...), cfg
}

func seed(n int) []transcripts.Transcription {
	items := make([]transcripts.Transcription, n)
	for i := range items {
		items[i] = transcripts.Transcription{Filename: itemName(i), Transcription: "text"}
	}
	return items
}

func itemName(i int) string {
	return "clip-" + string(rune('a'+i)) + ".mp3"
}

func memFiles(names ...string) []upload.File {
	out := make([]upload.File, len(names))
	for i, name := range names {
		out[i] = upload.NewBytesFile(name, []byte("audio "+name))
	}
	return out
}

type recorder struct {
	mu      sync.Mutex
	batches []history.Batch
}

func (r *recorder) RecordBatch(_ context.Context, b history.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
	return nil
}

func TestStartLoadsListWhenUnhealthy(t *testing.T) {
	backend := testsupport.NewBackend(t, seed(12)...)
	backend.SetHealthStatus(http.StatusInternalServerError)
	a, _ := newApp(t, backend)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if a.Banner() != app.BannerUnhealthy {
		t.Fatalf("expected banner, got %q", a.Banner())
	}
	if got := len(a.Transcriptions()); got != 12 {
		t.Fatalf("expected 12 transcriptions, got %d", got)
	}
	if a.Pager().TotalPages() != 2 || len(a.Pager().Visible()) != 10 {
		t.Fatalf("unexpected pagination: pages=%d visible=%d", a.Pager().TotalPages(), len(a.Pager().Visible()))
	}
}

func TestBannerPersistsAfterRecovery(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.SetHealthStatus(http.StatusServiceUnavailable)
	a, _ := newApp(t, backend)
	_ = a.Start(context.Background())

	backend.SetHealthStatus(http.StatusOK)
	if err := a.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if a.Banner() != app.BannerUnhealthy {
		t.Fatal("expected banner to stay up for the session")
	}
}

func TestStartFetchFailureClearsList(t *testing.T) {
	backend := testsupport.NewBackend(t, seed(3)...)
	a, _ := newApp(t, backend)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	backend.SetListStatus(http.StatusInternalServerError)
	err := a.Refresh(context.Background())
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if a.ListMessage() != app.MessageFetchFailed {
		t.Fatalf("unexpected list message %q", a.ListMessage())
	}
	if len(a.Transcriptions()) != 0 || a.Pager().Len() != 0 {
		t.Fatal("expected list cleared after failed fetch")
	}
	if a.Banner() != "" {
		t.Fatal("fetch failure should not raise the health banner")
	}
}

func TestUploadRefreshesCanonicalList(t *testing.T) {
	backend := testsupport.NewBackend(t, seed(10)...)
	rec := &recorder{}
	a, _ := newApp(t, backend, app.WithRecorder(rec))
	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	a.Pager().SetPage(1)

	if outcome := a.Stage(memFiles("new.mp3", "other.wav")); len(outcome.Accepted) != 2 {
		t.Fatalf("expected both staged, got %+v", outcome)
	}
	summary, err := a.Upload(ctx)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if summary.Succeeded != 2 {
		t.Fatalf("expected 2 succeeded, got %+v", summary)
	}
	if got := len(a.Transcriptions()); got != 12 {
		t.Fatalf("expected refreshed list of 12, got %d", got)
	}
	if a.Pager().TotalPages() != 2 || a.Pager().Page() != 1 {
		t.Fatalf("expected reset to page 1 of 2, got %d/%d", a.Pager().Page(), a.Pager().TotalPages())
	}

	if len(rec.batches) != 1 {
		t.Fatalf("expected one journaled batch, got %d", len(rec.batches))
	}
	batch := rec.batches[0]
	if batch.Outcome != history.OutcomeSucceeded || batch.BaseURL != backend.URL() || batch.ID == "" {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if len(batch.Files) != 2 || batch.Files[0].Digest == "" || batch.Files[0].Status != "Success" {
		t.Fatalf("unexpected batch files: %+v", batch.Files)
	}
}

func TestUploadPartialFailureCarriesReason(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.FailFile("b.wav", "Something went wrong")
	rec := &recorder{}
	a, _ := newApp(t, backend, app.WithRecorder(rec))
	ctx := context.Background()
	_ = a.Start(ctx)

	a.Stage(memFiles("a.mp3", "b.wav"))
	summary, err := a.Upload(ctx)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	failed := summary.FailedEntries()
	if len(failed) != 1 || failed[0].File.Name() != "b.wav" || failed[0].Reason != "Something went wrong" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if rec.batches[0].Outcome != history.OutcomePartial {
		t.Fatalf("expected partial outcome, got %s", rec.batches[0].Outcome)
	}
}

func TestUploadTransportFailureIsJournaled(t *testing.T) {
	backend := testsupport.NewBackend(t)
	rec := &recorder{}
	a, _ := newApp(t, backend, app.WithRecorder(rec))
	ctx := context.Background()
	_ = a.Start(ctx)

	a.Stage(memFiles("a.mp3"))
	backend.SetTranscribeStatus(http.StatusBadGateway)
	_, err := a.Upload(ctx)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if a.Uploads().Message() != upload.MessageUploadFailed {
		t.Fatalf("unexpected upload message %q", a.Uploads().Message())
	}
	if len(rec.batches) != 1 || rec.batches[0].Outcome != history.OutcomeFailed || rec.batches[0].Error == "" {
		t.Fatalf("expected failed batch journaled, got %+v", rec.batches)
	}
}

func TestUploadValidationIsNotJournaled(t *testing.T) {
	backend := testsupport.NewBackend(t)
	rec := &recorder{}
	a, _ := newApp(t, backend, app.WithRecorder(rec))

	if _, err := a.Upload(context.Background()); !errors.Is(err, upload.ErrNothingStaged) {
		t.Fatalf("expected nothing-staged error, got %v", err)
	}
	if backend.TranscribeCalls() != 0 || len(rec.batches) != 0 {
		t.Fatal("expected no request and no journal entry")
	}
}

func TestUploadLockRefetchesBeforeValidation(t *testing.T) {
	backend := testsupport.NewBackend(t)
	lockPath := filepath.Join(t.TempDir(), "upload.lock")
	a, _ := newApp(t, backend, app.WithUploadLock(lockPath))
	ctx := context.Background()
	_ = a.Start(ctx)

	a.Stage(memFiles("race.mp3"))
	backend.AddItems(transcripts.Transcription{Filename: "race.mp3"})

	_, err := a.Upload(ctx)
	if !errors.Is(err, upload.ErrDuplicate) {
		t.Fatalf("expected duplicate caught after re-fetch, got %v", err)
	}
	if backend.TranscribeCalls() != 0 {
		t.Fatal("expected no transcribe request")
	}
	if a.Uploads().Message() != "At least one file has already been processed before." {
		t.Fatalf("unexpected message %q", a.Uploads().Message())
	}
}

func TestUploadLockStopsOnPartialDuplicate(t *testing.T) {
	backend := testsupport.NewBackend(t)
	lockPath := filepath.Join(t.TempDir(), "upload.lock")
	rec := &recorder{}
	a, _ := newApp(t, backend, app.WithUploadLock(lockPath), app.WithRecorder(rec))
	ctx := context.Background()
	_ = a.Start(ctx)

	if outcome := a.Stage(memFiles("keep.mp3", "race.mp3")); len(outcome.Accepted) != 2 {
		t.Fatalf("expected both files staged, got %+v", outcome)
	}
	backend.AddItems(transcripts.Transcription{Filename: "race.mp3"})

	_, err := a.Upload(ctx)
	var verr *upload.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, upload.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if verr.Filename != "race.mp3" {
		t.Fatalf("expected race.mp3 rejected, got %q", verr.Filename)
	}
	if backend.TranscribeCalls() != 0 {
		t.Fatal("expected no transcribe request")
	}
	if a.Uploads().Message() != "At least one file has already been processed before." {
		t.Fatalf("unexpected message %q", a.Uploads().Message())
	}
	staged := a.Uploads().Staged()
	if len(staged) != 1 || staged[0].Name() != "keep.mp3" {
		t.Fatalf("expected keep.mp3 to stay staged, got %v", staged)
	}
	if len(rec.batches) != 0 {
		t.Fatal("expected no journal entry")
	}

	summary, err := a.Upload(ctx)
	if err != nil {
		t.Fatalf("retry upload: %v", err)
	}
	if summary.Succeeded != 1 || summary.Entries[0].File.Name() != "keep.mp3" {
		t.Fatalf("unexpected retry summary %+v", summary)
	}
}

func TestUploadLockContention(t *testing.T) {
	backend := testsupport.NewBackend(t)
	lockPath := filepath.Join(t.TempDir(), "upload.lock")
	a, _ := newApp(t, backend, app.WithUploadLock(lockPath))
	a.Stage(memFiles("a.mp3"))

	other := flock.New(lockPath)
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = other.Unlock() }()

	if _, err := a.Upload(context.Background()); !errors.Is(err, app.ErrUploadLocked) || !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected lock contention, got %v", err)
	}
	if backend.TranscribeCalls() != 0 {
		t.Fatal("expected no request while locked")
	}
}

func TestSearchDoesNotTouchCanonicalList(t *testing.T) {
	backend := testsupport.NewBackend(t, seed(3)...)
	a, _ := newApp(t, backend)
	ctx := context.Background()
	_ = a.Start(ctx)

	if err := a.Search().Search(ctx, "clip-b"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := a.Search().Results(); len(got) != 1 || got[0].Filename != "clip-b.mp3" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if len(a.Transcriptions()) != 3 {
		t.Fatal("search mutated the canonical list")
	}
}
