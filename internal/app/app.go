package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"audioscribe/internal/config"
	"audioscribe/internal/history"
	"audioscribe/internal/listview"
	"audioscribe/internal/logging"
	"audioscribe/internal/notifications"
	"audioscribe/internal/search"
	"audioscribe/internal/transcripts"
	"audioscribe/internal/upload"
)

// User-facing messages owned by the root view.
const (
	BannerUnhealthy    = "Caution: Server is not working as expected. This app might not function properly."
	MessageFetchFailed = "Error fetching transcriptions."
)

// API is the transcription service surface the App drives.
type API interface {
	Health(ctx context.Context) error
	List(ctx context.Context) ([]transcripts.Transcription, error)
	Search(ctx context.Context, query string) ([]transcripts.Transcription, error)
	Transcribe(ctx context.Context, files []transcripts.UploadFile) (*transcripts.TranscribeResponse, error)
	BaseURL() string
}

// Recorder journals submitted batches.
type Recorder interface {
	RecordBatch(ctx context.Context, batch history.Batch) error
}

// Option customizes an App.
type Option func(*App)

// WithRecorder journals every submitted batch.
func WithRecorder(r Recorder) Option {
	return func(a *App) {
		a.recorder = r
	}
}

// WithNotifier sends batch and health notifications.
func WithNotifier(n notifications.Service) Option {
	return func(a *App) {
		if n != nil {
			a.notifier = n
		}
	}
}

// WithUploadLock serializes uploads across processes through an exclusive
// file lock at path and re-fetches the canonical list before each upload.
func WithUploadLock(path string) Option {
	return func(a *App) {
		a.lockPath = path
	}
}

// WithClock overrides the time source used for batch timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// App is the root orchestrator.
type App struct {
	api      API
	logger   *slog.Logger
	recorder Recorder
	notifier notifications.Service
	lockPath string
	now      func() time.Time

	pager   *listview.Pager
	search  *search.Controller
	uploads *upload.Controller

	mu             sync.RWMutex
	transcriptions []transcripts.Transcription
	listMessage    string
	banner         string
}

// New wires the controllers around api. Limits come from cfg.
func New(cfg *config.Config, api API, logger *slog.Logger, opts ...Option) *App {
	logger = logging.NewComponentLogger(logger, "app")
	a := &App{
		api:      api,
		logger:   logger,
		notifier: notifications.NewService(&config.Config{}),
		now:      time.Now,
		pager:    listview.NewPager(listview.DefaultPageSize),
		search:   search.New(api, logger),
	}
	a.uploads = upload.New(cfg.Limits(), a, api, logger)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start runs the health check and the initial list fetch concurrently and
// waits for both. The returned error is the fetch failure, if any; an
// unhealthy service only raises the banner.
func (a *App) Start(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		fetchErr error
	)
	wg.Go(func() {
		_ = a.CheckHealth(ctx)
	})
	wg.Go(func() {
		fetchErr = a.Refresh(ctx)
	})
	wg.Wait()
	return fetchErr
}

// Banner returns the persistent health warning, or "" while healthy.
func (a *App) Banner() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.banner
}

// ListMessage returns the list fetch error message, or "".
func (a *App) ListMessage() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.listMessage
}

// Pager paginates the canonical list.
func (a *App) Pager() *listview.Pager { return a.pager }

// Search returns the search controller. Its results never touch the
// canonical list.
func (a *App) Search() *search.Controller { return a.search }

// Uploads returns the upload controller.
func (a *App) Uploads() *upload.Controller { return a.uploads }

// BaseURL reports which service the App talks to.
func (a *App) BaseURL() string { return a.api.BaseURL() }
