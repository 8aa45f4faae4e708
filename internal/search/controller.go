package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"audioscribe/internal/listview"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/transcripts"
)

// User-facing messages.
const (
	MessageNoResults = "No transcriptions found."
	MessageFailed    = "Error fetching transcriptions."
)

var (
	// ErrEmptyQuery is returned for blank queries; no request is made.
	ErrEmptyQuery = fmt.Errorf("search: %w: empty query", services.ErrValidation)
	// ErrSearchInProgress is returned while another search is in flight.
	ErrSearchInProgress = fmt.Errorf("search: %w", services.ErrBusy)
)

// Searcher is the subset of the API client the controller needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]transcripts.Transcription, error)
}

// Controller owns the query, its results, and the search message slot.
type Controller struct {
	api    Searcher
	logger *slog.Logger
	pager  *listview.Pager

	mu       sync.Mutex
	query    string
	message  string
	inFlight bool
}

// New constructs a search controller.
func New(api Searcher, logger *slog.Logger) *Controller {
	return &Controller{
		api:    api,
		logger: logging.NewComponentLogger(logger, "search"),
		pager:  listview.NewPager(listview.DefaultPageSize),
	}
}

// CanSearch reports whether the search trigger is enabled for query.
func (c *Controller) CanSearch(query string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.inFlight && strings.TrimSpace(query) != ""
}

// Search issues one request for the trimmed query and replaces the results.
// An empty result set sets MessageNoResults; a failed request clears the
// results, sets MessageFailed, and returns the error.
func (c *Controller) Search(ctx context.Context, query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ErrEmptyQuery
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrSearchInProgress
	}
	c.inFlight = true
	c.message = ""
	c.query = trimmed
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	results, err := c.api.Search(ctx, trimmed)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		logging.WithContext(ctx, c.logger).Warn("search failed", logging.String("query", trimmed), logging.Error(err))
		c.pager.SetItems([]transcripts.Transcription{})
		c.message = MessageFailed
		return fmt.Errorf("search %q: %w", trimmed, err)
	}
	if len(results) == 0 {
		c.message = MessageNoResults
	}
	c.pager.SetItems(results)
	c.logger.Debug("search complete", logging.String("query", trimmed), logging.Int("results", len(results)))
	return nil
}

// Query returns the last submitted (trimmed) query.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Message returns the current search message, or "" when none.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// InFlight reports whether a search request is outstanding.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Results returns the current result sequence.
func (c *Controller) Results() []transcripts.Transcription {
	return c.pager.Items()
}

// Pager exposes the pagination state of the result table.
func (c *Controller) Pager() *listview.Pager {
	return c.pager
}
