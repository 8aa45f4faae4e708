package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/transcripts"
)

type stubSearcher struct {
	mu      sync.Mutex
	calls   []string
	results []transcripts.Transcription
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]transcripts.Transcription, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		<-s.block
	}
	return s.results, s.err
}

func TestSearchEmptyQueryMakesNoRequest(t *testing.T) {
	api := &stubSearcher{}
	c := New(api, logging.NewNop())

	for _, q := range []string{"", "   ", "\t\n"} {
		if c.CanSearch(q) {
			t.Fatalf("expected trigger disabled for %q", q)
		}
		if err := c.Search(context.Background(), q); !errors.Is(err, ErrEmptyQuery) {
			t.Fatalf("expected ErrEmptyQuery for %q, got %v", q, err)
		}
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no requests, got %v", api.calls)
	}
}

func TestSearchTrimsQueryAndStoresResults(t *testing.T) {
	api := &stubSearcher{results: []transcripts.Transcription{{Filename: "meeting.mp3", Transcription: "hi"}}}
	c := New(api, logging.NewNop())

	if !c.CanSearch("  meeting ") {
		t.Fatal("expected trigger enabled")
	}
	if err := c.Search(context.Background(), "  meeting "); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(api.calls) != 1 || api.calls[0] != "meeting" {
		t.Fatalf("expected trimmed query, got %v", api.calls)
	}
	if c.Query() != "meeting" {
		t.Fatalf("unexpected stored query %q", c.Query())
	}
	if len(c.Results()) != 1 || c.Message() != "" {
		t.Fatalf("unexpected state: results=%v message=%q", c.Results(), c.Message())
	}
	if c.InFlight() {
		t.Fatal("expected in-flight flag cleared")
	}
}

func TestSearchNoResultsClearsPrevious(t *testing.T) {
	api := &stubSearcher{results: []transcripts.Transcription{{Filename: "a.mp3"}, {Filename: "b.mp3"}}}
	c := New(api, logging.NewNop())
	if err := c.Search(context.Background(), "a"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	api.results = []transcripts.Transcription{}
	if err := c.Search(context.Background(), "zzz"); err != nil {
		t.Fatalf("no results must not be an error, got %v", err)
	}
	if c.Message() != MessageNoResults {
		t.Fatalf("expected %q, got %q", MessageNoResults, c.Message())
	}
	if len(c.Results()) != 0 {
		t.Fatalf("expected previous results cleared, got %v", c.Results())
	}
}

func TestSearchTransportFailure(t *testing.T) {
	api := &stubSearcher{results: []transcripts.Transcription{{Filename: "a.mp3"}}}
	c := New(api, logging.NewNop())
	if err := c.Search(context.Background(), "a"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	api.err = services.Wrap(services.ErrTransport, "search", "send", errors.New("refused"))
	err := c.Search(context.Background(), "a")
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if c.Message() != MessageFailed {
		t.Fatalf("expected %q, got %q", MessageFailed, c.Message())
	}
	if len(c.Results()) != 0 {
		t.Fatal("expected results cleared after failure")
	}
	if c.InFlight() {
		t.Fatal("expected in-flight flag cleared after failure")
	}
}

func TestSearchResetsPagerAndMessage(t *testing.T) {
	many := make([]transcripts.Transcription, 25)
	api := &stubSearcher{results: many}
	c := New(api, logging.NewNop())
	if err := c.Search(context.Background(), "x"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	c.Pager().SetPage(3)

	api.results = []transcripts.Transcription{}
	_ = c.Search(context.Background(), "y")
	api.results = many
	if err := c.Search(context.Background(), "x"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if c.Pager().Page() != 1 {
		t.Fatalf("expected page reset, got %d", c.Pager().Page())
	}
	if c.Message() != "" {
		t.Fatalf("expected message cleared by new search, got %q", c.Message())
	}
}

func TestSearchRejectsConcurrentRequest(t *testing.T) {
	api := &stubSearcher{block: make(chan struct{}), entered: make(chan struct{})}
	c := New(api, logging.NewNop())

	done := make(chan error, 1)
	go func() { done <- c.Search(context.Background(), "first") }()
	<-api.entered

	if c.CanSearch("second") {
		t.Fatal("expected trigger disabled while in flight")
	}
	if err := c.Search(context.Background(), "second"); !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("first search: %v", err)
	}
	if !c.CanSearch("second") {
		t.Fatal("expected trigger enabled after completion")
	}
}
