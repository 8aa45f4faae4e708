package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"audioscribe/internal/transcripts"
)

// Backend is an in-memory transcription service for tests. It serves the
// same routes and payloads as the real service: /health, /transcriptions,
// /search?query=, and multipart POST /transcribe.
type Backend struct {
	server *httptest.Server

	mu               sync.Mutex
	items            []transcripts.Transcription
	healthStatus     int
	listStatus       int
	searchStatus     int
	transcribeStatus int
	failFiles        map[string]string
	transcribeCalls  int
	requestIDs       []string
	uploaded         [][]string
}

// NewBackend starts a fake service seeded with items and stops it when the
// test ends.
func NewBackend(t testing.TB, items ...transcripts.Transcription) *Backend {
	t.Helper()

	b := &Backend{
		items:            append([]transcripts.Transcription(nil), items...),
		healthStatus:     http.StatusOK,
		listStatus:       http.StatusOK,
		searchStatus:     http.StatusOK,
		transcribeStatus: http.StatusOK,
		failFiles:        make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", b.handleHealth)
	mux.HandleFunc("GET /transcriptions", b.handleList)
	mux.HandleFunc("GET /search", b.handleSearch)
	mux.HandleFunc("POST /transcribe", b.handleTranscribe)
	b.server = httptest.NewServer(b.recordRequestID(mux))
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the base URL of the fake service.
func (b *Backend) URL() string { return b.server.URL }

// Close stops the server early, so later requests fail at the transport.
func (b *Backend) Close() { b.server.Close() }

// SetHealthStatus changes the /health response code.
func (b *Backend) SetHealthStatus(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthStatus = code
}

// SetListStatus changes the /transcriptions response code.
func (b *Backend) SetListStatus(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listStatus = code
}

// SetSearchStatus changes the /search response code.
func (b *Backend) SetSearchStatus(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searchStatus = code
}

// SetTranscribeStatus changes the /transcribe response code.
func (b *Backend) SetTranscribeStatus(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transcribeStatus = code
}

// FailFile makes /transcribe report name in its errors list with reason.
func (b *Backend) FailFile(name, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failFiles[name] = reason
}

// AddItems appends to the stored transcriptions, as another client would.
func (b *Backend) AddItems(items ...transcripts.Transcription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, items...)
}

// Items returns the stored transcriptions.
func (b *Backend) Items() []transcripts.Transcription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]transcripts.Transcription(nil), b.items...)
}

// TranscribeCalls returns how many /transcribe requests were received.
func (b *Backend) TranscribeCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transcribeCalls
}

// Uploaded returns the filenames of each /transcribe request in order.
func (b *Backend) Uploaded() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.uploaded...)
}

// RequestIDs returns the X-Request-ID headers seen so far.
func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs...)
}

func (b *Backend) recordRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			b.mu.Lock()
			b.requestIDs = append(b.requestIDs, id)
			b.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleHealth(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	code := b.healthStatus
	b.mu.Unlock()
	if code != http.StatusOK {
		writeJSON(w, code, map[string]string{"error": "unhealthy"})
		return
	}
	writeJSON(w, code, map[string]string{"status": "healthy"})
}

func (b *Backend) handleList(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	code := b.listStatus
	items := append([]transcripts.Transcription{}, b.items...)
	b.mu.Unlock()
	if code != http.StatusOK {
		writeJSON(w, code, map[string]string{"error": "list failed"})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (b *Backend) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	b.mu.Lock()
	code := b.searchStatus
	items := append([]transcripts.Transcription{}, b.items...)
	b.mu.Unlock()

	if code != http.StatusOK {
		writeJSON(w, code, map[string]string{"error": "search failed"})
		return
	}
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Please specify the name of the file to search for"})
		return
	}

	needle := strings.ToLower(query)
	matches := []transcripts.Transcription{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Filename), needle) {
			matches = append(matches, item)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (b *Backend) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.transcribeCalls++
	code := b.transcribeStatus
	b.mu.Unlock()

	if code != http.StatusOK {
		writeJSON(w, code, map[string]string{"error": "transcription backend unavailable"})
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No files part in the request"})
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No files provided"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(headers))
	resp := transcripts.TranscribeResponse{
		Transcriptions: []transcripts.Transcription{},
		Errors:         []transcripts.FileError{},
	}
	for _, header := range headers {
		name := header.Filename
		names = append(names, name)
		if reason, ok := b.failFiles[name]; ok {
			resp.Errors = append(resp.Errors, transcripts.FileError{Filename: name, Error: reason})
			continue
		}
		if b.hasLocked(name) {
			resp.Errors = append(resp.Errors, transcripts.FileError{Filename: name, Error: "File with same name already exists in database"})
			continue
		}
		item := transcripts.Transcription{Filename: name, Transcription: "transcript of " + name}
		b.items = append(b.items, item)
		resp.Transcriptions = append(resp.Transcriptions, item)
	}
	b.uploaded = append(b.uploaded, names)
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) hasLocked(name string) bool {
	for _, item := range b.items {
		if item.Filename == name {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
