package listview

import (
	"slices"
	"sync"

	"audioscribe/internal/transcripts"
)

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 10

// Pager is the view-state of a paginated transcription table. It is safe for
// concurrent use.
type Pager struct {
	mu       sync.RWMutex
	pageSize int
	items    []transcripts.Transcription
	page     int
}

// NewPager returns an empty pager. A non-positive size uses DefaultPageSize.
func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{pageSize: pageSize, page: 1}
}

// SetItems replaces the backing sequence and resets the current page to 1.
func (p *Pager) SetItems(items []transcripts.Transcription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = slices.Clone(items)
	p.page = 1
}

// Items returns a copy of the backing sequence.
func (p *Pager) Items() []transcripts.Transcription {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.items)
}

// Len returns the number of records in the backing sequence.
func (p *Pager) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

// PageSize returns the number of rows per page.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// Page returns the 1-based current page.
func (p *Pager) Page() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page
}

// TotalPages returns ceil(len/pageSize); an empty sequence has zero pages.
func (p *Pager) TotalPages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalPagesLocked()
}

func (p *Pager) totalPagesLocked() int {
	return (len(p.items) + p.pageSize - 1) / p.pageSize
}

// SetPage moves to page n. Pages outside [1, TotalPages] are rejected and
// leave the current page unchanged.
func (p *Pager) SetPage(n int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 1 || n > p.totalPagesLocked() {
		return false
	}
	p.page = n
	return true
}

// Next advances one page when a later page exists.
func (p *Pager) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page >= p.totalPagesLocked() {
		return false
	}
	p.page++
	return true
}

// Prev steps back one page when an earlier page exists.
func (p *Pager) Prev() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page <= 1 {
		return false
	}
	p.page--
	return true
}

// HasNext reports whether Next would move.
func (p *Pager) HasNext() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page < p.totalPagesLocked()
}

// HasPrev reports whether Prev would move.
func (p *Pager) HasPrev() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page > 1
}

// Visible returns the current page's slice, [(page-1)*size, min(page*size, len)).
func (p *Pager) Visible() []transcripts.Transcription {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return pageSlice(p.items, p.page, p.pageSize)
}

// Offset returns the zero-based index of the first visible record.
func (p *Pager) Offset() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return (p.page - 1) * p.pageSize
}

func pageSlice(items []transcripts.Transcription, page, size int) []transcripts.Transcription {
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := min(start+size, len(items))
	return slices.Clone(items[start:end])
}
