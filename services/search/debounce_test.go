package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"vidaria/models"
)

// scriptedSearcher records queries and optionally blocks until its context is
// cancelled or a release channel closes.
type scriptedSearcher struct {
	mu      sync.Mutex
	queries []string
	block   chan struct{} // nil means return immediately
}

func (s *scriptedSearcher) Search(ctx context.Context, query string) ([]models.SearchResultItem, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	block := s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []models.SearchResultItem{{Title: query}}, nil
}

func (s *scriptedSearcher) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

type recorder struct {
	mu        sync.Mutex
	delivered []string
	signal    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan struct{}, 16)}
}

func (r *recorder) deliver(query string, items []models.SearchResultItem) {
	r.mu.Lock()
	r.delivered = append(r.delivered, query)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.delivered...)
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestDispatcherDebouncesBursts(t *testing.T) {
	searcher := &scriptedSearcher{}
	rec := newRecorder()
	d := NewDispatcher(searcher, 30*time.Millisecond, rec.deliver)

	d.Submit("b")
	d.Submit("ba")
	d.Submit("bat")
	waitFor(t, rec.signal)

	if got := searcher.seen(); len(got) != 1 || got[0] != "bat" {
		t.Fatalf("expected one query for the final text, got %v", got)
	}
	if got := rec.all(); len(got) != 1 || got[0] != "bat" {
		t.Fatalf("expected one delivery for %q, got %v", "bat", got)
	}
}

func TestDispatcherCancelsSupersededQuery(t *testing.T) {
	block := make(chan struct{})
	searcher := &scriptedSearcher{block: block}
	rec := newRecorder()
	d := NewDispatcher(searcher, 10*time.Millisecond, rec.deliver)

	d.Submit("slow")
	// Wait for the first query to be in flight before superseding it.
	deadline := time.After(2 * time.Second)
	for len(searcher.seen()) == 0 {
		select {
		case <-deadline:
			t.Fatal("first query never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	searcher.mu.Lock()
	searcher.block = nil
	searcher.mu.Unlock()
	d.Submit("fast")
	waitFor(t, rec.signal)
	close(block)

	if got := rec.all(); len(got) != 1 || got[0] != "fast" {
		t.Fatalf("superseded query must not deliver, got %v", got)
	}
}

func TestDispatcherDropsStaleCompletion(t *testing.T) {
	searcher := &scriptedSearcher{}
	rec := newRecorder()
	d := NewDispatcher(searcher, time.Minute, rec.deliver)

	// Drive run directly: the newer query (seq 2) completes before the older
	// one (seq 1). The older completion must be discarded.
	ctx := context.Background()
	d.run(ctx, func() {}, 2, "new")
	waitFor(t, rec.signal)
	d.run(ctx, func() {}, 1, "old")

	if got := rec.all(); len(got) != 1 || got[0] != "new" {
		t.Fatalf("stale completion leaked through: %v", got)
	}
}

func TestDispatcherCancelBeatsElapsedTimer(t *testing.T) {
	// The timer can elapse and invoke fire concurrently with Cancel. When
	// Cancel wins the lock, Stop is a no-op and the pending text is already
	// cleared, so the late fire must back out instead of running an empty
	// query and delivering after cancellation.
	searcher := &scriptedSearcher{}
	rec := newRecorder()
	d := NewDispatcher(searcher, time.Minute, rec.deliver)

	d.Submit("doomed")
	d.mu.Lock()
	gen := d.gen
	d.mu.Unlock()
	d.Cancel()
	d.fire(gen) // the elapsed timer callback arriving after Cancel

	time.Sleep(50 * time.Millisecond)
	if got := searcher.seen(); len(got) != 0 {
		t.Fatalf("late timer callback still ran a query: %v", got)
	}
	if got := rec.all(); len(got) != 0 {
		t.Fatalf("late timer callback still delivered: %v", got)
	}

	// The dispatcher must stay usable after the aborted fire.
	d.Submit("next")
	d.mu.Lock()
	gen = d.gen
	d.mu.Unlock()
	d.fire(gen)
	waitFor(t, rec.signal)
	if got := rec.all(); len(got) != 1 || got[0] != "next" {
		t.Fatalf("dispatcher did not recover after aborted fire: %v", got)
	}
}

func TestDispatcherCancelStopsPendingQuery(t *testing.T) {
	searcher := &scriptedSearcher{}
	rec := newRecorder()
	d := NewDispatcher(searcher, 20*time.Millisecond, rec.deliver)

	d.Submit("doomed")
	d.Cancel()
	time.Sleep(80 * time.Millisecond)

	if got := searcher.seen(); len(got) != 0 {
		t.Fatalf("cancelled submission still ran: %v", got)
	}
	if got := rec.all(); len(got) != 0 {
		t.Fatalf("cancelled submission still delivered: %v", got)
	}
}
