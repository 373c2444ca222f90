package search

import (
	"context"
	"log"
	"sync"
	"time"

	"vidaria/models"
)

// DefaultDebounce is the pause after the last keystroke before a query runs.
const DefaultDebounce = 300 * time.Millisecond

// searcher lets the dispatcher run against the aggregator or a test double.
type searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResultItem, error)
}

var _ searcher = (*Aggregator)(nil)

// Dispatcher debounces keystroke-level queries and guards against stale
// deliveries. Every submitted query gets a monotonically increasing sequence
// number; a query's results are delivered only if no later query has already
// delivered. Superseded in-flight queries have their contexts cancelled.
type Dispatcher struct {
	agg      searcher
	debounce time.Duration
	deliver  func(query string, items []models.SearchResultItem)

	mu          sync.Mutex
	timer       *time.Timer
	cancel      context.CancelFunc
	gen         uint64
	nextSeq     uint64
	appliedSeq  uint64
	pendingText string
}

// NewDispatcher wires a dispatcher to the aggregator. deliver runs on the
// query's goroutine, once per applied result set, never for stale ones.
func NewDispatcher(agg searcher, debounce time.Duration, deliver func(query string, items []models.SearchResultItem)) *Dispatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Dispatcher{agg: agg, debounce: debounce, deliver: deliver}
}

// Submit registers a keystroke. The query runs only after the debounce window
// passes with no newer submission; each submission restarts the window and
// cancels any query already in flight.
func (d *Dispatcher) Submit(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pendingText = query
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.timer = time.AfterFunc(d.debounce, func() { d.fire(gen) })
}

// Cancel stops the pending timer and any in-flight query. Results that were
// already delivered stay delivered.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pendingText = ""
}

// fire runs when the debounce window elapses. It stamps the query with the
// next sequence number and launches it with its own cancellable context.
// The generation check closes the race where the timer has already fired but
// Cancel (or a newer Submit) takes the lock first: timer.Stop is a no-op at
// that point, so fire must notice its submission was superseded and back out.
func (d *Dispatcher) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	query := d.pendingText
	d.nextSeq++
	seq := d.nextSeq
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	go d.run(ctx, cancel, seq, query)
}

func (d *Dispatcher) run(ctx context.Context, cancel context.CancelFunc, seq uint64, query string) {
	defer cancel()

	items, err := d.agg.Search(ctx, query)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[search] query %q failed: %v", query, err)
		}
		return
	}

	d.mu.Lock()
	// Out-of-order completion: an older query finishing after a newer one
	// delivered must not clobber the newer results.
	if seq <= d.appliedSeq {
		d.mu.Unlock()
		return
	}
	d.appliedSeq = seq
	d.mu.Unlock()

	if d.deliver != nil {
		d.deliver(query, items)
	}
}
