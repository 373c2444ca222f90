// Package pagination tracks the sliding window of every category shelf on
// the browse surface. Window geometry is a pure function of viewport width;
// per-shelf position is the only state.
package pagination

import (
	"errors"
	"sort"
	"sync"

	"vidaria/models"
)

// ErrUnknownCategory is returned for operations on an unregistered shelf.
var ErrUnknownCategory = errors.New("unknown category")

// breakpoint maps a minimum viewport width to the slides shown at once.
type breakpoint struct {
	minWidth int
	slides   int
}

// breakpoints is the single authority for window sizing, widest band first.
// Widths below the narrowest band show one slide.
var breakpoints = []breakpoint{
	{minWidth: 1440, slides: 8},
	{minWidth: 1200, slides: 5},
	{minWidth: 1100, slides: 4},
	{minWidth: 768, slides: 2},
}

// SlidesFor returns how many items one window shows at the given width.
func SlidesFor(width int) int {
	for _, bp := range breakpoints {
		if width >= bp.minWidth {
			return bp.slides
		}
	}
	return 1
}

type window struct {
	itemCount    int
	slideIndex   int
	nextDisabled bool
}

// Controller holds the window state for every registered shelf. All methods
// are safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	width   int
	windows map[string]*window
}

func NewController(width int) *Controller {
	return &Controller{width: width, windows: make(map[string]*window)}
}

// Register adds a shelf (or re-registers it after a content reload) with its
// item count. The window starts at the beginning.
func (c *Controller) Register(key string, itemCount int) {
	if itemCount < 0 {
		itemCount = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &window{itemCount: itemCount}
	w.recompute(SlidesFor(c.width))
	c.windows[key] = w
}

// Advance moves a shelf's window one page forward, clamped to the last item.
func (c *Controller) Advance(key string) (models.CategoryWindow, error) {
	return c.shift(key, +1)
}

// Retreat moves a shelf's window one page backward, clamped to the start.
func (c *Controller) Retreat(key string) (models.CategoryWindow, error) {
	return c.shift(key, -1)
}

func (c *Controller) shift(key string, direction int) (models.CategoryWindow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.windows[key]
	if !ok {
		return models.CategoryWindow{}, ErrUnknownCategory
	}
	slides := SlidesFor(c.width)
	w.slideIndex += direction * slides
	w.recompute(slides)
	return w.snapshot(key), nil
}

// Resize records a new viewport width. Every shelf resets to its start so no
// window straddles a stale page boundary.
func (c *Controller) Resize(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width == c.width {
		return
	}
	c.width = width
	slides := SlidesFor(width)
	for _, w := range c.windows {
		w.slideIndex = 0
		w.recompute(slides)
	}
}

// Window returns the current snapshot for one shelf.
func (c *Controller) Window(key string) (models.CategoryWindow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.windows[key]
	if !ok {
		return models.CategoryWindow{}, ErrUnknownCategory
	}
	return w.snapshot(key), nil
}

// Windows returns every shelf's snapshot, ordered by key for stable output.
func (c *Controller) Windows() []models.CategoryWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CategoryWindow, 0, len(c.windows))
	for key, w := range c.windows {
		out = append(out, w.snapshot(key))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryKey < out[j].CategoryKey })
	return out
}

// ShowPrev reports whether the back control should render for a shelf.
func (c *Controller) ShowPrev(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.windows[key]
	return ok && w.slideIndex > 0
}

// recompute clamps the index into range and rederives the forward control.
// An empty shelf pins the index at 0. The invariant: the next control is
// disabled exactly when one more page would start at or past the end of the
// shelf.
func (w *window) recompute(slides int) {
	if w.slideIndex < 0 {
		w.slideIndex = 0
	}
	max := w.itemCount - 1
	if max < 0 {
		max = 0
	}
	if w.slideIndex > max {
		w.slideIndex = max
	}
	w.nextDisabled = w.slideIndex+slides >= w.itemCount
}

func (w *window) snapshot(key string) models.CategoryWindow {
	return models.CategoryWindow{
		CategoryKey:  key,
		SlideIndex:   w.slideIndex,
		NextDisabled: w.nextDisabled,
	}
}
