package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"vidaria/models"
	"vidaria/services/pagination"
	"vidaria/services/sources"
	"vidaria/utils"

	"github.com/gorilla/mux"
)

const (
	shelfPages    = 2
	shelfPageSize = 20
)

type shelfSource interface {
	CategoryItems(ctx context.Context, kind models.MediaKind, name string, pages, size int) ([]sources.CatalogTitle, error)
	FeaturedSeries(ctx context.Context, featured []string, maxPages, size int) ([]sources.CatalogTitle, error)
}

type windowController interface {
	Register(key string, itemCount int)
	Advance(key string) (models.CategoryWindow, error)
	Retreat(key string) (models.CategoryWindow, error)
	Resize(width int)
	Window(key string) (models.CategoryWindow, error)
	Windows() []models.CategoryWindow
	ShowPrev(key string) bool
}

var (
	_ shelfSource      = (*sources.CatalogClient)(nil)
	_ windowController = (*pagination.Controller)(nil)
)

// BrowseHandler serves category shelves and their sliding-window state.
type BrowseHandler struct {
	Catalog shelfSource
	Windows windowController
}

func NewBrowseHandler(catalog shelfSource, windows windowController) *BrowseHandler {
	return &BrowseHandler{Catalog: catalog, Windows: windows}
}

// shelfItem is the row shape category shelves render from.
type shelfItem struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	PosterURL string   `json:"posterUrl"`
	Year      int      `json:"year"`
	Rating    float64  `json:"rating"`
	Genres    []string `json:"genres"`
}

// Category handles GET /api/browse/{kind}/{category}. Fetching a shelf also
// registers it with the window controller so the paging endpoints work
// without a separate setup call.
func (h *BrowseHandler) Category(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, ok := parseKind(vars["kind"])
	if !ok {
		http.Error(w, "kind must be movie or serie", http.StatusBadRequest)
		return
	}
	category := strings.TrimSpace(vars["category"])
	if category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}

	titles, err := h.Catalog.CategoryItems(r.Context(), kind, category, shelfPages, shelfPageSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	items := make([]shelfItem, 0, len(titles))
	for _, title := range titles {
		items = append(items, toShelfItem(title))
	}

	key := string(kind) + ":" + category
	h.Windows.Register(key, len(items))
	window, _ := h.Windows.Window(key)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Category string                `json:"category"`
		Label    string                `json:"label"`
		Items    []shelfItem           `json:"items"`
		Window   models.CategoryWindow `json:"window"`
	}{
		Category: category,
		Label:    utils.FormatCategoryTitle(category),
		Items:    items,
		Window:   window,
	})
}

// Featured handles GET /api/browse/featured?titles=a,b,c.
func (h *BrowseHandler) Featured(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("titles"))
	if raw == "" {
		http.Error(w, "titles is required", http.StatusBadRequest)
		return
	}
	var featured []string
	for _, title := range strings.Split(raw, ",") {
		if title = strings.TrimSpace(title); title != "" {
			featured = append(featured, title)
		}
	}

	titles, err := h.Catalog.FeaturedSeries(r.Context(), featured, 10, shelfPageSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	items := make([]shelfItem, 0, len(titles))
	for _, title := range titles {
		items = append(items, toShelfItem(title))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// Advance handles POST /api/browse/windows/{key}/next.
func (h *BrowseHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.Windows.Advance)
}

// Retreat handles POST /api/browse/windows/{key}/prev.
func (h *BrowseHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.Windows.Retreat)
}

func (h *BrowseHandler) move(w http.ResponseWriter, r *http.Request, op func(string) (models.CategoryWindow, error)) {
	key := mux.Vars(r)["key"]
	window, err := op(key)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pagination.ErrUnknownCategory) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		models.CategoryWindow
		ShowPrev bool `json:"showPrev"`
	}{CategoryWindow: window, ShowPrev: h.Windows.ShowPrev(key)})
}

// Resize handles POST /api/browse/viewport with body {"width": 1280}.
func (h *BrowseHandler) Resize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Width int `json:"width"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Width <= 0 {
		http.Error(w, "width must be positive", http.StatusBadRequest)
		return
	}

	h.Windows.Resize(body.Width)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		SlidesToShow int                     `json:"slidesToShow"`
		Windows      []models.CategoryWindow `json:"windows"`
	}{SlidesToShow: pagination.SlidesFor(body.Width), Windows: h.Windows.Windows()})
}

func toShelfItem(title sources.CatalogTitle) shelfItem {
	poster := title.PosterRef()
	if encoded, err := utils.EncodeURLWithSpaces(poster); err == nil && strings.HasPrefix(poster, "http") {
		poster = encoded
	} else if err != nil {
		log.Printf("[browse] unparseable poster url for %q: %v", title.Title, err)
	}
	return shelfItem{
		ID:        title.ID,
		Title:     title.Title,
		PosterURL: poster,
		Year:      sources.ParseYear(title.ReleaseDate),
		Rating:    title.Rating,
		Genres:    title.GenreNames(),
	}
}
