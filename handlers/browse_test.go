package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidaria/models"
	"vidaria/services/pagination"
	"vidaria/services/sources"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubShelfSource struct {
	items    []sources.CatalogTitle
	featured []sources.CatalogTitle
	err      error
}

func (s *stubShelfSource) CategoryItems(ctx context.Context, kind models.MediaKind, name string, pages, size int) ([]sources.CatalogTitle, error) {
	return s.items, s.err
}

func (s *stubShelfSource) FeaturedSeries(ctx context.Context, featured []string, maxPages, size int) ([]sources.CatalogTitle, error) {
	return s.featured, s.err
}

func shelfFixture(n int) []sources.CatalogTitle {
	titles := make([]sources.CatalogTitle, 0, n)
	for i := 0; i < n; i++ {
		titles = append(titles, sources.CatalogTitle{
			ID:          int64(i + 1),
			Title:       "Title",
			Cover:       "cover.jpg",
			ReleaseDate: "2020-01-01",
			Rating:      7,
		})
	}
	return titles
}

func TestBrowseCategoryRegistersWindow(t *testing.T) {
	windows := pagination.NewController(1440)
	h := NewBrowseHandler(&stubShelfSource{items: shelfFixture(20)}, windows)

	req := httptest.NewRequest(http.MethodGet, "/api/browse/movie/most-popular", nil)
	req = mux.SetURLVars(req, map[string]string{"kind": "movie", "category": "most-popular"})
	rec := httptest.NewRecorder()
	h.Category(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Category string                `json:"category"`
		Label    string                `json:"label"`
		Items    []json.RawMessage     `json:"items"`
		Window   models.CategoryWindow `json:"window"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Most Popular", body.Label)
	assert.Len(t, body.Items, 20)
	assert.Equal(t, 0, body.Window.SlideIndex)

	// The shelf is immediately pageable.
	window, err := windows.Advance("film:most-popular")
	require.NoError(t, err)
	assert.Equal(t, 8, window.SlideIndex)
}

func TestBrowseAdvanceUnknownShelf(t *testing.T) {
	h := NewBrowseHandler(&stubShelfSource{}, pagination.NewController(1440))

	req := httptest.NewRequest(http.MethodPost, "/api/browse/windows/nope/next", nil)
	req = mux.SetURLVars(req, map[string]string{"key": "nope"})
	rec := httptest.NewRecorder()
	h.Advance(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrowseResizeResetsWindows(t *testing.T) {
	windows := pagination.NewController(1440)
	windows.Register("film:trending", 30)
	windows.Advance("film:trending")
	h := NewBrowseHandler(&stubShelfSource{}, windows)

	req := httptest.NewRequest(http.MethodPost, "/api/browse/viewport", strings.NewReader(`{"width":768}`))
	rec := httptest.NewRecorder()
	h.Resize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		SlidesToShow int                     `json:"slidesToShow"`
		Windows      []models.CategoryWindow `json:"windows"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.SlidesToShow)
	require.Len(t, body.Windows, 1)
	assert.Equal(t, 0, body.Windows[0].SlideIndex)
	assert.False(t, body.Windows[0].NextDisabled)
}

func TestBrowseResizeRejectsBadWidth(t *testing.T) {
	h := NewBrowseHandler(&stubShelfSource{}, pagination.NewController(1440))

	req := httptest.NewRequest(http.MethodPost, "/api/browse/viewport", strings.NewReader(`{"width":0}`))
	rec := httptest.NewRecorder()
	h.Resize(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBrowseFeatured(t *testing.T) {
	h := NewBrowseHandler(&stubShelfSource{featured: shelfFixture(2)}, pagination.NewController(1440))

	req := httptest.NewRequest(http.MethodGet, "/api/browse/featured?titles=Dark,%20Ozark", nil)
	rec := httptest.NewRecorder()
	h.Featured(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var items []json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	assert.Len(t, items, 2)
}

func TestBrowseFeaturedRequiresTitles(t *testing.T) {
	h := NewBrowseHandler(&stubShelfSource{}, pagination.NewController(1440))

	req := httptest.NewRequest(http.MethodGet, "/api/browse/featured", nil)
	rec := httptest.NewRecorder()
	h.Featured(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
