package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidaria/models"
	"vidaria/services/resolver"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	detail *models.CanonicalDetail
	err    error
	gotID  string
	gotKnd models.MediaKind
}

func (s *stubResolver) Resolve(ctx context.Context, id string, kind models.MediaKind) (*models.CanonicalDetail, error) {
	s.gotID, s.gotKnd = id, kind
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func TestDetailsGet(t *testing.T) {
	stub := &stubResolver{detail: &models.CanonicalDetail{
		Identity: models.MediaIdentity{ID: "603", Kind: models.KindFilm, Source: models.SourceInternal},
		Title:    "The Matrix",
	}}
	h := NewDetailsHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/details/movie/603", nil)
	req = mux.SetURLVars(req, map[string]string{"kind": "movie", "id": "603"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "603", stub.gotID)
	assert.Equal(t, models.KindFilm, stub.gotKnd)

	var detail models.CanonicalDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "The Matrix", detail.Title)
}

func TestDetailsGetSeriesKindAliases(t *testing.T) {
	for _, alias := range []string{"serie", "series", "tv"} {
		stub := &stubResolver{detail: &models.CanonicalDetail{Title: "Dark"}}
		h := NewDetailsHandler(stub)

		req := httptest.NewRequest(http.MethodGet, "/api/details/"+alias+"/1", nil)
		req = mux.SetURLVars(req, map[string]string{"kind": alias, "id": "1"})
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, "alias %q", alias)
		assert.Equal(t, models.KindSeries, stub.gotKnd, "alias %q", alias)
	}
}

func TestDetailsGetNotFound(t *testing.T) {
	h := NewDetailsHandler(&stubResolver{err: resolver.ErrTitleNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/details/movie/999", nil)
	req = mux.SetURLVars(req, map[string]string{"kind": "movie", "id": "999"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDetailsGetBadKind(t *testing.T) {
	h := NewDetailsHandler(&stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/details/podcast/1", nil)
	req = mux.SetURLVars(req, map[string]string{"kind": "podcast", "id": "1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
