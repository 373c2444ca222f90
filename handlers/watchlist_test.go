package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidaria/models"
	"vidaria/services/watchlist"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWatchlist struct {
	saved   bool
	entries []models.WatchlistEntry
	err     error

	added   []string
	removed []string
	cleared []string
}

func (s *stubWatchlist) Check(ctx context.Context, userID, movieID, serieID string) (bool, error) {
	if err := s.validate(movieID, serieID); err != nil {
		return false, err
	}
	return s.saved, s.err
}

func (s *stubWatchlist) Add(ctx context.Context, userID, movieID, serieID string) error {
	if err := s.validate(movieID, serieID); err != nil {
		return err
	}
	s.added = append(s.added, userID+"/"+movieID+serieID)
	return s.err
}

func (s *stubWatchlist) Remove(ctx context.Context, userID, movieID, serieID string) error {
	if err := s.validate(movieID, serieID); err != nil {
		return err
	}
	s.removed = append(s.removed, userID+"/"+movieID+serieID)
	return s.err
}

func (s *stubWatchlist) Clear(ctx context.Context, userID string) error {
	s.cleared = append(s.cleared, userID)
	return s.err
}

func (s *stubWatchlist) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	return s.entries, s.err
}

func (s *stubWatchlist) validate(movieID, serieID string) error {
	if (movieID == "") == (serieID == "") {
		return watchlist.ErrExactlyOneID
	}
	return nil
}

func userRequest(method, target, userID string, body string) *http.Request {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	return mux.SetURLVars(req, map[string]string{"userID": userID})
}

func TestWatchlistCheckHandler(t *testing.T) {
	h := NewWatchlistHandler(&stubWatchlist{saved: true})

	req := userRequest(http.MethodGet, "/api/users/u1/watchlist/check?movieId=603", "u1", "")
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body["exists"])
}

func TestWatchlistCheckRequiresOneID(t *testing.T) {
	h := NewWatchlistHandler(&stubWatchlist{})

	req := userRequest(http.MethodGet, "/api/users/u1/watchlist/check", "u1", "")
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWatchlistAddHandler(t *testing.T) {
	stub := &stubWatchlist{}
	h := NewWatchlistHandler(stub)

	req := userRequest(http.MethodPost, "/api/users/u1/watchlist", "u1", `{"serieId":"1396"}`)
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, stub.added, 1)
	assert.Equal(t, "u1/1396", stub.added[0])
}

func TestWatchlistAddRejectsUnknownFields(t *testing.T) {
	h := NewWatchlistHandler(&stubWatchlist{})

	req := userRequest(http.MethodPost, "/api/users/u1/watchlist", "u1", `{"movieId":"1","bogus":true}`)
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWatchlistRemoveHandler(t *testing.T) {
	stub := &stubWatchlist{}
	h := NewWatchlistHandler(stub)

	req := userRequest(http.MethodDelete, "/api/users/u1/watchlist?movieId=603", "u1", "")
	rec := httptest.NewRecorder()
	h.Remove(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, stub.removed, 1)
	assert.Equal(t, "u1/603", stub.removed[0])
}

func TestWatchlistClearHandler(t *testing.T) {
	stub := &stubWatchlist{}
	h := NewWatchlistHandler(stub)

	req := userRequest(http.MethodDelete, "/api/users/u1/watchlist/all", "u1", "")
	rec := httptest.NewRecorder()
	h.Clear(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"u1"}, stub.cleared)
}

func TestWatchlistListHandlerEmpty(t *testing.T) {
	h := NewWatchlistHandler(&stubWatchlist{})

	req := userRequest(http.MethodGet, "/api/users/u1/watchlist", "u1", "")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// Empty list must serialize as [], not null.
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestWatchlistRequiresUser(t *testing.T) {
	h := NewWatchlistHandler(&stubWatchlist{})

	req := httptest.NewRequest(http.MethodGet, "/api/users//watchlist", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": "  "})
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
