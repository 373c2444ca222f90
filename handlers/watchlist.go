package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vidaria/models"
	"vidaria/services/watchlist"

	"github.com/gorilla/mux"
)

type watchlistService interface {
	Check(ctx context.Context, userID, movieID, serieID string) (bool, error)
	Add(ctx context.Context, userID, movieID, serieID string) error
	Remove(ctx context.Context, userID, movieID, serieID string) error
	Clear(ctx context.Context, userID string) error
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
}

var _ watchlistService = (*watchlist.Service)(nil)

type WatchlistHandler struct {
	Service watchlistService
}

func NewWatchlistHandler(service watchlistService) *WatchlistHandler {
	return &WatchlistHandler{Service: service}
}

// Check handles GET /api/users/{userID}/watchlist/check?movieId=..|serieId=..
func (h *WatchlistHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	movieID, serieID := titleIDs(r)

	saved, err := h.Service.Check(r.Context(), userID, movieID, serieID)
	if err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"exists": saved})
}

// Add handles POST /api/users/{userID}/watchlist.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		MovieID string `json:"movieId,omitempty"`
		SerieID string `json:"serieId,omitempty"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Add(r.Context(), userID, body.MovieID, body.SerieID); err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Remove handles DELETE /api/users/{userID}/watchlist?movieId=..|serieId=..
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	movieID, serieID := titleIDs(r)

	if err := h.Service.Remove(r.Context(), userID, movieID, serieID); err != nil {
		http.Error(w, err.Error(), watchlistStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/users/{userID}/watchlist/all.
func (h *WatchlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Clear(r.Context(), userID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/users/{userID}/watchlist.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entries, err := h.Service.List(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *WatchlistHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func watchlistStatus(err error) int {
	if errors.Is(err, watchlist.ErrExactlyOneID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func titleIDs(r *http.Request) (movieID, serieID string) {
	q := r.URL.Query()
	return strings.TrimSpace(q.Get("movieId")), strings.TrimSpace(q.Get("serieId"))
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
	if userID == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}
