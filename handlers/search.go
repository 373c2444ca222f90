package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"vidaria/models"
	"vidaria/services/search"
)

type searchService interface {
	Search(ctx context.Context, query string) ([]models.SearchResultItem, error)
}

var _ searchService = (*search.Aggregator)(nil)

// SearchHandler serves cross-source title search.
type SearchHandler struct {
	Aggregator searchService
}

func NewSearchHandler(service searchService) *SearchHandler {
	return &SearchHandler{Aggregator: service}
}

// Search handles GET /api/search?q=...
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	items, err := h.Aggregator.Search(r.Context(), query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Query   string                    `json:"query"`
		Results []models.SearchResultItem `json:"results"`
	}{Query: query, Results: items})
}
