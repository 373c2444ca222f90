package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vidaria/models"
	"vidaria/services/resolver"

	"github.com/gorilla/mux"
)

type resolverService interface {
	Resolve(ctx context.Context, id string, kind models.MediaKind) (*models.CanonicalDetail, error)
}

var _ resolverService = (*resolver.Service)(nil)

// DetailsHandler serves the merged detail record for one title.
type DetailsHandler struct {
	Resolver resolverService
}

func NewDetailsHandler(service resolverService) *DetailsHandler {
	return &DetailsHandler{Resolver: service}
}

// Get handles GET /api/details/{kind}/{id}.
func (h *DetailsHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, ok := parseKind(vars["kind"])
	if !ok {
		http.Error(w, "kind must be movie or serie", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(vars["id"])
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	detail, err := h.Resolver.Resolve(r.Context(), id, kind)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, resolver.ErrTitleNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

func parseKind(raw string) (models.MediaKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "movie", "movies", "film":
		return models.KindFilm, true
	case "serie", "series", "tv":
		return models.KindSeries, true
	}
	return "", false
}
