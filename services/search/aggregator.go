// Package search fans a query out across both title sources, filters and
// scores the combined hits, and hands results to the caller through a
// debounced, stale-drop dispatch layer.
package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"vidaria/models"
	"vidaria/services/sources"

	"github.com/sourcegraph/conc/pool"
)

// catalogSearcher is the internal catalog surface the aggregator needs.
type catalogSearcher interface {
	Search(ctx context.Context, query string, kind models.MediaKind) ([]sources.CatalogTitle, error)
}

// externalSearcher is the external provider surface the aggregator needs.
type externalSearcher interface {
	Search(ctx context.Context, query string, kind models.MediaKind) ([]sources.SearchRow, error)
}

var (
	_ catalogSearcher  = (*sources.CatalogClient)(nil)
	_ externalSearcher = (*sources.TMDBClient)(nil)
)

type Aggregator struct {
	catalog  catalogSearcher
	external externalSearcher
}

func NewAggregator(catalog catalogSearcher, external externalSearcher) *Aggregator {
	return &Aggregator{catalog: catalog, external: external}
}

// Search runs the four source queries (both sources, both kinds) in parallel
// and returns one admitted, deduplicated, scored result list. A failing
// source query contributes nothing; the others still count.
func (a *Aggregator) Search(ctx context.Context, query string) ([]models.SearchResultItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResultItem{}, nil
	}

	var mu sync.Mutex
	var items []models.SearchResultItem
	failures := 0

	p := pool.New().WithMaxGoroutines(4)
	for _, kind := range []models.MediaKind{models.KindFilm, models.KindSeries} {
		kind := kind
		p.Go(func() {
			hits, err := a.catalog.Search(ctx, query, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[search] internal %s query failed: %v", kind, err)
				failures++
				return
			}
			items = append(items, fromCatalogHits(query, kind, hits)...)
		})
		p.Go(func() {
			rows, err := a.external.Search(ctx, query, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[search] external %s query failed: %v", kind, err)
				failures++
				return
			}
			items = append(items, fromExternalRows(query, kind, rows)...)
		})
	}
	p.Wait()

	if failures == 4 {
		return nil, fmt.Errorf("search %q: all source queries failed", query)
	}

	items = dedupeSameSource(items)
	rank(items)
	if items == nil {
		items = []models.SearchResultItem{}
	}
	return items, nil
}

// admit applies the admission filter: a hit needs a title, a poster reference
// and a parseable date or it never reaches the result list.
func admit(title, posterRef string, year int) bool {
	return strings.TrimSpace(title) != "" && posterRef != "" && year > 0
}

// similarity scores how much of the title the query covers. Non-zero only
// when the lowercased query is a substring of the lowercased title; a full
// match scores 1.0 and longer titles dilute the score. Lengths are counted in
// runes so multi-byte titles are not penalized.
func similarity(query, title string) float64 {
	if title == "" {
		return 0
	}
	q := strings.ToLower(query)
	t := strings.ToLower(title)
	if !strings.Contains(t, q) {
		return 0
	}
	return float64(utf8.RuneCountInString(q)) / float64(utf8.RuneCountInString(t))
}

func fromCatalogHits(query string, kind models.MediaKind, hits []sources.CatalogTitle) []models.SearchResultItem {
	items := make([]models.SearchResultItem, 0, len(hits))
	for _, hit := range hits {
		year := sources.ParseYear(hit.ReleaseDate)
		if !admit(hit.Title, hit.PosterRef(), year) {
			continue
		}
		items = append(items, models.SearchResultItem{
			Identity: models.MediaIdentity{
				ID:     fmt.Sprintf("%d", hit.ID),
				Kind:   kind,
				Source: models.SourceInternal,
			},
			Title:      hit.Title,
			PosterRef:  hit.PosterRef(),
			Year:       year,
			Rating:     hit.Rating,
			Similarity: similarity(query, hit.Title),
		})
	}
	return items
}

func fromExternalRows(query string, kind models.MediaKind, rows []sources.SearchRow) []models.SearchResultItem {
	items := make([]models.SearchResultItem, 0, len(rows))
	for _, row := range rows {
		year := sources.ParseYear(row.Date)
		if !admit(row.Title, row.PosterRef, year) {
			continue
		}
		items = append(items, models.SearchResultItem{
			Identity: models.MediaIdentity{
				ID:     fmt.Sprintf("%d", row.ID),
				Kind:   kind,
				Source: models.SourceExternal,
			},
			Title:      row.Title,
			PosterRef:  row.PosterRef,
			Year:       year,
			Rating:     row.Rating,
			Similarity: similarity(query, row.Title),
		})
	}
	return items
}

// dedupeSameSource drops repeats of the same title within one source, keeping
// first occurrence. The same title appearing in both sources is kept twice;
// cross-source merging is not this layer's call.
func dedupeSameSource(items []models.SearchResultItem) []models.SearchResultItem {
	type key struct {
		id     string
		kind   models.MediaKind
		source models.Source
	}
	seen := make(map[key]bool, len(items))
	out := items[:0]
	for _, item := range items {
		k := key{id: item.Identity.ID, kind: item.Identity.Kind, source: item.Identity.Source}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, item)
	}
	return out
}

// rank orders by similarity descending, rating descending within equal
// similarity. The sort is stable so equal-key items keep arrival order.
func rank(items []models.SearchResultItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Similarity != items[j].Similarity {
			return items[i].Similarity > items[j].Similarity
		}
		return items[i].Rating > items[j].Rating
	})
}
