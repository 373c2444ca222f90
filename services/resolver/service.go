// Package resolver produces one canonical detail record per title by
// reconciling the internal catalog with the external metadata provider.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"vidaria/models"
	"vidaria/services/reviews"
	"vidaria/services/sources"

	"github.com/sourcegraph/conc/pool"
)

// ErrTitleNotFound means neither source could supply a base record. It is the
// only way resolution fails; enrichment problems degrade to empty fields.
var ErrTitleNotFound = errors.New("title not found in any source")

// reviewLimit is how many reviews a detail page shows.
const reviewLimit = 3

// catalogSource is the internal catalog surface the resolver needs.
type catalogSource interface {
	Title(ctx context.Context, id string, kind models.MediaKind) (*sources.CatalogTitle, error)
}

// externalSource is the external provider surface the resolver needs.
type externalSource interface {
	Detail(ctx context.Context, id string, kind models.MediaKind) (*sources.ExternalTitle, error)
	Credits(ctx context.Context, id string, kind models.MediaKind) ([]models.CastMember, []models.CrewMember, error)
	AudioLanguages(ctx context.Context, id string, kind models.MediaKind) ([]string, error)
	Tagline(ctx context.Context, id string, kind models.MediaKind) (string, error)
	Reviews(ctx context.Context, id string, kind models.MediaKind, limit int) ([]models.Review, error)
	Similar(ctx context.Context, id string, kind models.MediaKind) ([]models.SimilarTitle, error)
	WatchProviders(ctx context.Context, id string, kind models.MediaKind, region string) ([]models.StreamingProvider, error)
}

var (
	_ catalogSource  = (*sources.CatalogClient)(nil)
	_ externalSource = (*sources.TMDBClient)(nil)
)

type Service struct {
	catalog  catalogSource
	external externalSource
	region   string
}

func NewService(catalog catalogSource, external externalSource, region string) *Service {
	if region == "" {
		region = "US"
	}
	return &Service{catalog: catalog, external: external, region: region}
}

// Resolve builds the canonical detail record for (id, kind). The internal
// catalog supplies the base record when it can; the external provider is the
// fallback. Enrichment always comes from the external provider and is fetched
// concurrently; individual enrichment failures degrade to empty fields.
func (s *Service) Resolve(ctx context.Context, id string, kind models.MediaKind) (*models.CanonicalDetail, error) {
	detail, err := s.baseRecord(ctx, id, kind)
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, id, kind, detail)

	detail.Director = deriveDirector(detail.Director, detail.Crew)
	detail.ReleaseYear = deriveReleaseYear(kind, detail.ReleaseDate, detail.EndDate)
	// Collections must come back as empty, not null.
	ensureCollections(detail)
	return detail, nil
}

// baseRecord tries the internal source first and falls back to the external
// one. Network failure, not-found and parseable-but-empty all trigger the
// fallback; only both sources failing is a resolution failure.
func (s *Service) baseRecord(ctx context.Context, id string, kind models.MediaKind) (*models.CanonicalDetail, error) {
	record, internalErr := s.catalog.Title(ctx, id, kind)
	if internalErr == nil {
		return fromCatalog(id, kind, record), nil
	}
	log.Printf("[resolver] internal source miss for %s/%s, falling back: %v", kind, id, internalErr)

	external, externalErr := s.external.Detail(ctx, id, kind)
	if externalErr != nil {
		return nil, fmt.Errorf("%w: internal: %v, external: %v", ErrTitleNotFound, internalErr, externalErr)
	}
	return fromExternal(id, kind, external), nil
}

// enrich runs the external enrichment calls concurrently and merges whatever
// succeeded. Every call is independent; a failure empties that field only.
func (s *Service) enrich(ctx context.Context, id string, kind models.MediaKind, detail *models.CanonicalDetail) {
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(6)

	p.Go(func() {
		cast, crew, err := s.external.Credits(ctx, id, kind)
		if err != nil {
			log.Printf("[resolver] credits enrichment failed for %s/%s: %v", kind, id, err)
			return
		}
		mu.Lock()
		detail.Cast, detail.Crew = cast, crew
		mu.Unlock()
	})

	p.Go(func() {
		langs, err := s.external.AudioLanguages(ctx, id, kind)
		if err != nil {
			log.Printf("[resolver] audio-language enrichment failed for %s/%s: %v", kind, id, err)
			return
		}
		mu.Lock()
		detail.AudioLanguages = langs
		mu.Unlock()
	})

	p.Go(func() {
		tagline, err := s.external.Tagline(ctx, id, kind)
		if err != nil {
			log.Printf("[resolver] tagline enrichment failed for %s/%s: %v", kind, id, err)
			return
		}
		mu.Lock()
		detail.Tagline = tagline
		mu.Unlock()
	})

	p.Go(func() {
		list, err := s.external.Reviews(ctx, id, kind, reviewLimit)
		if err != nil {
			log.Printf("[resolver] review enrichment failed for %s/%s: %v", kind, id, err)
			return
		}
		for i := range list {
			list[i].Content = reviews.FormatHTML(list[i].Content)
		}
		mu.Lock()
		detail.Reviews = list
		mu.Unlock()
	})

	p.Go(func() {
		similar, err := s.external.Similar(ctx, id, kind)
		if err != nil {
			log.Printf("[resolver] similar-title enrichment failed for %s/%s: %v", kind, id, err)
			return
		}
		mu.Lock()
		detail.Similar = similar
		mu.Unlock()
	})

	p.Go(func() {
		providers, err := s.external.WatchProviders(ctx, id, kind, s.region)
		if err != nil {
			log.Printf("[resolver] watch-provider enrichment failed for %s/%s: %v", kind, id, err)
			return
		}
		mu.Lock()
		detail.Providers = providers
		mu.Unlock()
	})

	// Series need the external last-air date even when the base record is
	// internal; the catalog does not track it.
	if kind == models.KindSeries && detail.Identity.Source == models.SourceInternal {
		p.Go(func() {
			external, err := s.external.Detail(ctx, id, kind)
			if err != nil {
				log.Printf("[resolver] end-date enrichment failed for series %s: %v", id, err)
				return
			}
			mu.Lock()
			detail.EndDate = external.LastAirDate
			detail.AdultRating = adultBand(external.Adult)
			mu.Unlock()
		})
	}

	p.Wait()
}

// fromCatalog maps an internal record onto the canonical shape. Core fields
// come only from this record; enrichment is filled in later.
func fromCatalog(id string, kind models.MediaKind, record *sources.CatalogTitle) *models.CanonicalDetail {
	detail := &models.CanonicalDetail{
		Identity:    models.MediaIdentity{ID: id, Kind: kind, Source: models.SourceInternal},
		Title:       record.Title,
		Overview:    record.Description,
		Rating:      record.Rating,
		ReleaseDate: record.ReleaseDate,
		Genres:      record.GenreNames(),
		TrailerURL:  record.Trailer,
		// The catalog has no adult flag; the stricter band is never assumed.
		AdultRating: adultBand(false),
	}
	if kind == models.KindSeries {
		detail.PosterURL = record.Poster
		detail.BackdropURL = record.Backdrop
		detail.Seasons = record.NumberOfSeasons
		detail.Episodes = record.NumberOfEpisodes
	} else {
		detail.PosterURL = record.Cover
		detail.BackdropURL = record.Background
		detail.RuntimeMinutes = int(record.Duration)
		detail.Director = record.Director
	}
	return detail
}

// fromExternal maps a provider record onto the canonical shape.
func fromExternal(id string, kind models.MediaKind, record *sources.ExternalTitle) *models.CanonicalDetail {
	return &models.CanonicalDetail{
		Identity:       models.MediaIdentity{ID: id, Kind: kind, Source: models.SourceExternal},
		Title:          record.Title,
		Overview:       record.Overview,
		Rating:         record.Rating,
		ReleaseDate:    record.ReleaseDate,
		EndDate:        record.LastAirDate,
		Genres:         record.Genres,
		RuntimeMinutes: record.Runtime,
		Seasons:        record.Seasons,
		Episodes:       record.Episodes,
		PosterURL:      record.PosterURL,
		BackdropURL:    record.BackdropURL,
		AdultRating:    adultBand(record.Adult),
	}
}

// deriveDirector picks the display director: an explicit director credit
// first, then the most popular executive producer, then whatever the base
// record carried, then "Unknown".
func deriveDirector(fromBase string, crew []models.CrewMember) string {
	for _, member := range crew {
		if member.Job == "Director" && member.Name != "" {
			return member.Name
		}
	}
	best := ""
	bestPopularity := -1.0
	for _, member := range crew {
		if member.Job == "Executive Producer" && member.Popularity > bestPopularity {
			best = member.Name
			bestPopularity = member.Popularity
		}
	}
	if best != "" {
		return best
	}
	if fromBase != "" {
		return fromBase
	}
	return "Unknown"
}

// deriveReleaseYear renders the display year. Films show a single year;
// series show a range whose end stays open ("Present") when the title has no
// last-air date, and collapse to one year when start and end match.
func deriveReleaseYear(kind models.MediaKind, releaseDate, endDate string) string {
	start := yearOf(releaseDate)
	if kind != models.KindSeries {
		if start == "" {
			return "Unknown"
		}
		return start
	}
	if start == "" {
		start = "Unknown"
	}
	end := yearOf(endDate)
	if end == "" {
		end = "Present"
	}
	if start == end {
		return start
	}
	return start + " - " + end
}

func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}

// adultBand maps the provider's adult flag onto the two display bands. This
// is a presentation-level simplification, not a ratings-board mapping.
func adultBand(adult bool) string {
	if adult {
		return "18+"
	}
	return "13+"
}

func ensureCollections(detail *models.CanonicalDetail) {
	if detail.Genres == nil {
		detail.Genres = []string{}
	}
	if detail.Cast == nil {
		detail.Cast = []models.CastMember{}
	}
	if detail.Crew == nil {
		detail.Crew = []models.CrewMember{}
	}
	if detail.AudioLanguages == nil {
		detail.AudioLanguages = []string{}
	}
	if detail.Reviews == nil {
		detail.Reviews = []models.Review{}
	}
	if detail.Similar == nil {
		detail.Similar = []models.SimilarTitle{}
	}
	if detail.Providers == nil {
		detail.Providers = []models.StreamingProvider{}
	}
}
