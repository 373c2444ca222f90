// Package watchlist mirrors server-side watchlist state behind a small
// per-identity membership cache, so repeated membership checks for the same
// title do not refetch. The server stays authoritative: the cache flips only
// after the server confirms a mutation.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"vidaria/models"
	"vidaria/services/sources"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sourcegraph/conc/pool"
)

// ErrExactlyOneID is returned when a call names zero or both of movieID and
// serieID. Every watchlist operation works on exactly one title.
var ErrExactlyOneID = errors.New("exactly one of movieID or serieID must be set")

const (
	defaultCacheSize = 2048
	defaultCacheTTL  = 10 * time.Minute
	listConcurrency  = 4
)

// remote is the server-side watchlist surface.
type remote interface {
	WatchlistCheck(ctx context.Context, userID, movieID, serieID string) (bool, error)
	WatchlistAdd(ctx context.Context, req sources.WatchlistRequest) error
	WatchlistRemove(ctx context.Context, userID, movieID, serieID string) error
	WatchlistClear(ctx context.Context, userID string) error
	Watchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
}

// enricher supplies external detail records for list display enrichment.
type enricher interface {
	Detail(ctx context.Context, id string, kind models.MediaKind) (*sources.ExternalTitle, error)
}

var (
	_ remote   = (*sources.CatalogClient)(nil)
	_ enricher = (*sources.TMDBClient)(nil)
)

type Service struct {
	remote   remote
	enricher enricher

	// membership caches server check answers per (user, title) identity.
	membership *expirable.LRU[string, bool]
}

// NewService builds the watchlist layer. cache may be nil, in which case a
// default-sized cache with a ten-minute TTL is created.
func NewService(remote remote, enricher enricher, cache *expirable.LRU[string, bool]) *Service {
	if cache == nil {
		cache = expirable.NewLRU[string, bool](defaultCacheSize, nil, defaultCacheTTL)
	}
	return &Service{remote: remote, enricher: enricher, membership: cache}
}

func validateIDs(movieID, serieID string) error {
	if (movieID == "") == (serieID == "") {
		return ErrExactlyOneID
	}
	return nil
}

func membershipKey(userID, movieID, serieID string) string {
	if movieID != "" {
		return userID + "|film|" + movieID
	}
	return userID + "|series|" + serieID
}

// Check reports whether the title is on the user's watchlist, answering from
// the membership cache when it can.
func (s *Service) Check(ctx context.Context, userID, movieID, serieID string) (bool, error) {
	if err := validateIDs(movieID, serieID); err != nil {
		return false, err
	}
	key := membershipKey(userID, movieID, serieID)
	if saved, ok := s.membership.Get(key); ok {
		return saved, nil
	}
	saved, err := s.remote.WatchlistCheck(ctx, userID, movieID, serieID)
	if err != nil {
		return false, err
	}
	s.membership.Add(key, saved)
	return saved, nil
}

// Add saves a title. The cached membership flips to true only after the
// server confirms; on failure the cache is untouched so a later Check still
// reflects the server's view.
func (s *Service) Add(ctx context.Context, userID, movieID, serieID string) error {
	if err := validateIDs(movieID, serieID); err != nil {
		return err
	}
	req := sources.WatchlistRequest{UserID: userID, MovieID: movieID, SerieID: serieID}
	if err := s.remote.WatchlistAdd(ctx, req); err != nil {
		log.Printf("[watchlist] add failed for user %s: %v", userID, err)
		return err
	}
	s.membership.Add(membershipKey(userID, movieID, serieID), true)
	return nil
}

// Remove deletes a saved title, flipping the cache to false only on server
// confirmation.
func (s *Service) Remove(ctx context.Context, userID, movieID, serieID string) error {
	if err := validateIDs(movieID, serieID); err != nil {
		return err
	}
	if err := s.remote.WatchlistRemove(ctx, userID, movieID, serieID); err != nil {
		log.Printf("[watchlist] remove failed for user %s: %v", userID, err)
		return err
	}
	s.membership.Add(membershipKey(userID, movieID, serieID), false)
	return nil
}

// Clear removes every saved title for the user and drops the user's cached
// membership answers.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.remote.WatchlistClear(ctx, userID); err != nil {
		return err
	}
	prefix := userID + "|"
	for _, key := range s.membership.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.membership.Remove(key)
		}
	}
	return nil
}

// List fetches the user's watchlist and enriches each entry for display.
// Enrichment is best effort: the server-seeded title, poster and year survive
// any external failure.
func (s *Service) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	entries, err := s.remote.Watchlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := pool.New().WithMaxGoroutines(listConcurrency)
	for i := range entries {
		i := i
		p.Go(func() {
			s.enrichEntry(ctx, &entries[i])
		})
	}
	p.Wait()

	// Every listed entry is by definition on the watchlist; prime the cache
	// so the detail pages these rows link to skip their membership round trip.
	for _, entry := range entries {
		s.membership.Add(membershipKey(entry.UserID, entry.MovieID, entry.SerieID), true)
	}
	return entries, nil
}

// enrichEntry upgrades one row with external art and, for series, the closed
// year range. Failures leave the seeded values in place.
func (s *Service) enrichEntry(ctx context.Context, entry *models.WatchlistEntry) {
	identity := entry.Identity()
	if identity.ID == "" {
		return
	}
	detail, err := s.enricher.Detail(ctx, identity.ID, identity.Kind)
	if err != nil {
		log.Printf("[watchlist] enrichment failed for %s/%s: %v", identity.Kind, identity.ID, err)
		return
	}
	if detail.PosterURL != "" {
		entry.PosterURL = sources.AdjustImageQuality(detail.PosterURL, "original")
	}
	if entry.Title == "" {
		entry.Title = detail.Title
	}
	if identity.Kind == models.KindSeries {
		entry.YearRange = seriesYearRange(entry.YearRange, detail.LastAirDate)
	}
}

// seriesYearRange closes a start-year-only range with the external last-air
// year, collapsing equal start and end.
func seriesYearRange(start, lastAirDate string) string {
	if start == "" || start == "0" {
		if year := sources.ParseYear(lastAirDate); year > 0 {
			return fmt.Sprintf("%d", year)
		}
		return start
	}
	end := sources.ParseYear(lastAirDate)
	if end == 0 {
		return start
	}
	endText := fmt.Sprintf("%d", end)
	if start == endText {
		return start
	}
	return start + " - " + endText
}
