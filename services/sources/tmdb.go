package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"vidaria/models"

	"github.com/avast/retry-go/v4"
)

const (
	tmdbImageBase  = "https://image.tmdb.org/t/p"
	tmdbPosterSize = "w500"
)

// TMDBClient talks to the external metadata provider. It normalizes the
// provider-native schema (poster_path, vote_average, first_air_date) at the
// boundary; callers only ever see normalized shapes.
type TMDBClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	cache   *fileCache
}

func NewTMDBClient(baseURL, apiKey string, httpc *http.Client, cacheDir string, ttlHours int) *TMDBClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	var cache *fileCache
	if cacheDir != "" {
		cache = newFileCache(cacheDir, ttlHours)
	}
	return &TMDBClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   httpc,
		cache:   cache,
	}
}

// ExternalTitle is the provider's detail record after normalization.
type ExternalTitle struct {
	ID           int64
	Title        string
	Overview     string
	Rating       float64
	ReleaseDate  string // release_date or first_air_date
	LastAirDate  string // series only
	Genres       []string
	Runtime      int
	Seasons      int
	Episodes     int
	PosterURL    string
	BackdropURL  string
	Tagline      string
	Adult        bool
	SpokenLangs  []string
	InProduction bool
}

// externalDetail is the provider-native detail payload for both kinds.
type externalDetail struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	Tagline          string  `json:"tagline"`
	VoteAverage      float64 `json:"vote_average"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	LastAirDate      string  `json:"last_air_date"`
	Runtime          int     `json:"runtime"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Adult            bool    `json:"adult"`
	InProduction     bool    `json:"in_production"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	SpokenLanguages []struct {
		EnglishName string `json:"english_name"`
	} `json:"spoken_languages"`
}

func (d *externalDetail) normalize() *ExternalTitle {
	title := d.Title
	if title == "" {
		title = d.Name
	}
	release := d.ReleaseDate
	if release == "" {
		release = d.FirstAirDate
	}
	out := &ExternalTitle{
		ID:           d.ID,
		Title:        title,
		Overview:     d.Overview,
		Rating:       d.VoteAverage,
		ReleaseDate:  release,
		LastAirDate:  d.LastAirDate,
		Runtime:      d.Runtime,
		Seasons:      d.NumberOfSeasons,
		Episodes:     d.NumberOfEpisodes,
		PosterURL:    imageURL(d.PosterPath, tmdbPosterSize),
		BackdropURL:  imageURL(d.BackdropPath, "original"),
		Tagline:      d.Tagline,
		Adult:        d.Adult,
		InProduction: d.InProduction,
	}
	for _, g := range d.Genres {
		if g.Name != "" {
			out.Genres = append(out.Genres, g.Name)
		}
	}
	for _, lang := range d.SpokenLanguages {
		if lang.EnglishName != "" {
			out.SpokenLangs = append(out.SpokenLangs, lang.EnglishName)
		}
	}
	return out
}

func (t *ExternalTitle) empty() bool {
	return t.ID == 0 && strings.TrimSpace(t.Title) == ""
}

func imageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	return fmt.Sprintf("%s/%s%s", tmdbImageBase, size, path)
}

// Detail fetches the per-title detail record. Cached on disk.
func (c *TMDBClient) Detail(ctx context.Context, id string, kind models.MediaKind) (*ExternalTitle, error) {
	key := cacheKey("tmdb", "detail", string(kind), id)
	var cached externalDetail
	if ok, _ := c.cache.get(key, &cached); ok {
		return cached.normalize(), nil
	}
	var raw externalDetail
	if err := c.doGET(ctx, fmt.Sprintf("%s/%s/%s", c.baseURL, kindPath(kind), url.PathEscape(id)), nil, &raw); err != nil {
		return nil, err
	}
	normalized := raw.normalize()
	if normalized.empty() {
		return nil, ErrEmptyRecord
	}
	_ = c.cache.set(key, raw)
	return normalized, nil
}

// Credits fetches the cast and crew lists.
func (c *TMDBClient) Credits(ctx context.Context, id string, kind models.MediaKind) ([]models.CastMember, []models.CrewMember, error) {
	var raw struct {
		Cast []struct {
			ID        int64  `json:"id"`
			Name      string `json:"name"`
			Character string `json:"character"`
			Order     int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			ID         int64   `json:"id"`
			Name       string  `json:"name"`
			Job        string  `json:"job"`
			Popularity float64 `json:"popularity"`
		} `json:"crew"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("%s/%s/%s/credits", c.baseURL, kindPath(kind), url.PathEscape(id)), nil, &raw); err != nil {
		return nil, nil, err
	}
	cast := make([]models.CastMember, 0, len(raw.Cast))
	for _, member := range raw.Cast {
		cast = append(cast, models.CastMember{ID: member.ID, Name: member.Name, Character: member.Character, Order: member.Order})
	}
	crew := make([]models.CrewMember, 0, len(raw.Crew))
	for _, member := range raw.Crew {
		crew = append(crew, models.CrewMember{ID: member.ID, Name: member.Name, Job: member.Job, Popularity: member.Popularity})
	}
	return cast, crew, nil
}

// AudioLanguages fetches the spoken-language names for a title.
func (c *TMDBClient) AudioLanguages(ctx context.Context, id string, kind models.MediaKind) ([]string, error) {
	detail, err := c.Detail(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	return detail.SpokenLangs, nil
}

// Tagline fetches the title's tagline; empty when the provider has none.
func (c *TMDBClient) Tagline(ctx context.Context, id string, kind models.MediaKind) (string, error) {
	detail, err := c.Detail(ctx, id, kind)
	if err != nil {
		return "", err
	}
	return detail.Tagline, nil
}

// Reviews fetches up to limit reviews, newest first.
func (c *TMDBClient) Reviews(ctx context.Context, id string, kind models.MediaKind, limit int) ([]models.Review, error) {
	var raw struct {
		Results []struct {
			Author        string `json:"author"`
			Content       string `json:"content"`
			CreatedAt     string `json:"created_at"`
			AuthorDetails struct {
				AvatarPath string `json:"avatar_path"`
			} `json:"author_details"`
		} `json:"results"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("%s/%s/%s/reviews", c.baseURL, kindPath(kind), url.PathEscape(id)), nil, &raw); err != nil {
		return nil, err
	}
	reviews := make([]models.Review, 0, len(raw.Results))
	for _, r := range raw.Results {
		reviews = append(reviews, models.Review{
			Author:    r.Author,
			AvatarURL: imageURL(r.AuthorDetails.AvatarPath, "w200"),
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
		})
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt > reviews[j].CreatedAt
	})
	if limit > 0 && len(reviews) > limit {
		reviews = reviews[:limit]
	}
	return reviews, nil
}

// Similar fetches related-title suggestions.
func (c *TMDBClient) Similar(ctx context.Context, id string, kind models.MediaKind) ([]models.SimilarTitle, error) {
	var raw struct {
		Results []externalSearchResult `json:"results"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("%s/%s/%s/similar", c.baseURL, kindPath(kind), url.PathEscape(id)), nil, &raw); err != nil {
		return nil, err
	}
	similar := make([]models.SimilarTitle, 0, len(raw.Results))
	for _, r := range raw.Results {
		poster := imageURL(r.BackdropPath, "original")
		if poster == "" {
			poster = imageURL(r.PosterPath, "original")
		}
		if poster == "" {
			continue
		}
		similar = append(similar, models.SimilarTitle{
			ID:        r.ID,
			Title:     r.name(),
			PosterURL: poster,
			Year:      ParseYear(r.ReleaseDate, r.FirstAirDate),
		})
	}
	return similar, nil
}

// WatchProviders fetches flatrate streaming links for the given region.
func (c *TMDBClient) WatchProviders(ctx context.Context, id string, kind models.MediaKind, region string) ([]models.StreamingProvider, error) {
	if region == "" {
		region = "US"
	}
	var raw struct {
		Results map[string]struct {
			Flatrate []struct {
				ProviderName string `json:"provider_name"`
				LogoPath     string `json:"logo_path"`
			} `json:"flatrate"`
		} `json:"results"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("%s/%s/%s/watch/providers", c.baseURL, kindPath(kind), url.PathEscape(id)), nil, &raw); err != nil {
		return nil, err
	}
	entry, ok := raw.Results[region]
	if !ok {
		return nil, nil
	}
	providers := make([]models.StreamingProvider, 0, len(entry.Flatrate))
	for _, p := range entry.Flatrate {
		providers = append(providers, models.StreamingProvider{
			Provider: p.ProviderName,
			LogoURL:  imageURL(p.LogoPath, "w200"),
		})
	}
	return providers, nil
}

// externalSearchResult is the provider-native list-item shape shared by the
// search and similar endpoints.
type externalSearchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

func (r externalSearchResult) name() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// SearchRow is one normalized external search hit. Raw enough for the
// aggregator's admission filter to inspect what the provider actually sent.
type SearchRow struct {
	ID        int64
	Title     string
	PosterRef string
	Date      string
	Rating    float64
}

// Search queries the provider's per-kind search endpoint.
func (c *TMDBClient) Search(ctx context.Context, query string, kind models.MediaKind) ([]SearchRow, error) {
	params := url.Values{}
	params.Set("query", query)
	var raw struct {
		Results []externalSearchResult `json:"results"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("%s/search/%s", c.baseURL, kindPath(kind)), params, &raw); err != nil {
		return nil, err
	}
	rows := make([]SearchRow, 0, len(raw.Results))
	for _, r := range raw.Results {
		rows = append(rows, SearchRow{
			ID:        r.ID,
			Title:     r.name(),
			PosterRef: imageURL(r.PosterPath, tmdbPosterSize),
			Date:      firstNonEmpty(r.ReleaseDate, r.FirstAirDate),
			Rating:    r.VoteAverage,
		})
	}
	return rows, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// doGET issues one provider request with the API key attached and a small
// retry budget for transient failures. 404s map to ErrNotFound.
func (c *TMDBClient) doGET(ctx context.Context, endpoint string, params url.Values, v any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")
	endpoint = endpoint + "?" + params.Encode()
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				return fmt.Errorf("tmdb GET %s: %w", req.URL.Path, err)
			}
			defer resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(fmt.Errorf("tmdb GET %s: %w", req.URL.Path, ErrNotFound))
			case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				return fmt.Errorf("tmdb GET %s: %s: %s", req.URL.Path, resp.Status, strings.TrimSpace(string(msg)))
			case resp.StatusCode >= 300:
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				return retry.Unrecoverable(fmt.Errorf("tmdb GET %s: %s: %s", req.URL.Path, resp.Status, strings.TrimSpace(string(msg))))
			}
			return json.NewDecoder(resp.Body).Decode(v)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.LastErrorOnly(true),
	)
}
