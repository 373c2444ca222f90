package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"vidaria/models"

	"github.com/avast/retry-go/v4"
)

// CatalogClient talks to the internal catalog API. It is authoritative for
// curated title data and for watchlist state; watchlist calls carry the
// session bearer token.
type CatalogClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewCatalogClient(baseURL, token string, httpc *http.Client) *CatalogClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   httpc,
	}
}

// CatalogTitle is the internal catalog's record shape. Movies and series
// share one struct; series-only fields stay zero for movies and vice versa.
type CatalogTitle struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ReleaseDate string  `json:"releaseDate"`
	Rating      float64 `json:"rating"`
	Popularity  float64 `json:"popularity"`
	Trailer     string  `json:"trailer"`

	// Movie fields.
	Cover      string `json:"cover,omitempty"`
	Background string `json:"background,omitempty"`
	Director   string `json:"director,omitempty"`
	Duration   int64  `json:"duration,omitempty"`

	// Series fields.
	Poster           string `json:"poster,omitempty"`
	Backdrop         string `json:"backdrop,omitempty"`
	Creator          string `json:"creator,omitempty"`
	NumberOfSeasons  int    `json:"numberOfSeasons,omitempty"`
	NumberOfEpisodes int    `json:"numberOfEpisodes,omitempty"`
	Status           string `json:"status,omitempty"`

	Genres   []catalogGenre `json:"genres,omitempty"`
	GenreIDs []catalogGenre `json:"genreID,omitempty"` // series records use this key
}

type catalogGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GenreNames flattens whichever genre list the record carries.
func (t *CatalogTitle) GenreNames() []string {
	list := t.Genres
	if len(list) == 0 {
		list = t.GenreIDs
	}
	names := make([]string, 0, len(list))
	for _, g := range list {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	return names
}

// PosterRef returns the record's best poster-like image reference.
func (t *CatalogTitle) PosterRef() string {
	for _, ref := range []string{t.Poster, t.Cover, t.Background, t.Backdrop} {
		if ref != "" {
			return ref
		}
	}
	return ""
}

// empty reports a parseable-but-empty body, which callers treat the same as
// not-found when deciding whether to fall back to the external source.
func (t *CatalogTitle) empty() bool {
	return t.ID == 0 && strings.TrimSpace(t.Title) == ""
}

// Title fetches one title record by id and kind.
func (c *CatalogClient) Title(ctx context.Context, id string, kind models.MediaKind) (*CatalogTitle, error) {
	segment := "movies"
	if kind == models.KindSeries {
		segment = "series"
	}
	var record CatalogTitle
	if err := c.doGET(ctx, fmt.Sprintf("%s/%s/%s", c.baseURL, segment, url.PathEscape(id)), nil, &record); err != nil {
		return nil, err
	}
	if record.empty() {
		return nil, ErrEmptyRecord
	}
	return &record, nil
}

// pagedTitles is the catalog's paged list envelope.
type pagedTitles struct {
	Content []CatalogTitle `json:"content"`
}

// Search queries one kind's search endpoint by title.
func (c *CatalogClient) Search(ctx context.Context, query string, kind models.MediaKind) ([]CatalogTitle, error) {
	segment := "movies"
	if kind == models.KindSeries {
		segment = "series"
	}
	params := url.Values{}
	params.Set("title", query)
	var page pagedTitles
	if err := c.doGET(ctx, fmt.Sprintf("%s/%s/search", c.baseURL, segment), params, &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}

// Category fetches one page of a named content shelf.
func (c *CatalogClient) Category(ctx context.Context, kind models.MediaKind, name string, page, size int) ([]CatalogTitle, error) {
	segment := "movies"
	if kind == models.KindSeries {
		segment = "series"
	}
	params := url.Values{}
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("size", fmt.Sprintf("%d", size))
	var resp pagedTitles
	if err := c.doGET(ctx, fmt.Sprintf("%s/%s/category/%s", c.baseURL, segment, url.PathEscape(name)), params, &resp); err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// CategoryItems accumulates up to pages pages of a shelf into one slice,
// stopping early on an empty page.
func (c *CatalogClient) CategoryItems(ctx context.Context, kind models.MediaKind, name string, pages, size int) ([]CatalogTitle, error) {
	items := make([]CatalogTitle, 0, pages*size)
	for page := 0; page < pages; page++ {
		batch, err := c.Category(ctx, kind, name, page, size)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			log.Printf("[catalog] category %s page %d failed, returning %d items: %v", name, page, len(items), err)
			break
		}
		if len(batch) == 0 {
			break
		}
		items = append(items, batch...)
	}
	return items, nil
}

// FeaturedSeries pages through the most-popular shelf collecting the named
// featured titles, stopping once all are found or the listing runs out.
func (c *CatalogClient) FeaturedSeries(ctx context.Context, featured []string, maxPages, size int) ([]CatalogTitle, error) {
	wanted := make(map[string]bool, len(featured))
	for _, title := range featured {
		wanted[strings.ToLower(title)] = true
	}
	found := make([]CatalogTitle, 0, len(featured))
	for page := 1; page <= maxPages; page++ {
		batch, err := c.Category(ctx, models.KindSeries, "most-popular", page, size)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			break
		}
		if len(batch) == 0 {
			break
		}
		for _, serie := range batch {
			if wanted[strings.ToLower(serie.Title)] {
				found = append(found, serie)
				delete(wanted, strings.ToLower(serie.Title))
			}
		}
		if len(wanted) == 0 {
			break
		}
	}
	return found, nil
}

// WatchlistRequest is the add-endpoint body; exactly one of MovieID/SerieID set.
type WatchlistRequest struct {
	UserID  string `json:"userId"`
	MovieID string `json:"movieId,omitempty"`
	SerieID string `json:"serieId,omitempty"`
}

// WatchlistCheck asks the server whether the title is saved for the user.
func (c *CatalogClient) WatchlistCheck(ctx context.Context, userID, movieID, serieID string) (bool, error) {
	params := url.Values{}
	params.Set("userId", userID)
	if movieID != "" {
		params.Set("movieId", movieID)
	}
	if serieID != "" {
		params.Set("serieId", serieID)
	}
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := c.doGET(ctx, c.baseURL+"/api/watchlist/check", params, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// WatchlistAdd saves a title for the user.
func (c *CatalogClient) WatchlistAdd(ctx context.Context, req WatchlistRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, c.baseURL+"/api/watchlist/add", nil, bytes.NewReader(body), nil)
}

// WatchlistRemove deletes one saved title.
func (c *CatalogClient) WatchlistRemove(ctx context.Context, userID, movieID, serieID string) error {
	params := url.Values{}
	params.Set("userId", userID)
	if movieID != "" {
		params.Set("movieId", movieID)
	}
	if serieID != "" {
		params.Set("serieId", serieID)
	}
	return c.do(ctx, http.MethodDelete, c.baseURL+"/api/watchlist", params, nil, nil)
}

// WatchlistClear removes every saved title for the user.
func (c *CatalogClient) WatchlistClear(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/api/watchlist/clear/"+url.PathEscape(userID), nil, nil, nil)
}

// watchlistItem is the server's list shape: the full movie/serie row nested
// under the entry.
type watchlistItem struct {
	ID    int64         `json:"id"`
	Movie *CatalogTitle `json:"movie"`
	Serie *CatalogTitle `json:"serie"`
}

// Watchlist fetches the user's full watchlist. A 204 empty list decodes to nil.
func (c *CatalogClient) Watchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	var items []watchlistItem
	if err := c.doGET(ctx, c.baseURL+"/api/watchlist/"+url.PathEscape(userID), nil, &items); err != nil {
		return nil, err
	}
	entries := make([]models.WatchlistEntry, 0, len(items))
	for _, item := range items {
		entry := models.WatchlistEntry{ID: item.ID, UserID: userID}
		switch {
		case item.Movie != nil:
			entry.MovieID = fmt.Sprintf("%d", item.Movie.ID)
			entry.Title = item.Movie.Title
			entry.PosterURL = item.Movie.PosterRef()
			entry.YearRange = fmt.Sprintf("%d", ParseYear(item.Movie.ReleaseDate))
		case item.Serie != nil:
			entry.SerieID = fmt.Sprintf("%d", item.Serie.ID)
			entry.Title = item.Serie.Title
			entry.PosterURL = item.Serie.PosterRef()
			entry.YearRange = fmt.Sprintf("%d", ParseYear(item.Serie.ReleaseDate))
		default:
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *CatalogClient) doGET(ctx context.Context, endpoint string, params url.Values, v any) error {
	return c.do(ctx, http.MethodGet, endpoint, params, nil, v)
}

// do issues one request with a small retry budget for transient failures.
// 404s map to ErrNotFound and are not retried.
func (c *CatalogClient) do(ctx context.Context, method, endpoint string, params url.Values, body io.Reader, v any) error {
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	var payload []byte
	if body != nil {
		var err error
		payload, err = io.ReadAll(body)
		if err != nil {
			return err
		}
	}
	return retry.Do(
		func() error {
			var reqBody io.Reader
			if payload != nil {
				reqBody = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if c.token != "" {
				req.Header.Set("Authorization", "Bearer "+c.token)
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				return fmt.Errorf("catalog %s %s: %w", method, endpoint, err)
			}
			defer resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(fmt.Errorf("catalog %s %s: %w", method, endpoint, ErrNotFound))
			case resp.StatusCode == http.StatusNoContent:
				return nil
			case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				return fmt.Errorf("catalog %s %s: %s: %s", method, endpoint, resp.Status, strings.TrimSpace(string(msg)))
			case resp.StatusCode >= 300:
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				return retry.Unrecoverable(fmt.Errorf("catalog %s %s: %s: %s", method, endpoint, resp.Status, strings.TrimSpace(string(msg))))
			}
			if v == nil {
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(v)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.LastErrorOnly(true),
	)
}
