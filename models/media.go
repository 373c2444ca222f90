package models

// MediaKind distinguishes films from series. It is half of a title's identity.
type MediaKind string

const (
	KindFilm   MediaKind = "film"
	KindSeries MediaKind = "series"
)

// Source records which backend supplied a record. Provenance only: two
// identities are the same title iff ID and Kind match, regardless of Source.
type Source string

const (
	SourceInternal Source = "internal"
	SourceExternal Source = "external"
)

// MediaIdentity names one title across both sources.
type MediaIdentity struct {
	ID     string    `json:"id"`
	Kind   MediaKind `json:"kind"`
	Source Source    `json:"source"`
}

// SameTitle reports whether two identities refer to the same title.
// Source is deliberately ignored.
func (m MediaIdentity) SameTitle(other MediaIdentity) bool {
	return m.ID == other.ID && m.Kind == other.Kind
}

// CastMember is one billed actor from the external credits endpoint.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Order     int    `json:"order"`
}

// CrewMember is one crew credit. Popularity breaks ties when deriving the
// director from executive producers.
type CrewMember struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Job        string  `json:"job"`
	Popularity float64 `json:"popularity"`
}

// Review is one external review, content already formatted for display.
type Review struct {
	Author    string `json:"author"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"` // RFC 3339 from the provider
}

// SimilarTitle is a related-title suggestion from the external provider.
type SimilarTitle struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl,omitempty"`
	Year      int    `json:"year,omitempty"`
}

// StreamingProvider is one watch-provider link.
type StreamingProvider struct {
	Provider string `json:"provider"`
	LogoURL  string `json:"logoUrl,omitempty"`
}

// CanonicalDetail is the merged detail record for one title. Core fields come
// from exactly one source (whichever supplied the base record); enrichment
// fields always come from the external provider, degrading to empty
// collections when individual enrichment calls fail.
type CanonicalDetail struct {
	Identity MediaIdentity `json:"identity"`

	// Core fields, from the base record.
	Title          string   `json:"title"`
	Overview       string   `json:"overview"`
	Rating         float64  `json:"rating"`
	ReleaseDate    string   `json:"releaseDate,omitempty"` // YYYY-MM-DD
	EndDate        string   `json:"endDate,omitempty"`     // series last air date, may be empty
	Genres         []string `json:"genres"`
	RuntimeMinutes int      `json:"runtimeMinutes,omitempty"` // films
	Seasons        int      `json:"seasons,omitempty"`        // series
	Episodes       int      `json:"episodes,omitempty"`       // series
	PosterURL      string   `json:"posterUrl,omitempty"`
	BackdropURL    string   `json:"backdropUrl,omitempty"`
	TrailerURL     string   `json:"trailerUrl,omitempty"`

	// Derived fields.
	ReleaseYear string `json:"releaseYear"` // "2008", "2008 - 2013", "2008 - Present"
	Director    string `json:"director"`    // "Unknown" when no credit qualifies
	// AdultRating is a two-band display classification ("18+" / "13+") derived
	// from the provider's adult flag. It is a presentation-level
	// simplification, not an MPAA or ratings-board mapping.
	AdultRating string `json:"adultRating"`

	// Enrichment fields, always from the external provider.
	Cast           []CastMember        `json:"cast"`
	Crew           []CrewMember        `json:"crew"`
	AudioLanguages []string            `json:"audioLanguages"`
	Tagline        string              `json:"tagline,omitempty"`
	Reviews        []Review            `json:"reviews"`
	Similar        []SimilarTitle      `json:"similar"`
	Providers      []StreamingProvider `json:"providers"`
}

// SearchResultItem is one admitted, scored search result.
type SearchResultItem struct {
	Identity  MediaIdentity `json:"identity"`
	Title     string        `json:"title"`
	PosterRef string        `json:"posterRef"`
	Year      int           `json:"year"`
	Rating    float64       `json:"rating"`
	// Similarity is len(query)/len(title) when the lowercased query is a
	// substring of the lowercased title, else 0.
	Similarity float64 `json:"similarityScore"`
}

// WatchlistEntry is one saved title, exactly one of MovieID/SerieID set.
type WatchlistEntry struct {
	ID      int64  `json:"id,omitempty"`
	UserID  string `json:"userId"`
	MovieID string `json:"movieId,omitempty"`
	SerieID string `json:"serieId,omitempty"`

	// Client-side enrichment, best effort.
	Title     string `json:"title,omitempty"`
	PosterURL string `json:"posterUrl,omitempty"`
	YearRange string `json:"yearRange,omitempty"`
}

// Identity returns the entry's media identity. The zero value is returned for
// malformed entries with neither ID set.
func (e WatchlistEntry) Identity() MediaIdentity {
	switch {
	case e.MovieID != "":
		return MediaIdentity{ID: e.MovieID, Kind: KindFilm, Source: SourceInternal}
	case e.SerieID != "":
		return MediaIdentity{ID: e.SerieID, Kind: KindSeries, Source: SourceInternal}
	}
	return MediaIdentity{}
}

// CategoryWindow is the pagination snapshot for one named content shelf.
type CategoryWindow struct {
	CategoryKey  string `json:"categoryKey"`
	SlideIndex   int    `json:"slideIndex"`
	NextDisabled bool   `json:"nextDisabled"`
}
