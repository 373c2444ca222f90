// Package sources holds the thin clients for the two title backends: the
// internal catalog API and the external metadata provider. The clients fetch
// and normalize; merge and fallback policy lives in the services above them.
package sources

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vidaria/models"
)

var (
	// ErrNotFound means the source answered but has no record for the title.
	ErrNotFound = errors.New("title not found")
	// ErrEmptyRecord means the source returned a parseable but empty body.
	ErrEmptyRecord = errors.New("empty record")
)

const defaultTimeout = 15 * time.Second

var imageSizeSegment = regexp.MustCompile(`/w\d+`)

// AdjustImageQuality rewrites the size segment of a provider image URL
// (".../w200/poster.jpg") to the requested quality, typically "original".
// URLs without a size segment pass through unchanged.
func AdjustImageQuality(url, quality string) string {
	if url == "" {
		return ""
	}
	if quality == "" {
		quality = "original"
	}
	return imageSizeSegment.ReplaceAllString(url, "/"+quality)
}

// ParseYear extracts the calendar year from the first non-empty YYYY-MM-DD
// (or bare YYYY) date in precedence order. Returns 0 when none parses.
func ParseYear(dates ...string) int {
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if len(d) < 4 {
			continue
		}
		year, err := strconv.Atoi(d[:4])
		if err != nil || year < 1800 {
			continue
		}
		return year
	}
	return 0
}

// kindPath maps a media kind to the external provider's path segment.
func kindPath(kind models.MediaKind) string {
	if kind == models.KindSeries {
		return "tv"
	}
	return "movie"
}
