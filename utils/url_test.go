package utils

import (
	"strings"
	"testing"
)

func TestEncodeURLWithSpaces(t *testing.T) {
	result, err := EncodeURLWithSpaces("http://example.com/path with spaces/poster name.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "path%20with%20spaces") {
		t.Errorf("expected encoded spaces in path, got %q", result)
	}
}

func TestEncodeURLWithSpacesQuery(t *testing.T) {
	result, err := EncodeURLWithSpaces("http://example.com/art.jpg?title=the matrix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "title=the%20matrix") {
		t.Errorf("expected encoded spaces in query, got %q", result)
	}
}

func TestEncodeURLWithSpacesPassthrough(t *testing.T) {
	clean := "https://image.tmdb.org/t/p/w500/bb.jpg"
	result, err := EncodeURLWithSpaces(clean)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != clean {
		t.Errorf("clean url should pass through, got %q", result)
	}
}
