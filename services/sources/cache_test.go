package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	cache := newFileCache(t.TempDir(), 1)
	key := cacheKey("tmdb", "detail", "film", "550")

	type payload struct {
		Title string `json:"title"`
	}
	if err := cache.set(key, payload{Title: "Fight Club"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got payload
	ok, err := cache.get(key, &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || got.Title != "Fight Club" {
		t.Fatalf("unexpected cache result: ok=%v got=%+v", ok, got)
	}
}

func TestFileCacheMiss(t *testing.T) {
	cache := newFileCache(t.TempDir(), 1)
	var v struct{}
	ok, err := cache.get(cacheKey("absent"), &v)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatal("expected a miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	cache := newFileCache(dir, 1)
	key := cacheKey("stale")
	if err := cache.set(key, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// Age the entry past the TTL.
	path := filepath.Join(dir, key+".json")
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}

	var v map[string]string
	ok, _ := cache.get(key, &v)
	if ok {
		t.Fatal("expired entry should miss")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expired entry should be removed")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *fileCache
	var v struct{}
	if ok, err := cache.get("key", &v); ok || err != nil {
		t.Fatalf("nil cache get: ok=%v err=%v", ok, err)
	}
	if err := cache.set("key", v); err != nil {
		t.Fatalf("nil cache set: %v", err)
	}
}
