package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"vidaria/api"
	"vidaria/handlers"
	"vidaria/services/pagination"
	"vidaria/services/resolver"
	"vidaria/services/search"
	"vidaria/services/sources"
	"vidaria/services/watchlist"
	"vidaria/utils"

	"golang.org/x/time/rate"
)

type config struct {
	port         string
	catalogURL   string
	catalogToken string
	tmdbURL      string
	tmdbAPIKey   string
	cacheDir     string
	cacheTTL     int
	region       string
}

func loadConfig() config {
	cfg := config{
		port:         envOr("PORT", "8080"),
		catalogURL:   envOr("CATALOG_URL", "http://localhost:8081"),
		catalogToken: os.Getenv("CATALOG_TOKEN"),
		tmdbURL:      envOr("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		tmdbAPIKey:   os.Getenv("TMDB_API_KEY"),
		cacheDir:     envOr("CACHE_DIR", "./cache"),
		cacheTTL:     24,
		region:       envOr("WATCH_REGION", "US"),
	}
	if raw := os.Getenv("CACHE_TTL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			cfg.cacheTTL = hours
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg := loadConfig()
	if cfg.tmdbAPIKey == "" {
		log.Printf("[startup] TMDB_API_KEY is not set, external metadata will fail")
	}

	catalog := sources.NewCatalogClient(cfg.catalogURL, cfg.catalogToken, nil)
	tmdb := sources.NewTMDBClient(cfg.tmdbURL, cfg.tmdbAPIKey, nil, cfg.cacheDir, cfg.cacheTTL)

	resolverSvc := resolver.NewService(catalog, tmdb, cfg.region)
	searchAgg := search.NewAggregator(catalog, tmdb)
	watchlistSvc := watchlist.NewService(catalog, tmdb, nil)
	windows := pagination.NewController(1280)

	details := handlers.NewDetailsHandler(resolverSvc)
	searchHandler := handlers.NewSearchHandler(searchAgg)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistSvc)
	browse := handlers.NewBrowseHandler(catalog, windows)

	router := utils.NewRouter()
	router.Use(api.RequestIDMiddleware(), api.LoggingMiddleware())

	// Search and the featured scan both fan out to upstream sources on each
	// request, so they share a per-IP budget.
	upstreamLimiter := api.NewIPRateLimiter(rate.Every(200*time.Millisecond), 10)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/details/{kind}/{id}", details.Get).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/search", api.RateLimitHandlerFunc(upstreamLimiter, searchHandler.Search)).Methods(http.MethodGet, http.MethodOptions)

	apiRouter.Handle("/browse/featured", api.RateLimitHandler(upstreamLimiter, http.HandlerFunc(browse.Featured))).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/browse/windows/{key}/next", browse.Advance).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/browse/windows/{key}/prev", browse.Retreat).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/browse/viewport", browse.Resize).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/browse/{kind}/{category}", browse.Category).Methods(http.MethodGet, http.MethodOptions)

	users := apiRouter.PathPrefix("/users/{userID}").Subrouter()
	users.HandleFunc("/watchlist/check", watchlistHandler.Check).Methods(http.MethodGet, http.MethodOptions)
	users.HandleFunc("/watchlist/all", watchlistHandler.Clear).Methods(http.MethodDelete, http.MethodOptions)
	users.HandleFunc("/watchlist", watchlistHandler.List).Methods(http.MethodGet)
	users.HandleFunc("/watchlist", watchlistHandler.Add).Methods(http.MethodPost)
	users.HandleFunc("/watchlist", watchlistHandler.Remove).Methods(http.MethodDelete)
	users.HandleFunc("/watchlist", watchlistHandler.Options).Methods(http.MethodOptions)

	server := &http.Server{
		Addr:         ":" + cfg.port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	log.Printf("[startup] listening on :%s", cfg.port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("[startup] server stopped: %v", err)
	}
}
