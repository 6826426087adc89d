package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Shadownc/favicon-api/internal/handler"
	"github.com/Shadownc/favicon-api/internal/metrics"
)

func setupRouter(faviconHandler *handler.FaviconHandler, metricsCollector *metrics.Collector, cacheEntries func() int) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(faviconHandler.LogRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/", faviconHandler.Status)
	r.Get("/healthz", faviconHandler.Healthz)
	r.Get("/metrics", metricsCollector.Handler(cacheEntries))

	r.Get("/favicon", faviconHandler.Redirect)
	r.Get("/favicon/{file}", faviconHandler.Icon)
	r.Head("/favicon/{file}", faviconHandler.Icon)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	return r
}
