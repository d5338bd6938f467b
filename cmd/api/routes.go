package main

import (
	"net/http"

	"coffee-shop/internal/config"
	"coffee-shop/internal/httpapi"

	"github.com/rs/cors"
)

// newHandler builds the API router and wraps it in CORS.
// Keep this file free of business logic; routes live in internal/httpapi.
func newHandler(cfg config.CORSConfig, deps httpapi.Deps) http.Handler {
	r := httpapi.NewRouter(deps)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		// Bearer tokens travel in a header, never in cookies.
		AllowCredentials: false,
	})
	return c.Handler(r)
}
