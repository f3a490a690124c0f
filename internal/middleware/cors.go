package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// DefaultCORSConfig returns the CORS policy for the JSON API. Origins come from config;
// an empty list allows no cross-origin callers.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		MaxAge:         300,
	}
}

// CORS returns a CORS middleware handler
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", AdminTokenHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           config.MaxAge,
	}

	// The library reads an empty origin list as "allow all"
	if len(config.AllowedOrigins) == 0 {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
	}

	return cors.Handler(opts)
}
