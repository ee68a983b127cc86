package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:8081",      // Expo dev server
	"http://localhost:19006",     // Expo web dev
	"https://app.roomly.app",     // production web shell
	"https://staging.roomly.app", // staging web shell
}

// CORS returns middleware that applies the API's allowed origin policy,
// including the OPTIONS preflight the mobile web shell sends before dispatch.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
