package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/wonny/statusboard/internal/api/handlers"
	"github.com/wonny/statusboard/internal/realtime"
	"github.com/wonny/statusboard/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// SSOT: routing is configured only here
func NewRouter(dashboard *handlers.DashboardHandler, hub *realtime.Hub, allowedOrigins []string, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Server-rendered dashboard page
	r.HandleFunc("/", dashboard.GetPage).Methods("GET")

	// API. Registered flat: a subrouter's inherited prefix matcher clears
	// the method-mismatch flag when scanning sibling routes, which turns
	// 405s into 404s for every route but the last.
	r.HandleFunc("/api/dashboard", dashboard.GetDashboard).Methods("GET")
	r.HandleFunc("/api/states", dashboard.GetStates).Methods("GET")
	r.HandleFunc("/api/export", dashboard.ExportCSV).Methods("GET")
	r.HandleFunc("/api/refresh", dashboard.Refresh).Methods("POST")

	// Refresh notifications
	r.Handle("/ws", hub).Methods("GET")

	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST"},
	})

	return c.Handler(r)
}

// methodNotAllowedHandler answers a known path hit with the wrong method
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Method not allowed",
	})
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "statusboard",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
