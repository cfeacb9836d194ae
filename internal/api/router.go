package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/optsignals/internal/api/handlers"
	"github.com/wonny/optsignals/pkg/logger"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Signal *handlers.SignalHandler
	Auth   *handlers.AuthHandler
	Status *handlers.StatusHandler

	// WebSocket upgrade endpoint; optional
	Stream http.Handler

	// Allowed CORS origin; empty echoes the request origin
	FrontendURL string
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	r := mux.NewRouter()

	// Landing + health
	r.HandleFunc("/", h.Status.Index).Methods("GET")
	r.HandleFunc("/health", h.Status.Health).Methods("GET")

	// Broker auth
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("GET")
	r.HandleFunc("/auth/callback", h.Auth.Callback).Methods("GET", "POST")

	// API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/connection", h.Signal.GetConnection).Methods("GET")
	api.HandleFunc("/signal", h.Signal.GetSignal).Methods("GET")
	api.HandleFunc("/signals", h.Signal.GetSignals).Methods("GET")
	api.HandleFunc("/signals/history", h.Signal.GetHistory).Methods("GET")
	api.HandleFunc("/symbols", h.Signal.GetSymbols).Methods("GET")
	api.HandleFunc("/status", h.Status.Status).Methods("GET")
	api.HandleFunc("/greeks", handlers.GetGreeks).Methods("GET")

	// Realtime
	if h.Stream != nil {
		r.Handle("/ws/signals", h.Stream).Methods("GET")
	}

	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	// CORS sits outside mux so preflight requests never hit method matching
	return corsMiddleware(h.FrontendURL)(r)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Not found",
	})
}

// statusRecorder captures the response code for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rec.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
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

// corsMiddleware allows credentialed cross-origin calls. With no configured
// origin the request origin is echoed back, since "*" is rejected by browsers
// alongside credentials.
func corsMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := allowedOrigin
			if origin == "" {
				origin = r.Header.Get("Origin")
			}
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
