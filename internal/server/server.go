package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonathan/meucv/internal/editor"
	"github.com/jonathan/meucv/internal/notify"
	"github.com/jonathan/meucv/internal/server/ratelimit"
	"github.com/jonathan/meucv/internal/storage"
	"github.com/rs/cors"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	session     *editor.Session
	backend     storage.Backend
	toasts      *notify.Recorder
	rateLimiter *ratelimit.Limiter
	cors        *cors.Cors

	// stopping is closed when shutdown begins; open event streams end on it.
	stopping chan struct{}
	stopOnce sync.Once
}

// Config holds server configuration
type Config struct {
	Port    int
	Session *editor.Session
	// Backend is closed on shutdown, after the session has flushed.
	Backend storage.Backend
	// Toasts collects the notifications served by GET /notifications.
	Toasts         *notify.Recorder
	AllowedOrigins []string
	RateLimit      *ratelimit.Config
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("server: session is required")
	}
	if cfg.Toasts == nil {
		cfg.Toasts = notify.NewRecorder(0)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = ratelimit.LoadConfig()
	}

	s := &Server{
		session:     cfg.Session,
		backend:     cfg.Backend,
		toasts:      cfg.Toasts,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		cors: cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		}),
		stopping: make(chan struct{}),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // autosave event streams stay open
		IdleTimeout:  60 * time.Second,
	}
	s.httpServer.RegisterOnShutdown(s.stopStreams)

	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Current document
	mux.HandleFunc("GET /resume", s.handleGetResume)
	mux.HandleFunc("PUT /resume", s.handleReplaceResume)
	mux.HandleFunc("DELETE /resume", s.handleResetResume)
	mux.HandleFunc("PATCH /resume/{section}", s.handleUpdateSection)
	mux.HandleFunc("POST /resume/{section}/items", s.handleAddItem)
	mux.HandleFunc("PATCH /resume/{section}/items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /resume/{section}/items/{id}", s.handleRemoveItem)
	mux.HandleFunc("PUT /resume/section-order", s.handleReorderSections)

	// Saving
	mux.HandleFunc("POST /resume/save", s.handleSave)
	mux.HandleFunc("GET /resume/autosave", s.handleAutosaveState)
	mux.HandleFunc("GET /resume/autosave/events", s.handleAutosaveEvents)

	// Derived views
	mux.HandleFunc("GET /resume/score", s.handleScore)
	mux.HandleFunc("GET /resume/progress", s.handleProgress)
	mux.HandleFunc("GET /resume/preview", s.handlePreview)

	// Saved résumés
	mux.HandleFunc("GET /cvs", s.handleListCVs)
	mux.HandleFunc("POST /cvs", s.handleSaveCV)
	mux.HandleFunc("GET /cvs/{id}", s.handleOpenCV)
	mux.HandleFunc("POST /cvs/{id}/duplicate", s.handleDuplicateCV)
	mux.HandleFunc("DELETE /cvs/{id}", s.handleDeleteCV)

	// Preferences and toasts
	mux.HandleFunc("GET /preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /preferences", s.handlePutPreferences)
	mux.HandleFunc("GET /notifications", s.handleNotifications)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// stopStreams ends every open event stream.
func (s *Server) stopStreams() {
	s.stopOnce.Do(func() { close(s.stopping) })
}

// Shutdown stops accepting requests, writes the pending edit and releases the backend.
// The edit is written even when open connections outlive ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopStreams()
	shutdownErr := s.httpServer.Shutdown(ctx)
	if shutdownErr != nil {
		log.Printf("[server] http shutdown: %v", shutdownErr)
	}

	// The flush gets its own deadline so an expired ctx cannot drop the last edit.
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.session.Close(flushCtx); err != nil {
		log.Printf("[server] final save failed: %v", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			log.Printf("[server] closing storage: %v", err)
		}
	}
	if shutdownErr != nil {
		return fmt.Errorf("server shutdown failed: %w", shutdownErr)
	}
	log.Println("Server stopped")
	return nil
}

// withCORS answers preflight requests and adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return s.cors.Handler(next)
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, errorBody{Error: message})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
