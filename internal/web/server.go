// Package web provides the HTTP server and JSON/CSV handlers for the
// gift-set planner.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shanshui/giftplanner/internal/catalog"
	"github.com/shanshui/giftplanner/internal/config"
	"github.com/shanshui/giftplanner/internal/recommend"
	ownmw "github.com/shanshui/giftplanner/internal/web/middleware"
)

// Server is the HTTP server for the planner API.
type Server struct {
	service *catalog.Service
	recos   *recommend.Client // nil when the feature is not configured
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server. recos may be nil when no recommendation
// service is configured; the endpoint then reports the feature disabled.
func NewServer(service *catalog.Service, recos *recommend.Client, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		recos:   recos,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(ownmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Product library
		r.Get("/products", s.handleListProducts)
		r.Post("/products", s.handleCreateProduct)
		r.Put("/products/{productID}", s.handleUpdateProduct)
		r.Delete("/products/{productID}", s.handleDeleteProduct)
		r.Post("/products/import", s.handleImport)
		r.Get("/categories", s.handleCategories)

		// Gift sets
		r.Get("/sets", s.handleListSets)
		r.Post("/sets", s.handleCreateSet)
		r.Get("/sets/{setID}", s.handleGetSet)
		r.Delete("/sets/{setID}", s.handleDeleteSet)
		r.Get("/sets/{setID}/breakdown", s.handleBreakdown)
		r.Get("/sets/{setID}/export", s.handleExport)

		// Tiers
		r.Post("/sets/{setID}/tiers", s.handleCreateTier)
		r.Put("/sets/{setID}/tiers/{tierID}", s.handleUpdateTier)
		r.Delete("/sets/{setID}/tiers/{tierID}", s.handleDeleteTier)
		r.Post("/sets/{setID}/tiers/{tierID}/selections", s.handleAddSelection)
		r.Delete("/sets/{setID}/tiers/{tierID}/selections/{index}", s.handleRemoveSelection)
		r.Post("/sets/{setID}/tiers/{tierID}/recommendations", s.handleRecommend)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists || time.Since(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
