package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jekabolt/farmgoods-reports/internal/middleware"
	"github.com/jekabolt/farmgoods-reports/internal/ratelimit"
	"github.com/jekabolt/farmgoods-reports/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Config is the configuration for the http server
type Config struct {
	Port           string        `mapstructure:"port"`
	Address        string        `mapstructure:"address"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// GenerateLimit caps report generations per client IP and minute, zero
	// disables the cap.
	GenerateLimit int `mapstructure:"generate_limit"`
}

const defaultRequestTimeout = 2 * time.Minute

// Reports is the report service as the API uses it.
type Reports interface {
	dependency.Reports
	// Location is the zone of request dates without an explicit timezone.
	Location() *time.Location
}

// Server is the http server
type Server struct {
	hs      *http.Server
	c       *Config
	reports Reports
	files   dependency.FileStore
	auth    *jwtauth.JWTAuth
	limiter *ratelimit.Limiter
	done    chan struct{}
}

// New creates a new server. files and auth are optional: without files the
// export upload is refused, without auth the report routes are open.
func New(config *Config, reports Reports, files dependency.FileStore, auth *jwtauth.JWTAuth) *Server {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	s := &Server{
		c:       config,
		reports: reports,
		files:   files,
		auth:    auth,
		done:    make(chan struct{}),
	}
	if config.GenerateLimit > 0 {
		s.limiter = ratelimit.NewLimiter(time.Minute, config.GenerateLimit)
	}
	return s
}

// Done returns a channel that is closed when the http server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Handler is the full router with cors and h2c applied.
func (s *Server) Handler() http.Handler {
	return s.cors(h2c.NewHandler(s.router(), &http2.Server{}))
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIdentifier)
	r.Use(log.Requests)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/reports", func(r chi.Router) {
		if s.auth != nil {
			r.Use(jwtauth.Verifier(s.auth))
			r.Use(jwtauth.Authenticator)
		}
		r.Use(chimw.Timeout(s.c.RequestTimeout))

		r.With(s.limitGenerations).Post("/", s.generateReport)
		r.Get("/current", s.currentReport)
		r.Get("/current/drilldown/{kind}/{key}", s.drilldown)
		r.Get("/current/export", s.exportReport)
	})

	return r
}

func (s *Server) limitGenerations(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(func(r *http.Request) string {
		return middleware.GetClientIP(r.Context())
	})(next)
}

// Start starts the server
func (s *Server) Start(ctx context.Context) error {
	listenerAddr := fmt.Sprintf("%s:%s", s.c.Address, s.c.Port)
	s.hs = &http.Server{
		Addr:              listenerAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Default().InfoContext(ctx, fmt.Sprintf("farm reports new listener on: http://%v", listenerAddr))
		err := s.hs.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			slog.Default().InfoContext(ctx, "http server returned")
		} else {
			slog.Default().ErrorContext(ctx, "http server exited with an error",
				slog.String("err", err.Error()),
			)
		}
		close(s.done)
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	if s.hs == nil {
		return fmt.Errorf("http server is not started")
	}
	return s.hs.Shutdown(ctx)
}

// cors adds Cross Origin Resource Sharing headers for the admin console
// origins.
// https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS
func (s *Server) cors(h http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if isOriginAllowed(origin, s.c.AllowedOrigins) {
				return true
			}
			slog.Default().InfoContext(r.Context(), "origin not allowed",
				slog.String("origin", origin),
			)
			return false
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(h)
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	// Always allow localhost origins
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "https://localhost:") {
		return true
	}

	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || origin == allowedOrigin {
			return true
		}
	}

	return false
}
