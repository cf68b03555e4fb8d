// Package dashboard serves the read-only auxiliary surface: a static
// status page, a health probe and prometheus metrics.
package dashboard

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/slime/internal/logging"
	"github.com/danmuck/slime/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ErrNotListening = errors.New("dashboard: listener not bound")
	ErrConfig       = errors.New("dashboard: invalid config")
)

//go:embed static/dashboard.html
var statusPage []byte

var healthBody = []byte(`{"status":"ok"}`)

const shutdownTimeout = 2 * time.Second

type Config struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Address: "127.0.0.1:8081",
	}
}

func (c Config) Validate() error {
	if c.Enabled && c.Address == "" {
		return fmt.Errorf("%w: empty address", ErrConfig)
	}
	return nil
}

type Server struct {
	cfg    Config
	router *gin.Engine
	logger zerolog.Logger

	mu sync.Mutex
	ln net.Listener
}

func New(cfg Config) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	logger := logging.Component("dashboard")
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware())
	_ = r.SetTrustedProxies(nil)

	s := &Server{cfg: cfg, router: r, logger: logger}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", statusPage)
	})
	s.router.GET("/health", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", healthBody)
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Listen() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve blocks until ctx is done and then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("dashboard_started")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
