// Package webhook serves the chat platform's webhook deliveries, a health
// check and the metrics endpoint.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Yates-Labs/fplab/internal/dedup"
	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot/models"
)

// Config holds the listener settings.
type Config struct {
	Port            int           `env:"PORT" envDefault:"8000"`
	Path            string        `env:"WEBHOOK_PATH" envDefault:"/webhook"`
	Secret          string        `env:"TELEGRAM_WEBHOOK_SECRET"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// RunTimeout bounds the handling of one update, LLM call included.
	RunTimeout time.Duration `env:"BOT_RUN_TIMEOUT" envDefault:"5m"`
	Debug           bool          `env:"LOG_DEVELOPMENT"`
}

// DefaultConfig listens on :8000 at /webhook.
func DefaultConfig() Config {
	return Config{
		Port:            8000,
		Path:            "/webhook",
		ShutdownTimeout: 10 * time.Second,
		RunTimeout:      5 * time.Minute,
	}
}

// Dispatcher handles a decoded update. *telegram.Bot satisfies it.
type Dispatcher interface {
	ProcessUpdate(ctx context.Context, update *models.Update)
}

// Server is the HTTP front door for updates.
type Server struct {
	cfg        Config
	router     *gin.Engine
	server     *http.Server
	dispatcher Dispatcher
	seen       dedup.Store
	log        logger.Logger
	metrics    *metrics.Metrics

	// base parents every dispatch; Run cancels it when shutdown gives up
	// waiting.
	base     context.Context
	stop     context.CancelFunc
	inflight sync.WaitGroup
}

// NewServer builds the router. m may be nil.
func NewServer(cfg Config, d Dispatcher, seen dedup.Store, log logger.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Path == "" {
		cfg.Path = "/webhook"
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		cfg.Path = "/" + cfg.Path
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log = log.With(logger.String("component", "webhook"))
	router := gin.New()
	router.Use(recoveryMiddleware(log))
	router.Use(loggerMiddleware(log))

	base, stop := context.WithCancel(context.Background())
	s := &Server{
		base:       base,
		stop:       stop,
		cfg:        cfg,
		router:     router,
		dispatcher: d,
		seen:       seen,
		log:        log,
		metrics:    m,
	}
	s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Bot is running!")
	})
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.router.POST(s.cfg.Path, s.handleUpdate)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully and waits
// for in-flight updates up to the shutdown timeout. Updates still running
// after that have their contexts cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server",
			logger.String("address", s.server.Addr),
			logger.String("webhook_path", s.cfg.Path),
		)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Context cancelled, shutting down")
	}

	// the run context is already cancelled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := s.Wait(shutdownCtx); err != nil {
		s.log.Warn("Updates still in flight at shutdown, cancelling", logger.Error(err))
		s.stop()
	}
	s.log.Info("HTTP server stopped gracefully")
	return nil
}

// Wait blocks until every dispatched update has been handled or ctx ends.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
