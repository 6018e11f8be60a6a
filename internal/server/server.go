// Package server exposes the diagnosis pipeline as a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/ppiankov/medimatch/internal/pipeline"
	"github.com/ppiankov/medimatch/internal/worker"
	"github.com/sirupsen/logrus"
)

const (
	limiterPruneInterval = time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

// Server is the HTTP front end. The pipeline can be swapped while serving.
type Server struct {
	app      *fiber.App
	pipeline atomic.Pointer[pipeline.Pipeline]
	limiter  *worker.Limiter
	cfg      model.ServerConfig
	logger   logrus.FieldLogger
}

// New builds the fiber app with middleware and routes
func New(p *pipeline.Pipeline, cfg model.ServerConfig, logger logrus.FieldLogger) *Server {
	logger = logging.OrDiscard(logger)

	s := &Server{
		cfg:    cfg,
		logger: logger,
	}
	s.pipeline.Store(p)
	if cfg.RequestsPerSecond > 0 {
		s.limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	app := fiber.New(fiber.Config{
		AppName:               "medimatch",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${status} ${method} ${path} ${latency} ${locals:requestid}\n",
		Output: accessLog{logger: s.logger},
	}))

	registerRoutes(app, s)
	s.app = app

	return s
}

// SetPipeline atomically replaces the pipeline used by new requests
func (s *Server) SetPipeline(p *pipeline.Pipeline) {
	s.pipeline.Store(p)
}

func (s *Server) current() *pipeline.Pipeline {
	return s.pipeline.Load()
}

// Run listens on the configured address until ctx is done, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.cfg.Addr)
	}()

	if s.limiter != nil {
		go s.pruneLimiter(ctx)
	}

	s.logger.WithField("addr", s.cfg.Addr).Info("HTTP API listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP API")
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.limiter.Prune(limiterIdleTimeout); removed > 0 {
				s.logger.WithField("removed", removed).Debug("Pruned idle client limiters")
			}
		}
	}
}

// accessLog forwards fiber access lines to the structured logger
type accessLog struct {
	logger logrus.FieldLogger
}

func (w accessLog) Write(p []byte) (int, error) {
	w.logger.WithField("component", "http").Info(strings.TrimSpace(string(p)))
	return len(p), nil
}
