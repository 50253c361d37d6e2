// Package server exposes screening operations over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/authenticity"
	"github.com/spigell/cv-screener/internal/batch"
	"github.com/spigell/cv-screener/internal/filtering"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/matching"
	"github.com/spigell/cv-screener/internal/pipeline"
)

const requestIDHeader = "X-Request-ID"

// Parser runs the extraction pipeline for one document.
type Parser interface {
	Run(ctx context.Context, kind ai.Kind, text string) (*pipeline.Outcome, error)
}

type Deps struct {
	Parser       Parser
	Batch        *batch.Runner
	Matcher      *matching.Engine
	Filters      filtering.Config
	Authenticity *authenticity.Analyzer
	Logger       *zap.Logger
}

type Options struct {
	AppName     string
	BodyLimit   int
	ParseLimit  int
	ParseWindow time.Duration
	MatchLimit  int
	MatchWindow time.Duration
}

type Server struct {
	app    *fiber.App
	deps   Deps
	logger *zap.Logger
}

func New(deps Deps, opts Options) *Server {
	if opts.AppName == "" {
		opts.AppName = "cv-screener"
	}
	if deps.Matcher == nil {
		deps.Matcher = matching.New(matching.DefaultTiers())
	}

	s := &Server{deps: deps, logger: logger.WithFields(deps.Logger, zap.String("component", "http"))}

	s.app = fiber.New(fiber.Config{
		AppName:               opts.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          2 * time.Minute,
		BodyLimit:             opts.BodyLimit,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(s.accessLog)

	parseLimit := rateLimit(opts.ParseLimit, opts.ParseWindow)
	matchLimit := rateLimit(opts.MatchLimit, opts.MatchWindow)

	api := s.app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC(),
		})
	})
	api.Post("/parse", parseLimit, s.handleParse)
	api.Post("/jobs/analyze", parseLimit, s.handleAnalyzeJob)
	api.Post("/bulk", parseLimit, s.handleBulk)
	api.Post("/authenticity", parseLimit, s.handleAuthenticity)
	api.Post("/match", matchLimit, s.handleMatch)

	return s
}

// App exposes the underlying fiber app, mostly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDHeader, id)
	c.Locals("request_id", id)

	started := time.Now()
	err := c.Next()
	if err != nil {
		// Let the error handler write the status before it is logged.
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logger.Info("http request",
		zap.String("request_id", id),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(started)),
	)
	return nil
}

// rateLimit returns a per-IP limiter, or a pass-through handler when max is 0.
func rateLimit(limit int, window time.Duration) fiber.Handler {
	if limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "rate limit exceeded, try again later",
			})
		},
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}
