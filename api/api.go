package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/trail/pkg/engine"
	"github.com/papercomputeco/trail/pkg/store"
)

// Server is the API server for managing and querying trail sessions.
type Server struct {
	config Config
	repo   *store.Repository
	engine *engine.Engine
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The repository and engine are injected so they can be shared with other
// components (the watch loop, CLI-embedded servers).
func NewServer(config Config, repo *store.Repository, eng *engine.Engine, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		repo:   repo,
		engine: eng,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	app.Get("/sessions", s.handleListSessions)
	app.Post("/sessions", s.handleCreateSession)
	app.Get("/sessions/:id", s.handleGetSession)
	app.Delete("/sessions/:id", s.handleDeleteSession)

	app.Post("/sessions/:id/entities", s.handleAppendEntity)
	app.Post("/sessions/:id/memory", s.handleAppendMemory)
	app.Post("/sessions/:id/head", s.handleSetHead)
	app.Post("/sessions/:id/memory/:fragment/key", s.handleMarkKey)
	app.Post("/sessions/:id/transition", s.handleTransition)
	app.Post("/sessions/:id/tensions/:tension/resolve", s.handleResolveTension)
	app.Post("/sessions/:id/fork", s.handleFork)

	app.Get("/sessions/:id/budget", s.handleBudget)
	app.Post("/sessions/:id/compact", s.handleCompact)
	app.Get("/sessions/:id/resume", s.handleResume)
	app.Get("/sessions/:id/events", s.handleEvents)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
