package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/scratchpad"
	"github.com/papercomputeco/trail/pkg/session"
	"github.com/papercomputeco/trail/pkg/store"
)

// ErrorResponse is the JSON error payload for all non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// errStatus maps domain errors onto HTTP status codes. Anything unmapped is
// an internal error.
func errStatus(err error) int {
	var (
		notFound   store.NotFoundError
		exists     store.ExistsError
		conflict   store.ConflictError
		corrupt    store.CorruptRecordError
		invalidID  store.InvalidIDError
		transition session.InvalidTransitionError
		envelope   session.EnvelopeError
	)

	switch {
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &exists):
		return fiber.StatusConflict
	case errors.As(err, &conflict):
		return fiber.StatusConflict
	case errors.As(err, &corrupt):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &invalidID):
		return fiber.StatusBadRequest
	case errors.As(err, &transition):
		return fiber.StatusConflict
	case errors.As(err, &envelope):
		return fiber.StatusBadRequest
	case errors.Is(err, memory.ErrFragmentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrTensionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrTensionResolved):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := errStatus(err)
	if status == fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	records, err := s.repo.List(c.Context())
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"count":    len(records),
		"sessions": records,
	})
}

type createSessionRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	rec, err := s.repo.Create(c.Context(), req.ID, req.Title)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	rec, err := s.repo.Get(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(rec)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.repo.Delete(c.Context(), id); err != nil {
		return s.fail(c, err)
	}

	// The record and its watch go together. Without this the engine would
	// keep the fsnotify watch and subscriber channels alive forever.
	if s.engine != nil {
		s.engine.Unwatch(id)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleAppendEntity(c *fiber.Ctx) error {
	var env session.Envelope
	if err := c.BodyParser(&env); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	rec, err := s.repo.AppendEntity(c.Context(), c.Params("id"), env)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(rec)
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAppendMemory(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "text is required"})
	}

	rec, err := s.repo.AppendMemory(c.Context(), c.Params("id"), req.Text)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(rec)
}

func (s *Server) handleSetHead(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "text is required"})
	}

	rec, err := s.repo.SetHead(c.Context(), c.Params("id"), req.Text)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(rec)
}

func (s *Server) handleMarkKey(c *fiber.Ctx) error {
	rec, err := s.repo.MarkKey(c.Context(), c.Params("id"), c.Params("fragment"))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(rec)
}

type transitionRequest struct {
	To string `json:"to"`
}

func (s *Server) handleTransition(c *fiber.Ctx) error {
	var req transitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	to := session.Status(req.To)
	if !to.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "unknown status: " + req.To})
	}

	rec, err := s.repo.Transition(c.Context(), c.Params("id"), to)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(rec)
}

type resolveTensionRequest struct {
	Resolution string `json:"resolution"`
}

func (s *Server) handleResolveTension(c *fiber.Ctx) error {
	var req resolveTensionRequest
	if err := c.BodyParser(&req); err != nil || req.Resolution == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "resolution is required"})
	}

	rec, err := s.repo.ResolveTension(c.Context(), c.Params("id"), c.Params("tension"), req.Resolution)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(rec)
}

type forkRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (s *Server) handleFork(c *fiber.Ctx) error {
	var req forkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	child, err := s.repo.Fork(c.Context(), c.Params("id"), req.ID, req.Title)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(child)
}

func (s *Server) handleBudget(c *fiber.Ctx) error {
	snap, err := s.repo.Budget(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(snap)
}

func (s *Server) handleCompact(c *fiber.Ctx) error {
	var tier *memory.Tier
	if name := c.Query("tier"); name != "" {
		t, ok := memory.ParseTier(name)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "unknown tier: " + name})
		}
		tier = &t
	}

	if c.QueryBool("dry_run") {
		result, err := s.repo.SuggestCompact(c.Context(), c.Params("id"), tier)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(result)
	}

	result, err := s.repo.Compact(c.Context(), c.Params("id"), tier)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(result)
}

func (s *Server) handleResume(c *fiber.Ctx) error {
	rec, err := s.repo.Resume(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	payload := scratchpad.Project(rec, c.QueryInt("cap"), s.repo.Count(), scratchpad.Options{
		IncludeHistorical: c.QueryBool("include_historical"),
	})

	return c.JSON(payload)
}
