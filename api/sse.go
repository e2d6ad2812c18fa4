package api

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/trail/pkg/engine"
	"github.com/papercomputeco/trail/pkg/sse"
)

const (
	eventSessionUpdated = "session-updated"
	eventBudgetAlert    = "budget-alert"

	keepAliveInterval = 15 * time.Second
)

// handleEvents streams a session's settle events as SSE.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	sub, err := s.engine.Watch(c.Context(), sessionID)
	if err != nil {
		return s.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// io.Pipe + SetBodyStream rather than SetBodyStreamWriter: writes block
	// until fasthttp's chunked writer consumes them, which flushes each event
	// to the socket instead of buffering it.
	pr, pw := io.Pipe()
	go s.streamEvents(sessionID, sub, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamEvents(sessionID string, sub *engine.Subscription, pw *io.PipeWriter) {
	defer pw.Close()
	defer s.engine.Unsubscribe(sessionID, sub)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	updates := sub.Updates()
	alerts := sub.Alerts()

	for updates != nil || alerts != nil {
		select {
		case ev, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if err := writeJSONEvent(pw, eventSessionUpdated, ev); err != nil {
				return
			}

		case ev, ok := <-alerts:
			if !ok {
				alerts = nil
				continue
			}
			if err := writeJSONEvent(pw, eventBudgetAlert, ev); err != nil {
				return
			}

		case <-keepAlive.C:
			if err := sse.WriteComment(pw, "keep-alive"); err != nil {
				return
			}
		}
	}
}

func writeJSONEvent(w io.Writer, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return sse.WriteEvent(w, sse.Event{Type: eventType, Data: string(data)})
}
