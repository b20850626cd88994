package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/notify"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

// IntegrationHandler exposes configuration checks and synchronous test sends
// for the outbound sinks.
type IntegrationHandler struct {
	store store.Store
	sinks map[string]notify.Sink
}

func NewIntegrationHandler(st store.Store, sinks ...notify.Sink) *IntegrationHandler {
	byName := make(map[string]notify.Sink, len(sinks))
	for _, s := range sinks {
		byName[s.Name()] = s
	}
	return &IntegrationHandler{store: st, sinks: byName}
}

func (h *IntegrationHandler) Status(c *fiber.Ctx) error {
	sink, found := h.sinks[c.Params("sink")]
	if !found {
		return storeError(c, store.ErrNotFound, "Unknown integration")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"integration": sink.Name(),
		"configured":  sink.IsConfigured(),
	})
}

func (h *IntegrationHandler) TestSend(c *fiber.Ctx) error {
	sink, found := h.sinks[c.Params("sink")]
	if !found {
		return storeError(c, store.ErrNotFound, "Unknown integration")
	}
	if !sink.IsConfigured() {
		return badRequest(c, sink.Name()+" integration is not configured")
	}

	delivered := sink.Send(notify.NewEvent("integration.test", map[string]any{
		"sentAt": time.Now().UTC().Format(time.RFC3339),
	}, nil))

	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"integration": sink.Name(),
		"delivered":   delivered,
	})
}
