// Package handlers contains the HTTP endpoint groups, one per entity. Every
// handler validates input, calls the store, and shapes the JSON envelope.
// Success envelopes always carry success:true; responses answered by the
// in-memory demo store additionally carry mode:"demo".
package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

// ok merges the standard success fields into body and writes it.
func ok(c *fiber.Ctx, st store.Store, code int, body fiber.Map) error {
	body["success"] = true
	if st.Demo() {
		body["mode"] = "demo"
	}
	return c.Status(code).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func missingFields(c *fiber.Ctx, fields []string) error {
	return badRequest(c, "Missing required fields: "+strings.Join(fields, ", "))
}

// storeError maps store sentinels to their status codes and hides everything
// else behind a generic 500 with a short diagnostic.
func storeError(c *fiber.Ctx, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: notFoundMsg})
	case errors.Is(err, store.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, store.ErrClientHasProjects):
		return badRequest(c, err.Error())
	default:
		slog.Error("store operation failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error: " + shortDiagnostic(err),
		})
	}
}

func shortDiagnostic(err error) string {
	msg := err.Error()
	if len(msg) > 120 {
		msg = msg[:120]
	}
	return msg
}
