package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

type ClientHandler struct {
	store store.Store
}

func NewClientHandler(st store.Store) *ClientHandler {
	return &ClientHandler{store: st}
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
	clients, err := h.store.ListClients(c.Context(), store.ClientFilter{
		AssignedTeamID: c.Query("teamId"),
		Limit:          c.QueryInt("limit", 0),
	})
	if err != nil {
		return storeError(c, err, "Client not found")
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"clients": clients,
		"total":   len(clients),
	})
}

func (h *ClientHandler) Get(c *fiber.Ctx) error {
	client, err := h.store.GetClient(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err, "Client not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"client": client})
}

func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return missingFields(c, missing)
	}

	client := &models.Client{
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		Phone:          req.Phone,
		Company:        req.Company,
		Logo:           req.Logo,
		AssignedTeamID: req.AssignedTeamID,
		AccessToken:    store.NewAccessToken(),
		CreatedBy:      req.CreatedBy,
	}
	if err := h.store.CreateClient(c.Context(), client); err != nil {
		return storeError(c, err, "Client not found")
	}

	return ok(c, h.store, fiber.StatusCreated, fiber.Map{
		"clientId":    client.ID,
		"accessToken": client.AccessToken,
		"message":     "Client created",
	})
}

func (h *ClientHandler) Update(c *fiber.Ctx) error {
	var upd store.ClientUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.store.UpdateClient(c.Context(), c.Params("id"), upd); err != nil {
		return storeError(c, err, "Client not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Client updated"})
}

func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteClient(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err, "Client not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Client deleted"})
}
