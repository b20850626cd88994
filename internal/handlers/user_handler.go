package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

type UserHandler struct {
	store store.Store
}

func NewUserHandler(st store.Store) *UserHandler {
	return &UserHandler{store: st}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.store.ListUsers(c.Context(), store.UserFilter{
		Role:     models.Role(c.Query("role")),
		TeamID:   c.Query("teamId"),
		ClientID: c.Query("clientId"),
		Limit:    c.QueryInt("limit", 0),
	})
	if err != nil {
		return storeError(c, err, "User not found")
	}
	if users == nil {
		users = []models.User{}
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"users": users,
		"total": len(users),
	})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.store.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err, "User not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"user": user})
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var missing []string
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return missingFields(c, missing)
	}
	if req.Role == "" {
		req.Role = models.RoleTeam
	}
	if !req.Role.Valid() {
		return badRequest(c, "Invalid role: "+string(req.Role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return storeError(c, err, "User not found")
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		Name:         req.Name,
		Role:         req.Role,
		TeamID:       req.TeamID,
		ClientID:     req.ClientID,
		PasswordHash: string(hash),
	}
	if err := h.store.CreateUser(c.Context(), user); err != nil {
		return storeError(c, err, "User not found")
	}

	return ok(c, h.store, fiber.StatusCreated, fiber.Map{
		"userId":  user.ID,
		"message": "User created",
	})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var upd store.UserUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if upd.Role != nil && !upd.Role.Valid() {
		return badRequest(c, "Invalid role: "+string(*upd.Role))
	}
	if err := h.store.UpdateUser(c.Context(), c.Params("id"), upd); err != nil {
		return storeError(c, err, "User not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "User updated"})
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteUser(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err, "User not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "User deleted"})
}
