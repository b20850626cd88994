package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

type NotificationHandler struct {
	store store.Store
}

func NewNotificationHandler(st store.Store) *NotificationHandler {
	return &NotificationHandler{store: st}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	notifications, err := h.store.ListNotifications(c.Context(), store.NotificationFilter{
		UserID:     c.Query("userId"),
		UnreadOnly: c.QueryBool("unread", false),
		Limit:      c.QueryInt("limit", 0),
	})
	if err != nil {
		return storeError(c, err, "Notification not found")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"notifications": notifications,
		"total":         len(notifications),
		"unread":        unread,
	})
}

func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var missing []string
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if req.Type == "" {
		missing = append(missing, "type")
	}
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return missingFields(c, missing)
	}

	n := &models.Notification{
		UserID:     req.UserID,
		Type:       req.Type,
		Title:      req.Title,
		Message:    req.Message,
		FeedbackID: req.FeedbackID,
		ProjectID:  req.ProjectID,
	}
	if err := h.store.CreateNotification(c.Context(), n); err != nil {
		return storeError(c, err, "Notification not found")
	}
	return ok(c, h.store, fiber.StatusCreated, fiber.Map{
		"notificationId": n.ID,
		"message":        "Notification created",
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.store.MarkNotificationRead(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err, "Notification not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return missingFields(c, []string{"userId"})
	}
	count, err := h.store.MarkAllNotificationsRead(c.Context(), userID)
	if err != nil {
		return storeError(c, err, "Notification not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"message": "Notifications marked as read",
		"updated": count,
	})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteNotification(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err, "Notification not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Notification deleted"})
}
