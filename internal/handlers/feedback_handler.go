package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/notify"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

type FeedbackHandler struct {
	store      store.Store
	dispatcher *notify.Dispatcher
}

func NewFeedbackHandler(st store.Store, dispatcher *notify.Dispatcher) *FeedbackHandler {
	return &FeedbackHandler{store: st, dispatcher: dispatcher}
}

func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	feedbacks, err := h.store.ListFeedbacks(c.Context(), store.FeedbackFilter{
		ProjectID:  c.Query("projectId"),
		Status:     models.FeedbackStatus(c.Query("status")),
		AssignedTo: c.Query("assignedTo"),
		Limit:      c.QueryInt("limit", 0),
	})
	if err != nil {
		return storeError(c, err, "Feedback not found")
	}
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"feedbacks": feedbacks,
		"total":     len(feedbacks),
	})
}

func (h *FeedbackHandler) Get(c *fiber.Ctx) error {
	fb, err := h.store.GetFeedback(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err, "Feedback not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"feedback": fb})
}

func (h *FeedbackHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var missing []string
	if req.ProjectID == "" {
		missing = append(missing, "projectId")
	}
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return missingFields(c, missing)
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return badRequest(c, "Invalid priority: "+string(req.Priority))
	}

	fb := &models.Feedback{
		ProjectID:     req.ProjectID,
		Title:         req.Title,
		Description:   req.Description,
		Screenshot:    req.Screenshot,
		Attachments:   req.Attachments,
		ClickPosition: req.ClickPosition,
		AudioURL:      req.AudioURL,
		Priority:      req.Priority,
		Deadline:      req.Deadline,
		AssignedTo:    req.AssignedTo,
		CreatedBy:     req.CreatedBy,
	}
	if err := h.store.CreateFeedback(c.Context(), fb); err != nil {
		return storeError(c, err, "Project not found")
	}

	h.notifyCreated(c, fb)

	return ok(c, h.store, fiber.StatusCreated, fiber.Map{
		"feedbackId": fb.ID,
		"number":     fb.Number,
		"message":    "Feedback created",
	})
}

func (h *FeedbackHandler) Update(c *fiber.Ctx) error {
	var upd store.FeedbackUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return badRequest(c, "Invalid feedback status: "+string(*upd.Status))
	}
	if upd.Priority != nil && !upd.Priority.Valid() {
		return badRequest(c, "Invalid priority: "+string(*upd.Priority))
	}

	id := c.Params("id")
	var before *models.Feedback
	if upd.Status != nil {
		fb, err := h.store.GetFeedback(c.Context(), id)
		if err != nil {
			return storeError(c, err, "Feedback not found")
		}
		before = fb
	}

	if err := h.store.UpdateFeedback(c.Context(), id, upd); err != nil {
		return storeError(c, err, "Feedback not found")
	}

	if before != nil && *upd.Status != before.Status {
		h.notifyStatusChanged(c, before, *upd.Status, upd.ChangedBy)
	}

	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Feedback updated"})
}

func (h *FeedbackHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteFeedback(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err, "Feedback not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Feedback deleted"})
}

// notifyCreated fans out feedback.created and leaves an in-app notification
// for the project owner. Failures never reach the caller.
func (h *FeedbackHandler) notifyCreated(c *fiber.Ctx, fb *models.Feedback) {
	h.dispatcher.Dispatch(notify.NewEvent("feedback.created", map[string]any{
		"number":   fb.Number,
		"title":    fb.Title,
		"status":   fb.Status,
		"priority": fb.Priority,
	}, &notify.Metadata{
		TriggeredBy: fb.CreatedBy,
		ProjectID:   fb.ProjectID,
		FeedbackID:  fb.ID,
	}))

	project, err := h.store.GetProject(c.Context(), fb.ProjectID)
	if err != nil || project.CreatedBy == "" || project.CreatedBy == fb.CreatedBy {
		return
	}
	_ = h.store.CreateNotification(c.Context(), &models.Notification{
		UserID:     project.CreatedBy,
		Type:       models.NotifyNewFeedback,
		Title:      "New feedback",
		Message:    fmt.Sprintf("Feedback #%d reported on %s: %s", fb.Number, project.Name, fb.Title),
		FeedbackID: fb.ID,
		ProjectID:  fb.ProjectID,
	})
}

func (h *FeedbackHandler) notifyStatusChanged(c *fiber.Ctx, before *models.Feedback, to models.FeedbackStatus, changedBy string) {
	h.dispatcher.Dispatch(notify.NewEvent("feedback.status_changed", map[string]any{
		"number":     before.Number,
		"title":      before.Title,
		"fromStatus": before.Status,
		"toStatus":   to,
	}, &notify.Metadata{
		TriggeredBy: changedBy,
		ProjectID:   before.ProjectID,
		FeedbackID:  before.ID,
	}))

	if before.CreatedBy == "" || before.CreatedBy == changedBy {
		return
	}
	_ = h.store.CreateNotification(c.Context(), &models.Notification{
		UserID:     before.CreatedBy,
		Type:       models.NotifyStatusChange,
		Title:      "Feedback status changed",
		Message:    fmt.Sprintf("Feedback #%d moved from %s to %s", before.Number, before.Status, to),
		FeedbackID: before.ID,
		ProjectID:  before.ProjectID,
	})
}
