package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/notify"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

// PublicHandler serves the unauthenticated review flow. Every route is
// authorized solely by the project's public access token.
type PublicHandler struct {
	store      store.Store
	dispatcher *notify.Dispatcher
}

func NewPublicHandler(st store.Store, dispatcher *notify.Dispatcher) *PublicHandler {
	return &PublicHandler{store: st, dispatcher: dispatcher}
}

// resolveProject loads the project behind :token, refusing when public access
// is disabled. Disabled and unknown tokens are indistinguishable to callers.
func (h *PublicHandler) resolveProject(c *fiber.Ctx) (*models.Project, error) {
	project, err := h.store.GetProjectByToken(c.Context(), c.Params("token"))
	if err != nil {
		return nil, err
	}
	if !project.PublicAccessEnabled {
		return nil, store.ErrNotFound
	}
	return project, nil
}

func (h *PublicHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.resolveProject(c)
	if err != nil {
		return storeError(c, err, "Project not found")
	}
	// Trimmed view: no internal assignments, no token echo.
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"project": fiber.Map{
			"id":      project.ID,
			"name":    project.Name,
			"siteUrl": project.SiteURL,
			"status":  project.Status,
		},
	})
}

func (h *PublicHandler) ListFeedbacks(c *fiber.Ctx) error {
	project, err := h.resolveProject(c)
	if err != nil {
		return storeError(c, err, "Project not found")
	}
	feedbacks, err := h.store.ListFeedbacks(c.Context(), store.FeedbackFilter{
		ProjectID: project.ID,
		Limit:     c.QueryInt("limit", 0),
	})
	if err != nil {
		return storeError(c, err, "Project not found")
	}
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"feedbacks": feedbacks,
		"total":     len(feedbacks),
	})
}

func (h *PublicHandler) CreateFeedback(c *fiber.Ctx) error {
	project, err := h.resolveProject(c)
	if err != nil {
		return storeError(c, err, "Project not found")
	}

	var req dto.CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Title == "" {
		return missingFields(c, []string{"title"})
	}

	fb := &models.Feedback{
		ProjectID:     project.ID,
		Title:         req.Title,
		Description:   req.Description,
		Screenshot:    req.Screenshot,
		Attachments:   req.Attachments,
		ClickPosition: req.ClickPosition,
		AudioURL:      req.AudioURL,
		Priority:      req.Priority,
		CreatedBy:     req.CreatedBy,
	}
	if err := h.store.CreateFeedback(c.Context(), fb); err != nil {
		return storeError(c, err, "Project not found")
	}

	h.dispatcher.Dispatch(notify.NewEvent("feedback.created", map[string]any{
		"number":   fb.Number,
		"title":    fb.Title,
		"status":   fb.Status,
		"priority": fb.Priority,
	}, &notify.Metadata{
		ProjectID:  project.ID,
		FeedbackID: fb.ID,
	}))

	return ok(c, h.store, fiber.StatusCreated, fiber.Map{
		"feedbackId": fb.ID,
		"number":     fb.Number,
		"message":    "Feedback created",
	})
}

func (h *PublicHandler) CreateComment(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Content == "" {
		return missingFields(c, []string{"content"})
	}

	fb, err := h.store.GetFeedback(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err, "Feedback not found")
	}
	project, err := h.store.GetProjectByToken(c.Context(), c.Params("token"))
	if err != nil || !project.PublicAccessEnabled || project.ID != fb.ProjectID {
		return storeError(c, store.ErrNotFound, "Project not found")
	}

	cm := &models.Comment{
		FeedbackID: fb.ID,
		Content:    req.Content,
		Mentions:   models.ExtractMentions(req.Content, req.Mentions),
		AuthorRole: models.RoleClient,
	}
	if err := h.store.CreateComment(c.Context(), cm); err != nil {
		return storeError(c, err, "Feedback not found")
	}

	notifyCommentCreated(c, h.store, h.dispatcher, cm)

	return ok(c, h.store, fiber.StatusCreated, fiber.Map{
		"commentId": cm.ID,
		"message":   "Comment added",
	})
}
