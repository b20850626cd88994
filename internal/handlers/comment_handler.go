package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/notify"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

type CommentHandler struct {
	store      store.Store
	dispatcher *notify.Dispatcher
}

func NewCommentHandler(st store.Store, dispatcher *notify.Dispatcher) *CommentHandler {
	return &CommentHandler{store: st, dispatcher: dispatcher}
}

func (h *CommentHandler) List(c *fiber.Ctx) error {
	comments, err := h.store.ListComments(c.Context(), store.CommentFilter{
		FeedbackID: c.Query("feedbackId"),
		Limit:      c.QueryInt("limit", 0),
	})
	if err != nil {
		return storeError(c, err, "Comment not found")
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"comments": comments,
		"total":    len(comments),
	})
}

func (h *CommentHandler) Get(c *fiber.Ctx) error {
	cm, err := h.store.GetComment(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err, "Comment not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"comment": cm})
}

func (h *CommentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var missing []string
	if req.FeedbackID == "" {
		missing = append(missing, "feedbackId")
	}
	if req.Content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return missingFields(c, missing)
	}

	cm := &models.Comment{
		FeedbackID:  req.FeedbackID,
		Content:     req.Content,
		Attachments: req.Attachments,
		Mentions:    models.ExtractMentions(req.Content, req.Mentions),
		AuthorID:    req.AuthorID,
		AuthorRole:  req.AuthorRole,
	}
	if err := h.store.CreateComment(c.Context(), cm); err != nil {
		return storeError(c, err, "Feedback not found")
	}

	notifyCommentCreated(c, h.store, h.dispatcher, cm)

	return ok(c, h.store, fiber.StatusCreated, fiber.Map{
		"commentId": cm.ID,
		"mentions":  cm.Mentions,
		"message":   "Comment added",
	})
}

func (h *CommentHandler) Update(c *fiber.Ctx) error {
	var upd store.CommentUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.store.UpdateComment(c.Context(), c.Params("id"), upd); err != nil {
		return storeError(c, err, "Comment not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Comment updated"})
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteComment(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err, "Comment not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Comment deleted"})
}

// notifyCommentCreated fans out comment.created, notifies the feedback author,
// and resolves @mentions against user names for in-app mention notifications.
// Shared by the authenticated and the public comment paths.
func notifyCommentCreated(c *fiber.Ctx, st store.Store, dispatcher *notify.Dispatcher, cm *models.Comment) {
	fb, err := st.GetFeedback(c.Context(), cm.FeedbackID)
	if err != nil {
		return
	}

	dispatcher.Dispatch(notify.NewEvent("comment.created", map[string]any{
		"feedbackTitle": fb.Title,
		"content":       cm.Content,
		"mentions":      cm.Mentions,
	}, &notify.Metadata{
		TriggeredBy: cm.AuthorID,
		ProjectID:   fb.ProjectID,
		FeedbackID:  fb.ID,
	}))

	if fb.CreatedBy != "" && fb.CreatedBy != cm.AuthorID {
		_ = st.CreateNotification(c.Context(), &models.Notification{
			UserID:     fb.CreatedBy,
			Type:       models.NotifyNewComment,
			Title:      "New comment",
			Message:    fmt.Sprintf("New comment on feedback #%d: %s", fb.Number, fb.Title),
			FeedbackID: fb.ID,
			ProjectID:  fb.ProjectID,
		})
	}

	if len(cm.Mentions) == 0 {
		return
	}
	users, err := st.ListUsers(c.Context(), store.UserFilter{Limit: 200})
	if err != nil {
		return
	}
	mentioned := make(map[string]bool, len(cm.Mentions))
	for _, m := range cm.Mentions {
		mentioned[strings.ToLower(m)] = true
	}
	for _, u := range users {
		if u.ID == cm.AuthorID || !mentioned[strings.ToLower(u.Name)] {
			continue
		}
		_ = st.CreateNotification(c.Context(), &models.Notification{
			UserID:     u.ID,
			Type:       models.NotifyMention,
			Title:      "You were mentioned",
			Message:    fmt.Sprintf("You were mentioned on feedback #%d: %s", fb.Number, fb.Title),
			FeedbackID: fb.ID,
			ProjectID:  fb.ProjectID,
		})
	}
}
