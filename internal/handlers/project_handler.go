package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
)

type ProjectHandler struct {
	store store.Store
}

func NewProjectHandler(st store.Store) *ProjectHandler {
	return &ProjectHandler{store: st}
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.store.ListProjects(c.Context(), store.ProjectFilter{
		Status:   models.ProjectStatus(c.Query("status")),
		ClientID: c.Query("clientId"),
		TeamID:   c.Query("teamId"),
		Limit:    c.QueryInt("limit", 0),
	})
	if err != nil {
		return storeError(c, err, "Project not found")
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"projects": projects,
		"total":    len(projects),
	})
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.store.GetProject(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err, "Project not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"project": project})
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.SiteURL == "" {
		missing = append(missing, "siteUrl")
	}
	if len(missing) > 0 {
		return missingFields(c, missing)
	}

	project := &models.Project{
		Name:              req.Name,
		Description:       req.Description,
		SiteURL:           req.SiteURL,
		ClientID:          req.ClientID,
		TeamID:            req.TeamID,
		Status:            models.ProjectActive,
		PublicAccessToken: store.NewAccessToken(),
		CreatedBy:         req.CreatedBy,
	}
	if err := h.store.CreateProject(c.Context(), project); err != nil {
		return storeError(c, err, "Project not found")
	}

	// The token is surfaced exactly once, here.
	return ok(c, h.store, fiber.StatusCreated, fiber.Map{
		"projectId":         project.ID,
		"publicAccessToken": project.PublicAccessToken,
		"message":           "Project created",
	})
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var upd store.ProjectUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return badRequest(c, "Invalid project status: "+string(*upd.Status))
	}
	if err := h.store.UpdateProject(c.Context(), c.Params("id"), upd); err != nil {
		return storeError(c, err, "Project not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{"message": "Project updated"})
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	deleted, err := h.store.DeleteProject(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err, "Project not found")
	}
	return ok(c, h.store, fiber.StatusOK, fiber.Map{
		"message":          "Project and associated feedbacks deleted",
		"deletedFeedbacks": deleted,
	})
}
