package dto

import (
	"time"

	"github.com/pinpointlabs/pinpoint-backend/internal/models"
)

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Backend   string `json:"backend"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	TeamID   string      `json:"teamId"`
	ClientID string      `json:"clientId"`
}

type CreateClientRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Company        string `json:"company"`
	Logo           string `json:"logo"`
	AssignedTeamID string `json:"assignedTeamId"`
	CreatedBy      string `json:"createdBy"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SiteURL     string `json:"siteUrl"`
	ClientID    string `json:"clientId"`
	TeamID      string `json:"teamId"`
	CreatedBy   string `json:"createdBy"`
}

type CreateFeedbackRequest struct {
	ProjectID     string                `json:"projectId"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Screenshot    string                `json:"screenshot"`
	Attachments   []string              `json:"attachments"`
	ClickPosition *models.ClickPosition `json:"clickPosition"`
	AudioURL      string                `json:"audioUrl"`
	Priority      models.Priority       `json:"priority"`
	Deadline      *time.Time            `json:"deadline"`
	AssignedTo    string                `json:"assignedTo"`
	CreatedBy     string                `json:"createdBy"`
}

type CreateCommentRequest struct {
	FeedbackID  string      `json:"feedbackId"`
	Content     string      `json:"content"`
	Attachments []string    `json:"attachments"`
	Mentions    []string    `json:"mentions"`
	AuthorID    string      `json:"authorId"`
	AuthorRole  models.Role `json:"authorRole"`
}

type CreateNotificationRequest struct {
	UserID     string                  `json:"userId"`
	Type       models.NotificationType `json:"type"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	FeedbackID string                  `json:"feedbackId"`
	ProjectID  string                  `json:"projectId"`
}
