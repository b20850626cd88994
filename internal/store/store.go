// Package store provides the persistence layer behind the review API. Two
// implementations exist: a Firestore-backed store used when service-account
// credentials are configured, and an in-memory store used for demo and test
// runs. Callers see identical behavior from both.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/pinpointlabs/pinpoint-backend/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEmailTaken        = errors.New("email already in use")
	ErrClientHasProjects = errors.New("client still has projects assigned")
)

// Store is the uniform persistence contract over the six entity collections.
// Create calls fill in server-assigned fields (ID, timestamps, feedback
// number) on the passed entity. Update calls apply only the supplied fields
// and always advance UpdatedAt where the entity carries one.
type Store interface {
	// Demo reports whether this store is the in-memory fallback. Handlers
	// tag responses from a demo store with mode:"demo".
	Demo() bool
	Close() error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, error)

	CreateClient(ctx context.Context, cl *models.Client) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	UpdateClient(ctx context.Context, id string, upd ClientUpdate) error
	// DeleteClient refuses with ErrClientHasProjects while any project still
	// references the client.
	DeleteClient(ctx context.Context, id string) error
	ListClients(ctx context.Context, f ClientFilter) ([]models.Client, error)

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectByToken(ctx context.Context, token string) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, upd ProjectUpdate) error
	// DeleteProject removes the project and every feedback referencing it in
	// one atomic unit, returning the number of feedbacks removed.
	DeleteProject(ctx context.Context, id string) (int, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, error)

	// CreateFeedback assigns Number = max existing number in the project + 1.
	CreateFeedback(ctx context.Context, fb *models.Feedback) error
	GetFeedback(ctx context.Context, id string) (*models.Feedback, error)
	UpdateFeedback(ctx context.Context, id string, upd FeedbackUpdate) error
	DeleteFeedback(ctx context.Context, id string) error
	ListFeedbacks(ctx context.Context, f FeedbackFilter) ([]models.Feedback, error)

	// CreateComment also bumps the parent feedback's UpdatedAt.
	CreateComment(ctx context.Context, cm *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	UpdateComment(ctx context.Context, id string, upd CommentUpdate) error
	DeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, f NotificationFilter) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	DeleteNotification(ctx context.Context, id string) error
}

// Update structs carry one pointer per mutable field; nil means "leave as is".
// They double as PATCH body parse targets.

type UserUpdate struct {
	Name        *string      `json:"name"`
	Role        *models.Role `json:"role"`
	TeamID      *string      `json:"teamId"`
	ClientID    *string      `json:"clientId"`
	LastLoginAt *time.Time   `json:"-"`
}

type ClientUpdate struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Company        *string `json:"company"`
	Logo           *string `json:"logo"`
	AssignedTeamID *string `json:"assignedTeamId"`
}

type ProjectUpdate struct {
	Name                *string               `json:"name"`
	Description         *string               `json:"description"`
	SiteURL             *string               `json:"siteUrl"`
	ClientID            *string               `json:"clientId"`
	TeamID              *string               `json:"teamId"`
	Status              *models.ProjectStatus `json:"status"`
	PublicAccessEnabled *bool                 `json:"publicAccessEnabled"`
}

type FeedbackUpdate struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *models.FeedbackStatus `json:"status"`
	StatusNote  *string                `json:"statusNote"`
	Priority    *models.Priority       `json:"priority"`
	AssignedTo  *string                `json:"assignedTo"`
	Deadline    *time.Time             `json:"deadline"`
	AfterImage  *string                `json:"afterImage"`
	AudioURL    *string                `json:"audioUrl"`

	// ChangedBy attributes the status-history entry when Status is supplied.
	ChangedBy string `json:"changedBy"`
}

type CommentUpdate struct {
	Content     *string   `json:"content"`
	Mentions    *[]string `json:"mentions"`
	Attachments *[]string `json:"attachments"`
}

// Filters are exact-match predicate sets; zero values mean "no constraint".
// Limit is applied after filtering; zero picks the per-entity default.

type UserFilter struct {
	Role     models.Role
	TeamID   string
	ClientID string
	Limit    int
}

type ClientFilter struct {
	AssignedTeamID string
	Limit          int
}

type ProjectFilter struct {
	Status   models.ProjectStatus
	ClientID string
	TeamID   string
	Limit    int
}

type FeedbackFilter struct {
	ProjectID  string
	Status     models.FeedbackStatus
	AssignedTo string
	Limit      int
}

type CommentFilter struct {
	FeedbackID string
	Limit      int
}

type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
}

const (
	defaultListLimit         = 50
	defaultCommentLimit      = 100
	defaultNotificationLimit = 20
)

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

// NewAccessToken returns a 64-character lowercase hex secret. These tokens
// are the sole credential for public project links.
func NewAccessToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("store: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// applyStatusChange folds a status update into the feedback, recording
// history and completion time. Returns true when the status actually changed.
func applyStatusChange(fb *models.Feedback, to models.FeedbackStatus, changedBy, note string, now time.Time) bool {
	if fb.Status == to {
		return false
	}
	fb.StatusHistory = append(fb.StatusHistory, models.StatusChange{
		FromStatus: fb.Status,
		ToStatus:   to,
		ChangedBy:  changedBy,
		ChangedAt:  now,
		Note:       note,
	})
	fb.Status = to
	if to == models.FeedbackCompleted {
		fb.CompletedAt = &now
	} else {
		fb.CompletedAt = nil
	}
	return true
}
