package models

import "time"

type NotificationType string

const (
	NotifyMention             NotificationType = "mention"
	NotifyStatusChange        NotificationType = "status_change"
	NotifyNewComment          NotificationType = "new_comment"
	NotifyDeadlineApproaching NotificationType = "deadline_approaching"
	NotifyNewFeedback         NotificationType = "new_feedback"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID         string           `json:"id" firestore:"-"`
	UserID     string           `json:"userId" firestore:"userId"`
	Type       NotificationType `json:"type" firestore:"type"`
	Title      string           `json:"title" firestore:"title"`
	Message    string           `json:"message,omitempty" firestore:"message,omitempty"`
	FeedbackID string           `json:"feedbackId,omitempty" firestore:"feedbackId,omitempty"`
	ProjectID  string           `json:"projectId,omitempty" firestore:"projectId,omitempty"`
	Read       bool             `json:"read" firestore:"read"`
	CreatedAt  time.Time        `json:"createdAt" firestore:"createdAt"`
	ReadAt     *time.Time       `json:"readAt,omitempty" firestore:"readAt,omitempty"`
}
