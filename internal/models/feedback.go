package models

import "time"

type FeedbackStatus string

const (
	FeedbackNew           FeedbackStatus = "new"
	FeedbackInReview      FeedbackStatus = "in_review"
	FeedbackInProgress    FeedbackStatus = "in_progress"
	FeedbackWaitingClient FeedbackStatus = "waiting_client"
	FeedbackRejected      FeedbackStatus = "rejected"
	FeedbackCompleted     FeedbackStatus = "completed"
)

func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackNew, FeedbackInReview, FeedbackInProgress,
		FeedbackWaitingClient, FeedbackRejected, FeedbackCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ClickPosition anchors a feedback pin to the exact spot the reporter clicked
// on the rendered page. Percentage coords survive viewport changes; the pixel
// coords, scroll offset and viewport let the UI reproduce the original view.
type ClickPosition struct {
	X                float64 `json:"x" firestore:"x"`
	Y                float64 `json:"y" firestore:"y"`
	XPx              float64 `json:"xPx,omitempty" firestore:"xPx,omitempty"`
	YPx              float64 `json:"yPx,omitempty" firestore:"yPx,omitempty"`
	PageURL          string  `json:"pageUrl,omitempty" firestore:"pageUrl,omitempty"`
	ScrollX          float64 `json:"scrollX,omitempty" firestore:"scrollX,omitempty"`
	ScrollY          float64 `json:"scrollY,omitempty" firestore:"scrollY,omitempty"`
	ViewportWidth    int     `json:"viewportWidth,omitempty" firestore:"viewportWidth,omitempty"`
	ViewportHeight   int     `json:"viewportHeight,omitempty" firestore:"viewportHeight,omitempty"`
	DevicePixelRatio float64 `json:"devicePixelRatio,omitempty" firestore:"devicePixelRatio,omitempty"`
	Selector         string  `json:"selector,omitempty" firestore:"selector,omitempty"`
	ElementHTML      string  `json:"elementHtml,omitempty" firestore:"elementHtml,omitempty"`
}

// StatusChange is one entry of a feedback's status history.
type StatusChange struct {
	FromStatus FeedbackStatus `json:"fromStatus" firestore:"fromStatus"`
	ToStatus   FeedbackStatus `json:"toStatus" firestore:"toStatus"`
	ChangedBy  string         `json:"changedBy,omitempty" firestore:"changedBy,omitempty"`
	ChangedAt  time.Time      `json:"changedAt" firestore:"changedAt"`
	Note       string         `json:"note,omitempty" firestore:"note,omitempty"`
}

// Feedback is a single change request pinned to a click location on a
// project's page. Number is sequential per project, assigned at creation and
// never reused.
type Feedback struct {
	ID            string         `json:"id" firestore:"-"`
	ProjectID     string         `json:"projectId" firestore:"projectId"`
	Number        int            `json:"number" firestore:"number"`
	Title         string         `json:"title" firestore:"title"`
	Description   string         `json:"description,omitempty" firestore:"description,omitempty"`
	Screenshot    string         `json:"screenshot,omitempty" firestore:"screenshot,omitempty"`
	AfterImage    string         `json:"afterImage,omitempty" firestore:"afterImage,omitempty"`
	AudioURL      string         `json:"audioUrl,omitempty" firestore:"audioUrl,omitempty"`
	Attachments   []string       `json:"attachments,omitempty" firestore:"attachments,omitempty"`
	ClickPosition *ClickPosition `json:"clickPosition,omitempty" firestore:"clickPosition,omitempty"`
	Status        FeedbackStatus `json:"status" firestore:"status"`
	StatusHistory []StatusChange `json:"statusHistory,omitempty" firestore:"statusHistory,omitempty"`
	Priority      Priority       `json:"priority" firestore:"priority"`
	Deadline      *time.Time     `json:"deadline,omitempty" firestore:"deadline,omitempty"`
	AssignedTo    string         `json:"assignedTo,omitempty" firestore:"assignedTo,omitempty"`
	CreatedBy     string         `json:"createdBy,omitempty" firestore:"createdBy,omitempty"`
	CreatedAt     time.Time      `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" firestore:"updatedAt"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
}
