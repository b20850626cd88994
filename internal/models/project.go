package models

import "time"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectPaused, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// Project is an external website under review, rendered to reviewers inside
// an iframe. Deleting a project cascades to every feedback that references it.
type Project struct {
	ID                  string        `json:"id" firestore:"-"`
	Name                string        `json:"name" firestore:"name"`
	Description         string        `json:"description,omitempty" firestore:"description,omitempty"`
	SiteURL             string        `json:"siteUrl" firestore:"siteUrl"`
	ClientID            string        `json:"clientId,omitempty" firestore:"clientId,omitempty"`
	TeamID              string        `json:"teamId,omitempty" firestore:"teamId,omitempty"`
	Status              ProjectStatus `json:"status" firestore:"status"`
	PublicAccessEnabled bool          `json:"publicAccessEnabled" firestore:"publicAccessEnabled"`
	PublicAccessToken   string        `json:"-" firestore:"publicAccessToken"`
	CreatedAt           time.Time     `json:"createdAt" firestore:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt" firestore:"updatedAt"`
	CreatedBy           string        `json:"createdBy,omitempty" firestore:"createdBy,omitempty"`
}
