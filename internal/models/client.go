package models

import "time"

// Client is an external customer whose sites are under review. The access
// token is the secret behind public review links and is surfaced exactly once,
// at creation.
type Client struct {
	ID             string    `json:"id" firestore:"-"`
	Name           string    `json:"name" firestore:"name"`
	Email          string    `json:"email" firestore:"email"`
	Phone          string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Company        string    `json:"company,omitempty" firestore:"company,omitempty"`
	Logo           string    `json:"logo,omitempty" firestore:"logo,omitempty"`
	AssignedTeamID string    `json:"assignedTeamId,omitempty" firestore:"assignedTeamId,omitempty"`
	AccessToken    string    `json:"-" firestore:"accessToken"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt"`
	CreatedBy      string    `json:"createdBy,omitempty" firestore:"createdBy,omitempty"`
}
