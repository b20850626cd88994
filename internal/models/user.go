package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTeam   Role = "team"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeam, RoleClient:
		return true
	}
	return false
}

// User is an internal account that can sign in to the review dashboard.
type User struct {
	ID           string     `json:"id" firestore:"-"`
	Email        string     `json:"email" firestore:"email"`
	Name         string     `json:"name" firestore:"name"`
	Role         Role       `json:"role" firestore:"role"`
	TeamID       string     `json:"teamId,omitempty" firestore:"teamId,omitempty"`
	ClientID     string     `json:"clientId,omitempty" firestore:"clientId,omitempty"`
	PasswordHash string     `json:"-" firestore:"passwordHash"`
	CreatedAt    time.Time  `json:"createdAt" firestore:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" firestore:"lastLoginAt,omitempty"`
}
