package models

import "time"

// Roles stored on admin accounts. Only RoleAdmin may mutate the catalog.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
