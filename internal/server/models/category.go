package models

import "time"

// Category is a grouping label. Specimens reference it by Name, not by ID.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      *string   `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
