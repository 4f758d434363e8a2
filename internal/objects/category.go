package objects

import "time"

// Category labels interactions: academic, attendance, social-emotional, and
// whatever else a school configures.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Archived  bool      `json:"archived,omitempty"`
	SchoolID  string    `json:"schoolID,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}
