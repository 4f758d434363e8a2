package objects

import "time"

// Contact is a family or staff contact linked to a student.
type Contact struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentID"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	SchoolID  string    `json:"schoolID,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}
