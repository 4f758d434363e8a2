package objects

import "time"

// Interaction is one logged counseling interaction.
// ContactID is empty when the interaction involved the student only.
type Interaction struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"studentID"`
	ContactID       string    `json:"contactID,omitempty"`
	CategoryID      string    `json:"categoryID"`
	OccurredAt      time.Time `json:"occurredAt"`
	DurationMinutes int       `json:"durationMinutes,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	SchoolID        string    `json:"schoolID,omitempty"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"createdAt,omitzero"`
	UpdatedAt       time.Time `json:"updatedAt,omitzero"`
}
