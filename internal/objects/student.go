package objects

import "time"

// Student is one student on a counselor's caseload.
type Student struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	GradeLevel string    `json:"gradeLevel"`
	Notes      string    `json:"notes,omitempty"`
	Archived   bool      `json:"archived,omitempty"`
	SchoolID   string    `json:"schoolID,omitempty"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// FullName returns the display name used in lists and logs.
func (s *Student) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	default:
		return s.FirstName + " " + s.LastName
	}
}
