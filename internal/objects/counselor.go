package objects

// Counselor is the signed-in user of a client session.
type Counselor struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	SchoolID    string `json:"schoolID"`
	Role        string `json:"role,omitempty"`
}
