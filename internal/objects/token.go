package objects

import "time"

// TokenClaims are the claims carried by a counselor invitation token.
type TokenClaims struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	SchoolID  string    `json:"schoolID"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the claims are past their expiry at the given time.
func (c *TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
