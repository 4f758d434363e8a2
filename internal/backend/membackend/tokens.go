package membackend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/objects"
)

// DefaultTokenTTL bounds invitation tokens issued without an explicit expiry.
const DefaultTokenTTL = 14 * 24 * time.Hour

// IssueToken signs an invitation token for claims and records it as an
// ephemeral row so cleanup can purge it once expired.
func (b *Backend) IssueToken(claims objects.TokenClaims) (string, error) {
	expiresAt := claims.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = b.now().Add(DefaultTokenTTL)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      claims.Subject,
		"email":    claims.Email,
		"schoolID": claims.SchoolID,
		"role":     claims.Role,
		"exp":      expiresAt.Unix(),
	})

	signed, err := token.SignedString(b.secret)
	if err != nil {
		return "", fmt.Errorf("sign invitation token: %w", err)
	}

	b.mu.Lock()
	b.invites[signed] = expiresAt
	b.mu.Unlock()

	return signed, nil
}

// OpenSession records an ephemeral session row with its expiry. Sessions
// exist to be purged; nothing reads them back.
func (b *Backend) OpenSession(id string, expiresAt time.Time) {
	b.mu.Lock()
	b.sessions[id] = expiresAt
	b.mu.Unlock()
}

// Validate implements backend.TokenBackend. A bad token is a definitive
// rejection, not an error; in process there is no transport to fail.
func (b *Backend) Validate(ctx context.Context, tokenString string) (*backend.Verdict, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return b.secret, nil
	})
	if err != nil || !token.Valid {
		return &backend.Verdict{Valid: false, Reason: rejectionReason(err)}, nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return &backend.Verdict{Valid: false, Reason: "malformed claims"}, nil
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return &backend.Verdict{
		Valid: true,
		Claims: &objects.TokenClaims{
			Subject:   stringClaim(claims, "sub"),
			Email:     stringClaim(claims, "email"),
			SchoolID:  stringClaim(claims, "schoolID"),
			Role:      stringClaim(claims, "role"),
			ExpiresAt: expiresAt,
		},
		ExpiresAt: expiresAt,
	}, nil
}

// DeleteExpired implements backend.CleanupBackend. A second call right after
// a successful one deletes nothing.
func (b *Backend) DeleteExpired(ctx context.Context, category backend.CleanupCategory) (int, error) {
	if err := b.delay(ctx); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var rows map[string]time.Time

	switch category {
	case backend.CleanupInviteTokens:
		rows = b.invites
	case backend.CleanupTokenSessions:
		rows = b.sessions
	default:
		return 0, backend.ValidationFailure("unknown cleanup category %q", category)
	}

	now := b.now()
	deleted := 0

	for id, expiresAt := range rows {
		if !expiresAt.After(now) {
			delete(rows, id)
			deleted++
		}
	}

	return deleted, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature mismatch"
	default:
		return "invalid token"
	}
}
