package biz

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/backend/mock"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/token"
)

func newTestInvitationService(t *testing.T) (*InvitationService, *mock.MockTokenBackend) {
	t.Helper()

	ctrl := gomock.NewController(t)
	tokens := mock.NewMockTokenBackend(ctrl)

	validator := token.NewValidator(token.ValidatorOptions{Backend: tokens})

	return NewInvitationService(InvitationServiceParams{Validator: validator}), tokens
}

func counselorVerdict(expiry time.Time) *backend.Verdict {
	return &backend.Verdict{
		Valid: true,
		Claims: &objects.TokenClaims{
			Subject:   "couns_1",
			SchoolID:  "sch_1",
			ExpiresAt: expiry,
		},
		ExpiresAt: expiry,
	}
}

func TestInvitationServiceAcceptReusesVerdictForSession(t *testing.T) {
	svc, tokens := newTestInvitationService(t)
	ctx := t.Context()

	tokens.EXPECT().
		Validate(gomock.Any(), "tok_A").
		Return(counselorVerdict(time.Now().Add(time.Hour)), nil).
		Times(1)

	claims, err := svc.Accept(ctx, "tok_A")
	require.NoError(t, err)
	require.Equal(t, "couns_1", claims.Subject)
	require.Equal(t, "sch_1", claims.SchoolID)

	// The same token arriving again within the session never goes remote.
	again, err := svc.Accept(ctx, "tok_A")
	require.NoError(t, err)
	require.Equal(t, claims.Subject, again.Subject)
}

func TestInvitationServiceAcceptRejectedToken(t *testing.T) {
	svc, tokens := newTestInvitationService(t)

	tokens.EXPECT().
		Validate(gomock.Any(), "tok_bad").
		Return(&backend.Verdict{Valid: false, Reason: "revoked by school admin"}, nil)

	_, err := svc.Accept(t.Context(), "tok_bad")
	require.Error(t, err)
	require.True(t, backend.IsValidationFailure(err))
	require.Contains(t, err.Error(), "revoked by school admin")
}

func TestInvitationServiceCollaboratorFailureIsNotRejection(t *testing.T) {
	svc, tokens := newTestInvitationService(t)

	tokens.EXPECT().
		Validate(gomock.Any(), "tok_A").
		Return(nil, backend.NetworkFailure(errors.New("dial tcp: timeout"), "validation authority unreachable"))

	_, err := svc.Accept(t.Context(), "tok_A")
	require.Error(t, err)
	require.True(t, backend.IsNetworkFailure(err))
	require.False(t, backend.IsValidationFailure(err))
}

func TestInvitationServiceAcceptExpiredClaims(t *testing.T) {
	svc, tokens := newTestInvitationService(t)

	tokens.EXPECT().
		Validate(gomock.Any(), "tok_old").
		Return(counselorVerdict(time.Now().Add(-time.Minute)), nil)

	_, err := svc.Accept(t.Context(), "tok_old")
	require.Error(t, err)
	require.True(t, backend.IsValidationFailure(err))
	require.Contains(t, err.Error(), "expired")
}

func TestInvitationServiceDismissForcesRevalidation(t *testing.T) {
	svc, tokens := newTestInvitationService(t)
	ctx := t.Context()

	tokens.EXPECT().
		Validate(gomock.Any(), "tok_A").
		Return(counselorVerdict(time.Now().Add(time.Hour)), nil).
		Times(2)

	_, err := svc.Accept(ctx, "tok_A")
	require.NoError(t, err)

	svc.Dismiss(ctx, "tok_A")

	_, err = svc.Accept(ctx, "tok_A")
	require.NoError(t, err)
}
