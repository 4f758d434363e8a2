package token

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/backend/mock"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

func newTestValidator(t *testing.T) (*Validator, *mock.MockTokenBackend) {
	t.Helper()

	ctrl := gomock.NewController(t)
	tokens := mock.NewMockTokenBackend(ctrl)

	return NewValidator(ValidatorOptions{Backend: tokens}), tokens
}

func validVerdict(subject string) *backend.Verdict {
	return &backend.Verdict{
		Valid:     true,
		Claims:    &objects.TokenClaims{Subject: subject, SchoolID: "SCH-1"},
		ExpiresAt: xtime.UTCNow().Add(time.Hour),
	}
}

func TestValidatorReusesCachedValidationForSameToken(t *testing.T) {
	v, tokens := newTestValidator(t)

	tokens.EXPECT().Validate(gomock.Any(), "tok-A").Return(validVerdict("counselor-7"), nil).Times(1)

	first, err := v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)
	require.True(t, first.Valid)
	require.Equal(t, "counselor-7", first.Claims.Subject)

	// Re-entering with the same token is served from cache: the single
	// Times(1) expectation fails the test on a second remote call.
	second, err := v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)
	require.True(t, second.Valid)
	require.Equal(t, first.Claims.Subject, second.Claims.Subject)
}

func TestValidatorRevalidatesWhenTokenChanges(t *testing.T) {
	v, tokens := newTestValidator(t)

	tokens.EXPECT().Validate(gomock.Any(), "tok-A").Return(validVerdict("counselor-7"), nil).Times(2)
	tokens.EXPECT().Validate(gomock.Any(), "tok-B").Return(validVerdict("counselor-9"), nil).Times(1)

	_, err := v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)

	_, err = v.Validate(t.Context(), "tok-B")
	require.NoError(t, err)

	// Coming back to tok-A after navigating through tok-B revalidates
	// remotely even though its cached record is still within TTL.
	_, err = v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)
}

func TestValidatorCollaboratorFailureIsNotInvalid(t *testing.T) {
	v, tokens := newTestValidator(t)

	tokens.EXPECT().
		Validate(gomock.Any(), "tok-A").
		Return(nil, backend.NetworkFailure(errors.New("dial tcp: i/o timeout"), "validate token"))
	tokens.EXPECT().Validate(gomock.Any(), "tok-A").Return(validVerdict("counselor-7"), nil)

	record, err := v.Validate(t.Context(), "tok-A")
	require.Error(t, err)
	require.ErrorIs(t, err, backend.ErrNetworkFailure)
	require.Nil(t, record, "a transport failure must never produce a verdict")

	// The failure was a cache miss: the retry goes remote and succeeds.
	record, err = v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)
	require.True(t, record.Valid)
}

func TestValidatorCachesDefinitiveRejection(t *testing.T) {
	v, tokens := newTestValidator(t)

	tokens.EXPECT().
		Validate(gomock.Any(), "tok-A").
		Return(&backend.Verdict{Valid: false, Reason: "token already consumed"}, nil).
		Times(1)

	record, err := v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)
	require.False(t, record.Valid)
	require.Equal(t, "token already consumed", record.Reason)

	// The rejection is definitive and cached like any other verdict.
	record, err = v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)
	require.False(t, record.Valid)
}

func TestValidatorDoesNotCacheExpiredVerdicts(t *testing.T) {
	v, tokens := newTestValidator(t)

	expired := &backend.Verdict{
		Valid:     true,
		Claims:    &objects.TokenClaims{Subject: "counselor-7"},
		ExpiresAt: xtime.UTCNow().Add(-time.Minute),
	}
	tokens.EXPECT().Validate(gomock.Any(), "tok-A").Return(expired, nil).Times(2)

	_, err := v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)

	// Nothing was cached, so the same token validates remotely again.
	_, err = v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)
}

func TestValidatorRequiresToken(t *testing.T) {
	v, _ := newTestValidator(t)

	_, err := v.Validate(t.Context(), "")
	require.ErrorIs(t, err, backend.ErrValidationFailure)
}

func TestValidatorForget(t *testing.T) {
	v, tokens := newTestValidator(t)

	tokens.EXPECT().Validate(gomock.Any(), "tok-A").Return(validVerdict("counselor-7"), nil).Times(2)

	_, err := v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)

	// Consuming the token drops the cached validation and the session.
	v.Forget(t.Context(), "tok-A")

	_, err = v.Validate(t.Context(), "tok-A")
	require.NoError(t, err)
}
