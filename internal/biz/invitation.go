package biz

import (
	"context"

	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
	"github.com/counselhub/counselhub/internal/token"
)

type InvitationServiceParams struct {
	fx.In

	Validator *token.Validator
}

// InvitationService fronts the counselor invitation flow: a token arriving
// with a navigation is validated once and the verdict reused for the rest of
// the session.
type InvitationService struct {
	validator *token.Validator
}

func NewInvitationService(params InvitationServiceParams) *InvitationService {
	if params.Validator == nil {
		panic("biz.InvitationService: Validator is required")
	}

	return &InvitationService{validator: params.Validator}
}

// Accept validates an invitation token and returns its claims. A collaborator
// failure surfaces as the typed transport error, never as a rejection; only
// the validation authority can call a token invalid.
func (svc *InvitationService) Accept(ctx context.Context, raw string) (*objects.TokenClaims, error) {
	record, err := svc.validator.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}

	if !record.Valid {
		log.Debug(ctx, "invitation token rejected", log.String("reason", record.Reason))

		if record.Reason != "" {
			return nil, backend.ValidationFailure("invitation token rejected: %s", record.Reason)
		}

		return nil, backend.ValidationFailure("invitation token rejected")
	}

	if record.Claims == nil {
		return nil, backend.ValidationFailure("invitation token carries no claims")
	}

	if record.Claims.Expired(xtime.UTCNow()) {
		return nil, backend.ValidationFailure("invitation token expired")
	}

	return record.Claims, nil
}

// Dismiss drops the cached verdict for a token, forcing the next arrival to
// revalidate.
func (svc *InvitationService) Dismiss(ctx context.Context, raw string) {
	svc.validator.Forget(ctx, raw)
}
