package biz

import (
	"go.uber.org/fx"
)

var Module = fx.Module("biz",
	fx.Provide(NewEngine),
	fx.Provide(NewStudentService),
	fx.Provide(NewContactService),
	fx.Provide(NewInteractionService),
	fx.Provide(NewCategoryService),
	fx.Provide(NewReportService),
	fx.Provide(NewInvitationService),
)
