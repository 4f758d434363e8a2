package dumper

import (
	"go.uber.org/fx"
)

var Module = fx.Module("dumper",
	fx.Provide(New),
)
