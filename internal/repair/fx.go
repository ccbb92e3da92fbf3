package repair

import "go.uber.org/fx"

var Module = fx.Module("repair",
	fx.Provide(New),
)
