package collect

import "go.uber.org/fx"

var Module = fx.Module("collect",
	fx.Provide(New),
)
