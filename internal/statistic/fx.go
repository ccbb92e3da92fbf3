package statistic

import (
	"github.com/aptrend/aptrend/internal/statistic/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("statistic.repository",
	fx.Provide(repository.Provide),
)
