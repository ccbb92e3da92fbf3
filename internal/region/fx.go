package region

import (
	"github.com/aptrend/aptrend/internal/region/repository"
	"github.com/aptrend/aptrend/internal/region/service"
	"go.uber.org/fx"
)

var Module = fx.Module("region.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
