package apartment

import (
	"github.com/aptrend/aptrend/internal/apartment/repository"
	"github.com/aptrend/aptrend/internal/apartment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apartment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
