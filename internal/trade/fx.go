package trade

import (
	"github.com/aptrend/aptrend/internal/trade/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("trade.repository",
	fx.Provide(repository.Provide),
)
