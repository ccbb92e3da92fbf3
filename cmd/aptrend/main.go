package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/aptrend/aptrend/internal/apartment"
	"github.com/aptrend/aptrend/internal/cache"
	"github.com/aptrend/aptrend/internal/clock"
	"github.com/aptrend/aptrend/internal/collect"
	"github.com/aptrend/aptrend/internal/config"
	"github.com/aptrend/aptrend/internal/matcher"
	"github.com/aptrend/aptrend/internal/migration"
	"github.com/aptrend/aptrend/internal/observability"
	"github.com/aptrend/aptrend/internal/ratelimit"
	"github.com/aptrend/aptrend/internal/region"
	"github.com/aptrend/aptrend/internal/repair"
	"github.com/aptrend/aptrend/internal/scheduler"
	"github.com/aptrend/aptrend/internal/server"
	"github.com/aptrend/aptrend/internal/source"
	"github.com/aptrend/aptrend/internal/statistic"
	"github.com/aptrend/aptrend/internal/trade"
	"github.com/aptrend/aptrend/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		region.Module,
		apartment.Module,
		trade.Module,
		statistic.Module,

		ratelimit.Module,
		cache.Module,
		matcher.Module,
		source.Module,
		collect.Module,
		repair.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
