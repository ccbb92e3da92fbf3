package cache

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	tradedomain "github.com/aptrend/aptrend/internal/trade/domain"
)

var Module = fx.Module("cache",
	fx.Provide(
		NewNormCache,
		NewRegionCandidateCache,
		NewExternalIDCache,
	),
	fx.Invoke(warmExternalIDCache),
)

// warmExternalIDCache bulk-loads the external sequence mapping on startup so
// the first sweep starts warm instead of resolving every sequence by name.
func warmExternalIDCache(lc fx.Lifecycle, trades tradedomain.Repository, extCache ExternalIDCache, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			mappings, err := trades.ListSeqMappings(ctx)
			if err != nil {
				// A cold cache only costs extra lookups; do not block startup.
				log.Warn("external id cache warm-up failed", zap.Error(err))
				return nil
			}

			entries := make(map[string]snowflake.ID, len(mappings))
			for _, m := range mappings {
				entries[m.ExternalSeq] = m.ApartmentID
			}
			extCache.Load(entries)

			log.Info("external id cache warmed", zap.Int("entries", extCache.Len()))
			return nil
		},
	})
}
