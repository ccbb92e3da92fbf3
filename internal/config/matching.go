package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MatchingConfig holds the empirically tuned matching knobs. The defaults
// preserve observed behavior; treat them as a starting point, not optimal.
type MatchingConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarityThreshold"`
	NormCacheCeiling    int     `mapstructure:"normCacheCeiling"`
	NormCacheEvictFrac  float64 `mapstructure:"normCacheEvictFraction"`
	RegionCacheTTLMin   int     `mapstructure:"regionCacheTTLMinutes"`
}

func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		SimilarityThreshold: 0.2,
		NormCacheCeiling:    50_000,
		NormCacheEvictFrac:  0.10,
		RegionCacheTTLMin:   60,
	}
}

// MatchingConfigHolder serves the current matching config and hot-reloads it
// when the backing file changes.
type MatchingConfigHolder struct {
	current atomic.Value // holds MatchingConfig
}

func NewMatchingConfigHolder() (*MatchingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("matching")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/aptrend/config")
	v.AddConfigPath("/etc/aptrend")
	v.AddConfigPath(".")

	v.SetEnvPrefix("APTREND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultMatchingConfig()
	v.SetDefault("matching.similarityThreshold", defaults.SimilarityThreshold)
	v.SetDefault("matching.normCacheCeiling", defaults.NormCacheCeiling)
	v.SetDefault("matching.normCacheEvictFraction", defaults.NormCacheEvictFrac)
	v.SetDefault("matching.regionCacheTTLMinutes", defaults.RegionCacheTTLMin)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg MatchingConfig
	if err := v.UnmarshalKey("matching", &cfg); err != nil {
		return nil, err
	}
	if err := validateMatchingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &MatchingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated MatchingConfig
		if err := v.UnmarshalKey("matching", &updated); err != nil {
			log.Printf("[matching-config] reload failed: %v", err)
			return
		}
		if err := validateMatchingConfig(updated); err != nil {
			log.Printf("[matching-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[matching-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticMatchingConfigHolder returns a holder pinned to cfg. Tests use it
// instead of the file-watched holder.
func NewStaticMatchingConfigHolder(cfg MatchingConfig) *MatchingConfigHolder {
	holder := &MatchingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *MatchingConfigHolder) Get() MatchingConfig {
	return h.current.Load().(MatchingConfig)
}

func validateMatchingConfig(cfg MatchingConfig) error {
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold >= 1 {
		return errors.New("matching.similarityThreshold must be in (0, 1)")
	}
	if cfg.NormCacheCeiling <= 0 {
		return errors.New("matching.normCacheCeiling must be positive")
	}
	if cfg.NormCacheEvictFrac <= 0 || cfg.NormCacheEvictFrac >= 1 {
		return errors.New("matching.normCacheEvictFraction must be in (0, 1)")
	}
	if cfg.RegionCacheTTLMin <= 0 {
		return errors.New("matching.regionCacheTTLMinutes must be positive")
	}
	return nil
}
