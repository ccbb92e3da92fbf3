package scheduler

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls sweep intervals, per-run timeouts, and which jobs a
// process owns. An empty EnabledJobs list enables everything, which is
// the single-process default.
type Config struct {
	RunInterval    time.Duration
	JobTimeout     time.Duration
	LookbackMonths int
	EnabledJobs    []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:    6 * time.Hour,
		JobTimeout:     30 * time.Minute,
		LookbackMonths: 2,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LookbackMonths <= 0 {
		c.LookbackMonths = defaults.LookbackMonths
	}
	return c
}

// ProvideConfig reads the scheduler knobs from the environment.
func ProvideConfig() Config {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("SCHEDULER_RUN_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RunInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULER_JOB_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.JobTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULER_LOOKBACK_MONTHS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LookbackMonths = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULER_ENABLED_JOBS")); v != "" {
		for _, job := range strings.Split(v, ",") {
			if job = strings.TrimSpace(job); job != "" {
				cfg.EnabledJobs = append(cfg.EnabledJobs, job)
			}
		}
	}
	return cfg
}
