package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	OTLPEndpoint string

	Source SourceConfig

	Collect CollectConfig

	RateLimit RateLimitConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// SourceConfig configures the external open-data clients.
type SourceConfig struct {
	APIKey string

	TradeBaseURL     string
	ComplexBaseURL   string
	StatisticBaseURL string

	PageSize       int
	RequestTimeout int
	MaxRetries     int
}

// CollectConfig bounds a single collection run.
type CollectConfig struct {
	CallBudget  int
	Concurrency int
	BatchSize   int
	MaxErrors   int
}

// RateLimitConfig paces outbound source calls through redis when enabled.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SourceRate    float64
	SourceBurst   int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "aptrend"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		Source: SourceConfig{
			APIKey:           strings.TrimSpace(getenv("SOURCE_API_KEY", "")),
			TradeBaseURL:     getenv("SOURCE_TRADE_BASE_URL", "https://apis.data.go.kr/1613000/RTMSDataSvcAptTrade"),
			ComplexBaseURL:   getenv("SOURCE_COMPLEX_BASE_URL", "https://apis.data.go.kr/1613000/AptListService3"),
			StatisticBaseURL: getenv("SOURCE_STATISTIC_BASE_URL", "https://www.reb.or.kr/r-one/openapi"),
			PageSize:         getenvInt("SOURCE_PAGE_SIZE", 100),
			RequestTimeout:   getenvInt("SOURCE_REQUEST_TIMEOUT_SECONDS", 5),
			MaxRetries:       getenvInt("SOURCE_MAX_RETRIES", 3),
		},

		Collect: CollectConfig{
			CallBudget:  getenvInt("COLLECT_CALL_BUDGET", 900),
			Concurrency: getenvInt("COLLECT_CONCURRENCY", 3),
			BatchSize:   getenvInt("COLLECT_BATCH_SIZE", 200),
			MaxErrors:   getenvInt("COLLECT_MAX_ERRORS", 100),
		},

		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			SourceRate:    getenvFloat("RATE_LIMIT_SOURCE_RATE", 10),
			SourceBurst:   getenvInt("RATE_LIMIT_SOURCE_BURST", 20),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "aptrend"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
