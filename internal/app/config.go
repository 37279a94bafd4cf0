package app

import (
	"time"

	"github.com/yungbote/skillforge-backend/internal/platform/envutil"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	LogMode     string
	LogLevel    string
	LogRedact   bool
	LogHashSalt string
	Environment string
	APIVersion  string

	DBDriver    string
	SQLitePath  string
	PostgresDSN string
	LogQueries  bool

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	SSEHeartbeat     time.Duration
	ActivityTimezone string
	CORSOrigins      []string

	MetricsEnabled bool

	OtelEnabled     bool
	OtelEndpoint    string
	OtelHeaders     string
	OtelInsecure    bool
	OtelSampleRatio float64

	ShutdownTimeout time.Duration
}

const defaultJWTSecret = "defaultsecret"

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		LogLevel:    envutil.String("LOG_LEVEL", ""),
		LogRedact:   envutil.Bool("LOG_REDACTION_ENABLED", true),
		LogHashSalt: envutil.String("LOG_HASH_SALT", ""),
		Environment: envutil.String("APP_ENV", "development"),
		APIVersion:  envutil.String("API_VERSION", "1.0.0"),

		DBDriver:    envutil.String("DB_DRIVER", "sqlite"),
		SQLitePath:  envutil.String("SQLITE_PATH", "skillforge.db"),
		PostgresDSN: envutil.String("POSTGRES_DSN", ""),
		LogQueries:  envutil.Bool("DB_LOG_QUERIES", false),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL: envutil.Seconds("ACCESS_TOKEN_TTL", 24*time.Hour),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),
		RedisChannel:  envutil.String("REDIS_CHANNEL", "skillforge:sse"),

		SSEHeartbeat:     envutil.Seconds("SSE_HEARTBEAT_SECONDS", 15*time.Second),
		ActivityTimezone: envutil.String("ACTIVITY_TIMEZONE", "UTC"),
		CORSOrigins:      envutil.List("CORS_ORIGINS", nil),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),

		OtelEnabled:     envutil.Bool("OTEL_ENABLED", false),
		OtelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelHeaders:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OtelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OtelSampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),

		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
	}
	if log != nil && cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	return cfg
}
