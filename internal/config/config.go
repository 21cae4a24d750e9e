package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	App      AppConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
	// Migrate applies the embedded schema on start.
	Migrate bool
}

// DSN renders the connection string understood by pgxpool.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode,
	)
}

// AppConfig holds the ticketing engine settings.
type AppConfig struct {
	// Location decides which calendar day counts as today for status
	// derivation.
	Location            *time.Location
	RateLimitPerMinute  int
	EventCacheTTL       time.Duration
	SectionsCacheTTL    time.Duration
	IdempotencyTTL      time.Duration
	ShutdownGracePeriod time.Duration
}

type LogConfig struct {
	Level slog.Level
	JSON  bool
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: stringEnv("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	maxConns, err := intEnv("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	migrate, err := boolEnv("POSTGRES_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresCfg := PostgresConfig{
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),
		Migrate:  migrate,
	}

	for key, dst := range map[string]*string{
		"POSTGRES_USER":     &postgresCfg.User,
		"POSTGRES_PASSWORD": &postgresCfg.Password,
		"POSTGRES_DB":       &postgresCfg.Name,
	} {
		*dst = os.Getenv(key)
		if *dst == "" {
			return nil, fmt.Errorf("%s: missing %s", op, key)
		}
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     stringEnv("REDIS_ADDR", "localhost:6380"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	appCfg, err := newAppConfig()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logCfg, err := newLogConfig()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		App:      appCfg,
		Log:      logCfg,
	}, nil
}

func newAppConfig() (AppConfig, error) {
	var (
		cfg AppConfig
		err error
	)

	cfg.Location, err = time.LoadLocation(stringEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return cfg, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	if cfg.RateLimitPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return cfg, err
	}
	if cfg.RateLimitPerMinute <= 0 {
		return cfg, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: must be > 0")
	}

	if cfg.EventCacheTTL, err = durationEnv("EVENT_CACHE_TTL", 60*time.Second); err != nil {
		return cfg, err
	}
	if cfg.SectionsCacheTTL, err = durationEnv("SECTIONS_CACHE_TTL", 30*time.Second); err != nil {
		return cfg, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", 2*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.ShutdownGracePeriod, err = durationEnv("SHUTDOWN_GRACE_PERIOD", 5*time.Second); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func newLogConfig() (LogConfig, error) {
	var cfg LogConfig

	if err := cfg.Level.UnmarshalText([]byte(stringEnv("LOG_LEVEL", "info"))); err != nil {
		return cfg, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch format := strings.ToLower(stringEnv("LOG_FORMAT", "text")); format {
	case "text":
	case "json":
		cfg.JSON = true
	default:
		return cfg, fmt.Errorf("invalid LOG_FORMAT %q", format)
	}

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
