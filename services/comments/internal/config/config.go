package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	platformconfig "github.com/example/tubesocial/internal/platform/config"
	"github.com/example/tubesocial/internal/platform/media"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	GRPCAddr string

	// StoreBackend is memory, postgres or mongo. Empty selects postgres when
	// DATABASE_URL is set, mongo when MONGO_URI is set, memory otherwise.
	StoreBackend   string
	DatabaseURL    string
	DBMaxConns     int
	ConnectRetries int
	RetryBaseDelay time.Duration
	MongoURI       string
	MongoDatabase  string

	RedisURL       string
	ExistsCacheTTL time.Duration

	NATSURL string

	JWTSecret string
	JWTIssuer string

	Media          media.Config
	MaxUploadBytes int64
}

func Load(isProd bool) (Config, error) {
	cfg := Config{
		GRPCAddr:       env("GRPC_ADDR", ":9090"),
		StoreBackend:   strings.ToLower(env("STORE_BACKEND", "")),
		DatabaseURL:    env("DATABASE_URL", ""),
		DBMaxConns:     platformconfig.EnvInt("DB_MAX_CONNS", 10),
		ConnectRetries: platformconfig.EnvInt("DB_CONNECT_RETRIES", 5),
		RetryBaseDelay: platformconfig.EnvDuration("DB_RETRY_BASE_DELAY", 500*time.Millisecond),
		MongoURI:       env("MONGO_URI", ""),
		MongoDatabase:  env("MONGO_DATABASE", "tubesocial"),
		RedisURL:       env("REDIS_URL", ""),
		ExistsCacheTTL: platformconfig.EnvDuration("EXISTS_CACHE_TTL", 10*time.Minute),
		NATSURL:        env("NATS_URL", ""),
		JWTSecret:      env("JWT_SECRET", ""),
		JWTIssuer:      env("JWT_ISSUER", ""),
		Media: media.Config{
			CloudName: env("MEDIA_CLOUD_NAME", ""),
			APIKey:    env("MEDIA_API_KEY", ""),
			APISecret: env("MEDIA_API_SECRET", ""),
			Folder:    env("MEDIA_FOLDER", "comments"),
			Endpoint:  env("MEDIA_ENDPOINT", ""),
			Timeout:   platformconfig.EnvDuration("MEDIA_TIMEOUT", 60*time.Second),
		},
		MaxUploadBytes: int64(platformconfig.EnvInt("MEDIA_MAX_UPLOAD_MB", 10)) << 20,
	}

	if cfg.StoreBackend == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.StoreBackend = BackendPostgres
		case cfg.MongoURI != "":
			cfg.StoreBackend = BackendMongo
		default:
			cfg.StoreBackend = BackendMemory
		}
	}

	switch cfg.StoreBackend {
	case BackendMemory:
		if isProd {
			return Config{}, errors.New("STORE_BACKEND=memory is not allowed in production")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			return Config{}, errors.New("MONGO_URI is required for the mongo backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Media.CloudName != "" && !cfg.Media.Enabled() {
		return Config{}, errors.New("MEDIA_API_KEY and MEDIA_API_SECRET are required when MEDIA_CLOUD_NAME is set")
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
