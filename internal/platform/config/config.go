package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "covault/pkg/platform/strings"
)

// Store backends selectable with COVAULT_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMinio    = "minio"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string
	JWTIssuer     string
	SweepInterval time.Duration
	Store         StoreConfig
	Redis         RedisConfig
	Minio         MinioConfig
	Kafka         KafkaConfig
}

// StoreConfig selects and bounds the vault blob store.
type StoreConfig struct {
	Backend     string
	Key         string
	Timeout     time.Duration
	DatabaseURL string
}

// RedisConfig configures the go-redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MinioConfig configures the S3-compatible blob store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// KafkaConfig configures the audit sink. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	sweep, err := durationEnv("COVAULT_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return Server{}, err
	}
	storeTimeout, err := durationEnv("COVAULT_STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return Server{}, err
	}
	poolSize, err := intEnv("REDIS_POOL_SIZE", 10)
	if err != nil {
		return Server{}, err
	}

	cfg := Server{
		Addr:          stringEnv("COVAULT_ADDR", ":8080"),
		LogLevel:      stringEnv("COVAULT_LOG_LEVEL", "info"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:     stringEnv("JWT_ISSUER", "covault"),
		SweepInterval: sweep,
		Store: StoreConfig{
			Backend:     strings.ToLower(stringEnv("COVAULT_STORE", StoreMemory)),
			Key:         stringEnv("COVAULT_STORE_KEY", "covault.vaults.v1"),
			Timeout:     storeTimeout,
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     poolSize,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    stringEnv("MINIO_BUCKET", "covault"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		},
		Kafka: KafkaConfig{
			Brokers: listEnv("KAFKA_BROKERS"),
			Topic:   stringEnv("COVAULT_AUDIT_TOPIC", "covault.audit"),
		},
	}
	return cfg, cfg.validate()
}

func (s Server) validate() error {
	switch s.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if s.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", StorePostgres)
		}
	case StoreRedis:
		if s.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s store", StoreRedis)
		}
	case StoreMinio:
		if s.Minio.Endpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for the %s store", StoreMinio)
		}
	default:
		return fmt.Errorf("unknown COVAULT_STORE %q", s.Store.Backend)
	}
	if s.SweepInterval <= 0 {
		return fmt.Errorf("COVAULT_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func listEnv(key string) []string {
	return pkgstrings.SplitList(os.Getenv(key), ",")
}
