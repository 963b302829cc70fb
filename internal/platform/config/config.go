package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server     Server
	Storage    Storage
	Redis      RedisConfig
	Blob       Blob
	Kafka      Kafka
	LogLevel   string
	AppVersion string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	JWTSigningKey  string
	JWTIssuer      string
	RequestTimeout time.Duration
}

// Storage selects the durable storage adapter.
type Storage struct {
	Driver      string // sqlite | postgres | memory
	SQLitePath  string
	PostgresDSN string
}

// RedisConfig points at the legacy key-value store. An empty URL disables
// the Redis reader.
type RedisConfig struct {
	URL          string
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Blob selects where the audit file tree and exports are written.
type Blob struct {
	Driver        string // fs | s3 | memory
	Root          string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3PathStyle   bool
	S3AccessKeyID string
	S3SecretKey   string
}

// Kafka configures the optional event bridge. No brokers disables it.
type Kafka struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// FromEnv builds a Config from TRAVELKEEP_* environment variables so main
// stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:           getEnv("TRAVELKEEP_ADDR", ":8080"),
			JWTSigningKey:  getEnv("TRAVELKEEP_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:      getEnv("TRAVELKEEP_JWT_ISSUER", "travelkeep"),
			RequestTimeout: getDuration("TRAVELKEEP_REQUEST_TIMEOUT", 15*time.Second),
		},
		Storage: Storage{
			Driver:      getEnv("TRAVELKEEP_STORAGE_DRIVER", "sqlite"),
			SQLitePath:  getEnv("TRAVELKEEP_SQLITE_PATH", "./data/travelkeep.db"),
			PostgresDSN: os.Getenv("TRAVELKEEP_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("TRAVELKEEP_REDIS_URL"),
			KeyPrefix:    os.Getenv("TRAVELKEEP_REDIS_KEY_PREFIX"),
			PoolSize:     getInt("TRAVELKEEP_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("TRAVELKEEP_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("TRAVELKEEP_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("TRAVELKEEP_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("TRAVELKEEP_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Blob: Blob{
			Driver:        getEnv("TRAVELKEEP_BLOB_DRIVER", "fs"),
			Root:          getEnv("TRAVELKEEP_BLOB_ROOT", "./data/blobs"),
			S3Bucket:      os.Getenv("TRAVELKEEP_BLOB_S3_BUCKET"),
			S3Region:      os.Getenv("TRAVELKEEP_BLOB_S3_REGION"),
			S3Endpoint:    os.Getenv("TRAVELKEEP_BLOB_S3_ENDPOINT"),
			S3PathStyle:   getBool("TRAVELKEEP_BLOB_S3_PATH_STYLE", false),
			S3AccessKeyID: os.Getenv("TRAVELKEEP_BLOB_S3_ACCESS_KEY_ID"),
			S3SecretKey:   os.Getenv("TRAVELKEEP_BLOB_S3_SECRET_ACCESS_KEY"),
		},
		Kafka: Kafka{
			Brokers:  splitList(os.Getenv("TRAVELKEEP_KAFKA_BROKERS")),
			Topic:    getEnv("TRAVELKEEP_KAFKA_TOPIC", "travelkeep.profile-events"),
			ClientID: getEnv("TRAVELKEEP_KAFKA_CLIENT_ID", "travelkeep"),
		},
		LogLevel:   getEnv("TRAVELKEEP_LOG_LEVEL", "info"),
		AppVersion: getEnv("TRAVELKEEP_APP_VERSION", "dev"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
