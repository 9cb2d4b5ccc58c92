package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Built once in main and passed
// into constructors; no package reads the environment on its own.
type Config struct {
	Addr          string
	JWTSigningKey string

	// DatabaseURL selects the postgres-backed stores when non-empty;
	// otherwise the process runs on in-memory stores (dev/test).
	DatabaseURL string

	Redis RedisConfig
	Kafka KafkaConfig

	// FlagRequestsPerHour caps moderation submissions per requester.
	FlagRequestsPerHour int

	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional workflow event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds the process config from environment variables so main
// stays lean.
func FromEnv() Config {
	addr := os.Getenv("GIVEHUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Dev default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "givehub.workflow"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		FlagRequestsPerHour: envInt("FLAG_REQUESTS_PER_HOUR", 10),
		ShutdownTimeout:     10 * time.Second,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
