// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	XAPI         XAPIConfig
	MaxPages     int
	HandleTTL    time.Duration
	Redis        RedisConfig
	DatabaseURL  string
	Kafka        KafkaConfig
	JWT          JWTConfig
	CORSOrigins  []string
	RequestLimit time.Duration
}

// XAPIConfig configures the outbound X API client and its resilience layer.
type XAPIConfig struct {
	BaseURL        string
	BearerToken    string
	CallTimeout    time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	RatePerSecond  float64
	RateBurst      int
}

// RedisConfig configures the optional handle cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional reward event producer.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// JWTConfig configures bearer authentication for submissions.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// IsProduction reports whether the server runs in production.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// FromEnv builds a Server config from environment variables, loading an
// optional .env file first. Variables already set win over the file.
func FromEnv() (Server, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional
	return Load(os.Getenv)
}

// Load builds a Server config from the given lookup function.
func Load(getenv func(string) string) (Server, error) {
	p := parser{getenv: getenv}
	cfg := Server{
		Addr:        p.str("XVERIFY_ADDR", ":8080"),
		Environment: p.str("ENVIRONMENT", "development"),
		LogLevel:    p.str("LOG_LEVEL", "info"),
		XAPI: XAPIConfig{
			BaseURL:        p.str("X_API_BASE_URL", "https://api.twitter.com"),
			BearerToken:    strings.TrimSpace(getenv("X_API_BEARER_TOKEN")),
			CallTimeout:    p.duration("XAPI_CALL_TIMEOUT", 5*time.Second),
			MaxRetries:     p.int("XAPI_MAX_RETRIES", 1),
			BackoffInitial: p.duration("XAPI_BACKOFF_INITIAL", 200*time.Millisecond),
			RatePerSecond:  p.float("XAPI_RATE_PER_SECOND", 5),
			RateBurst:      p.int("XAPI_RATE_BURST", 10),
		},
		MaxPages:  p.int("VERIFY_MAX_PAGES", 50),
		HandleTTL: p.duration("HANDLE_CACHE_TTL", 10*time.Minute),
		Redis: RedisConfig{
			URL:          getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		DatabaseURL: getenv("DATABASE_URL"),
		Kafka: KafkaConfig{
			Brokers: getenv("KAFKA_BROKERS"),
			Topic:   p.str("REWARD_TOPIC", "rewards.granted"),
		},
		JWT: JWTConfig{
			SigningKey: getenv("JWT_SIGNING_KEY"),
			Issuer:     "xverify",
			Audience:   "rewards-spa",
		},
		CORSOrigins:  p.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		RequestLimit: 30 * time.Second,
	}
	if p.err != nil {
		return Server{}, p.err
	}

	if cfg.XAPI.BearerToken == "" {
		return Server{}, errors.New("X_API_BEARER_TOKEN is required")
	}
	if cfg.MaxPages < 1 {
		return Server{}, fmt.Errorf("VERIFY_MAX_PAGES must be positive, got %d", cfg.MaxPages)
	}
	if cfg.XAPI.MaxRetries < 0 {
		return Server{}, fmt.Errorf("XAPI_MAX_RETRIES must not be negative, got %d", cfg.XAPI.MaxRetries)
	}
	if cfg.JWT.SigningKey == "" {
		if cfg.IsProduction() {
			return Server{}, errors.New("JWT_SIGNING_KEY is required in production")
		}
		cfg.JWT.SigningKey = devSigningKey
	}
	return cfg, nil
}

// parser reads typed values and keeps the first error.
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) int(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) list(key string, def []string) []string {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}
