package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs from its environment.
type Config struct {
	Addr          string
	PublicBaseURL string

	TemplateDir string
	BlobDir     string

	PostgresDSN  string
	RedisURL     string
	KafkaBrokers []string
	AuditTopic   string

	URLSigningKey string
	URLTTL        time.Duration

	// TemplateCacheTTL bounds how long template bytes stay in Redis. Templates
	// only change on redeploy, so this is about memory pressure, not staleness.
	TemplateCacheTTL time.Duration

	// ExternalCallTimeout bounds every call to a collaborating store so a slow
	// dependency cannot hang a generation request.
	ExternalCallTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("SCRIBA_ADDR", ":8080"),
		PublicBaseURL:       envOr("SCRIBA_PUBLIC_BASE_URL", "http://localhost:8080"),
		TemplateDir:         envOr("SCRIBA_TEMPLATE_DIR", "templates"),
		BlobDir:             envOr("SCRIBA_BLOB_DIR", "data/blobs"),
		PostgresDSN:         os.Getenv("SCRIBA_POSTGRES_DSN"),
		RedisURL:            os.Getenv("SCRIBA_REDIS_URL"),
		AuditTopic:          envOr("SCRIBA_AUDIT_TOPIC", "scriba.documents"),
		URLTTL:              durationOr("SCRIBA_URL_TTL", 15*time.Minute),
		TemplateCacheTTL:    durationOr("SCRIBA_TEMPLATE_CACHE_TTL", time.Hour),
		ExternalCallTimeout: durationOr("SCRIBA_EXTERNAL_TIMEOUT", 10*time.Second),
	}

	if brokers := os.Getenv("SCRIBA_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	cfg.URLSigningKey = os.Getenv("SCRIBA_URL_SIGNING_KEY")
	if cfg.URLSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.URLSigningKey = "dev-secret-key-change-in-production"
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
