// Package config builds service configuration from the environment so main
// stays lean. Everything is an explicit value handed to constructors; nothing
// reads the environment after startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
}

// Postgres captures database configuration. Empty DSN means the in-memory
// stores are used (dev / unit tests).
type Postgres struct {
	DSN string
}

// RedisConfig captures Redis connection configuration. Empty URL disables
// Redis-backed components (claims refresh signal degrades to log-only,
// rate limiting falls back to in-memory).
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the audit stream configuration. Empty brokers disables the
// Kafka publisher.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Provider captures everything the proof-verification provider integration
// needs: adapter endpoints, shared credential, policy, and timeouts.
type Provider struct {
	Name          string
	ScopeSeed     string
	CallbackURL   string
	StartURL      string
	VerifyURL     string
	APIKey        string
	APIKeyHash    string
	StartTimeout  time.Duration
	VerifyTimeout time.Duration

	MinimumAge        int
	ExcludedCountries []string
	SanctionsCheck    bool
	MockProofs        bool

	AppName      string
	LogoURL      string
	EndpointType string
}

// Adapter is the provider adapter service configuration.
type Adapter struct {
	Addr       string
	APIKey     string
	APIKeyHash string
	Provider   Provider
	Production bool
}

// Dedup captures the identity-deduplication keying material.
type Dedup struct {
	HMACSecret string
}

// RateLimit captures request-rate ceilings per endpoint.
type RateLimit struct {
	CallbackPerMinIP  int
	IssuancePerMinIP  int
	IssuancePerMinUID int
	Disabled          bool
}

// Config is the full gateway configuration.
type Config struct {
	Production   bool
	Server       Server
	Postgres     Postgres
	Redis        RedisConfig
	Kafka        Kafka
	Provider     Provider
	Dedup        Dedup
	RateLimit    RateLimit
	ChallengeTTL time.Duration
}

// DevDedupSecret is the non-production fallback HMAC secret. In production
// the secret must be configured explicitly or verification fails closed.
const DevDedupSecret = "dev-only-change-idv-dedup-secret"

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	production := envString("IDV_ENV", "development") == "production"

	dedupSecret := os.Getenv("IDV_DEDUP_HMAC_SECRET")
	if dedupSecret == "" && !production {
		dedupSecret = DevDedupSecret
	}

	return Config{
		Production: production,
		Server: Server{
			Addr:          envString("IDV_GATEWAY_ADDR", ":8080"),
			JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envString("JWT_ISSUER", "idv-gateway"),
		},
		Postgres: Postgres{
			DSN: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("AUDIT_TOPIC", "idv.audit.events"),
		},
		Provider: Provider{
			Name:          envString("IDV_PROVIDER_NAME", "self_openpassport"),
			ScopeSeed:     envString("SELF_SCOPE_SEED", "dbaitr-human-v1"),
			CallbackURL:   envString("IDV_CALLBACK_URL", strings.TrimRight(envString("PUBLIC_APP_URL", "https://dbaitr.com"), "/")+"/api/idv/relay"),
			StartURL:      os.Getenv("IDV_SELF_START_URL"),
			VerifyURL:     os.Getenv("IDV_SELF_VERIFY_URL"),
			APIKey:        os.Getenv("IDV_SELF_VERIFY_API_KEY"),
			APIKeyHash:    os.Getenv("IDV_SELF_VERIFY_API_KEY_HASH"),
			StartTimeout:  envDuration("IDV_SELF_START_TIMEOUT", 10*time.Second),
			VerifyTimeout: envDuration("IDV_SELF_VERIFY_TIMEOUT", 15*time.Second),

			MinimumAge:        envInt("SELF_MINIMUM_AGE", 18),
			ExcludedCountries: envList("SELF_EXCLUDED_COUNTRIES"),
			SanctionsCheck:    envBool("SELF_OFAC", false),
			MockProofs:        !production && envBool("SELF_MOCK_PASSPORT", false),

			AppName:      envString("SELF_APP_NAME", "dbaitr"),
			LogoURL:      envString("SELF_APP_LOGO_URL", "https://dbaitr.com/logo.png"),
			EndpointType: envString("SELF_ENDPOINT_TYPE", "https"),
		},
		Dedup: Dedup{HMACSecret: dedupSecret},
		RateLimit: RateLimit{
			CallbackPerMinIP:  envInt("IDV_RATE_CALLBACK_IP_PER_MIN", 60),
			IssuancePerMinIP:  envInt("IDV_RATE_ISSUANCE_IP_PER_MIN", 60),
			IssuancePerMinUID: envInt("IDV_RATE_ISSUANCE_UID_PER_MIN", 6),
			Disabled:          envBool("IDV_RATE_LIMIT_DISABLED", false),
		},
		ChallengeTTL: clampChallengeTTL(envDuration("IDV_CHALLENGE_TTL", 10*time.Minute)),
	}
}

// AdapterFromEnv builds the provider adapter service configuration.
func AdapterFromEnv() Adapter {
	gateway := FromEnv()
	return Adapter{
		Addr:       envString("IDV_ADAPTER_ADDR", ":8081"),
		APIKey:     os.Getenv("IDV_SHARED_API_KEY"),
		APIKeyHash: os.Getenv("IDV_SHARED_API_KEY_HASH"),
		Provider:   gateway.Provider,
		Production: gateway.Production,
	}
}

// clampChallengeTTL keeps challenge lifetimes minutes-scale regardless of
// misconfiguration: at least one minute, at most one hour.
func clampChallengeTTL(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return time.Minute
	}
	if ttl > time.Hour {
		return time.Hour
	}
	return ttl
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
