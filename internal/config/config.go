package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable the service reads from the environment.
// Values are resolved once at startup; nothing re-reads the environment later.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Signing   SigningConfig
	Token     TokenConfig
	Cookie    CookieConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Audit     AuditConfig
}

type ServerConfig struct {
	Addr            string
	RequestDeadline time.Duration
}

type DatabaseConfig struct {
	DSN string
}

type SigningConfig struct {
	Key       string
	Algorithm string
}

type TokenConfig struct {
	AdminTTL  time.Duration
	MemberTTL time.Duration
	ResetTTL  time.Duration
}

type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

type RateLimitConfig struct {
	PerMinute int
	PerHour   int
	// RPS and Burst drive the coarse per-IP bucket on the whole API.
	// Either set to zero disables it.
	RPS   int
	Burst int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

type AuditConfig struct {
	Enabled bool
}

// Load resolves configuration from the environment. The signing key is the
// only hard requirement; everything else has a default.
func Load() (*Config, error) {
	key := strings.TrimSpace(os.Getenv("SIGNING_KEY"))
	if key == "" {
		return nil, fmt.Errorf("config: SIGNING_KEY is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            envString("SERVER_ADDR", ":8080"),
			RequestDeadline: envDuration("REQUEST_DEADLINE", 30*time.Second),
		},
		Database: DatabaseConfig{
			DSN: os.Getenv("PG_DSN"),
		},
		Signing: SigningConfig{
			Key:       key,
			Algorithm: envString("SIGNING_ALGORITHM", "HS256"),
		},
		Token: TokenConfig{
			AdminTTL:  time.Duration(envInt("ADMIN_TOKEN_EXPIRE_MINUTES", 24*60)) * time.Minute,
			MemberTTL: time.Duration(envInt("MEMBER_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
			ResetTTL:  time.Duration(envInt("RESET_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
		},
		Cookie: CookieConfig{
			Name:     envString("COOKIE_NAME", "access_token"),
			Domain:   os.Getenv("COOKIE_DOMAIN"),
			Path:     envString("COOKIE_PATH", "/"),
			Secure:   envBool("COOKIE_SECURE", false),
			SameSite: parseSameSite(envString("COOKIE_SAMESITE", "lax")),
		},
		RateLimit: RateLimitConfig{
			PerMinute: envInt("RATE_LIMIT_PER_MINUTE", 10),
			PerHour:   envInt("RATE_LIMIT_PER_HOUR", 100),
			RPS:       envInt("RATE_LIMIT_RPS", 25),
			Burst:     envInt("RATE_LIMIT_BURST", 50),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
			AllowCredentials: envBool("CORS_ALLOW_CREDENTIALS", true),
		},
		Audit: AuditConfig{
			Enabled: envBool("AUDIT_ENABLED", true),
		},
	}

	if !strings.HasPrefix(cfg.Signing.Algorithm, "HS") {
		return nil, fmt.Errorf("config: unsupported signing algorithm %q", cfg.Signing.Algorithm)
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
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

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
