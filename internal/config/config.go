// Package config gathers the process configuration from the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/utilities"
)

const (
	defaultHTTPAddr   = "0.0.0.0:8431"
	defaultCORSOrigin = "http://localhost:3223"
	defaultCacheTTL   = 60 * time.Second
)

type Config struct {
	HTTPAddr      string
	Database      database.Config
	Log           utilities.Config
	JWTSecret     string
	DefaultRole   string
	CORSOrigins   []string
	RedisURL      string
	CacheTTL      time.Duration
	SnowflakeNode int64
	AutoMigrate   bool
}

// FromEnv reads every setting. Call Validate before using the result.
func FromEnv() Config {
	cfg := Config{
		HTTPAddr:      getenv("HTTP_ADDR", defaultHTTPAddr),
		Database:      database.ConfigFromEnv(),
		Log:           utilities.ConfigFromEnv(),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		DefaultRole:   getenv("DEFAULT_ROLE", role.Registered),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", defaultCORSOrigin)),
		RedisURL:      os.Getenv("REDIS_URL"),
		CacheTTL:      defaultCacheTTL,
		SnowflakeNode: utilities.NodeFromEnv(),
		AutoMigrate:   os.Getenv("AUTO_MIGRATE") != "0",
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = d
		}
	}
	return cfg
}

// Validate rejects configurations the service must not start with.
func (c Config) Validate() error {
	if len(c.JWTSecret) < auth.MinSecretLength {
		return oops.Code("CONFIG_INVALID").
			With("key", "JWT_SECRET").
			Wrapf(auth.ErrConfig, "signing secret must be at least %d bytes", auth.MinSecretLength)
	}
	if !role.IsBaseline(c.DefaultRole) {
		return oops.Code("CONFIG_INVALID").
			With("key", "DEFAULT_ROLE").
			With("value", c.DefaultRole).
			Wrapf(auth.ErrConfig, "default role must be one of %s", strings.Join(role.Baseline, ", "))
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
