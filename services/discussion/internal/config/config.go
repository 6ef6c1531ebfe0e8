// Package config reads the discussion service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/discussion-platform/services/discussion/internal/lifecycle"
	"github.com/example/discussion-platform/services/discussion/internal/policy"
)

type Config struct {
	GRPCAddr    string
	DatabaseURL string
	Production  bool

	RedisURL string
	LockTTL  time.Duration
	LockWait time.Duration

	NATSURL   string
	JWTSecret []byte

	MaxBodyLength int
	Policy        policy.Options
	RunMigrations bool
}

// Load reads the service config. JWT_SECRET is required; every other value has a default.
func Load() (Config, error) {
	cfg := Config{
		GRPCAddr:    env("GRPC_ADDR", ":9090"),
		DatabaseURL: env("DATABASE_URL", ""),
		Production:  strings.EqualFold(env("APP_ENV", ""), "production"),
		RedisURL:    env("REDIS_URL", ""),
		NATSURL:     env("NATS_URL", ""),
		JWTSecret:   []byte(env("JWT_SECRET", "")),
	}
	if len(cfg.JWTSecret) == 0 {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	var err error
	if cfg.LockTTL, err = envDuration("LOCK_TTL", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.LockWait, err = envDuration("LOCK_WAIT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxBodyLength, err = envInt("COMMENT_MAX_BODY", lifecycle.DefaultMaxBodyLength); err != nil {
		return Config{}, err
	}

	defaults := policy.DefaultOptions()
	if cfg.Policy.ForbidSelfVote, err = envBool("FORBID_SELF_VOTE", defaults.ForbidSelfVote); err != nil {
		return Config{}, err
	}
	if cfg.Policy.AllowEditDeleted, err = envBool("ALLOW_EDIT_DELETED", defaults.AllowEditDeleted); err != nil {
		return Config{}, err
	}
	if cfg.RunMigrations, err = envBool("RUN_MIGRATIONS", true); err != nil {
		return Config{}, err
	}

	if cfg.Production && cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required when APP_ENV=production")
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
