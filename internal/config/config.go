package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN     string `env:"DATABASE_DSN,required=true"`
	RedisURL        string `env:"REDIS_URL,required=true"`
	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY,required=true"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY,required=true"`
	VAPIDSubject    string `env:"VAPID_SUBJECT,default=admin@example.com"`
	AdminAPIToken   string `env:"ADMIN_API_TOKEN,required=true"`

	SchedulerTimezone string `env:"SCHEDULER_TIMEZONE,default=Asia/Kolkata"`
	SchedulerEnabled  bool   `env:"SCHEDULER_ENABLED,default=true"`

	DispatchConcurrency int `env:"DISPATCH_CONCURRENCY,default=16"`
	PushRateLimitPerSec int `env:"PUSH_RATE_LIMIT_PER_SEC,default=100"`
	PushTTLSeconds      int `env:"PUSH_TTL_SECONDS,default=86400"`
	PushTimeoutSeconds  int `env:"PUSH_TIMEOUT_SECONDS,default=10"`
	JobLockTTLSeconds   int `env:"JOB_LOCK_TTL_SECONDS,default=1800"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(strings.TrimSpace(c.SchedulerTimezone)); err != nil {
		return fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", c.SchedulerTimezone, err)
	}
	if c.DispatchConcurrency <= 0 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must be positive, got %d", c.DispatchConcurrency)
	}
	if c.PushRateLimitPerSec <= 0 {
		return fmt.Errorf("PUSH_RATE_LIMIT_PER_SEC must be positive, got %d", c.PushRateLimitPerSec)
	}
	if c.PushTimeoutSeconds <= 0 {
		return fmt.Errorf("PUSH_TIMEOUT_SECONDS must be positive, got %d", c.PushTimeoutSeconds)
	}
	if c.JobLockTTLSeconds <= 0 {
		return fmt.Errorf("JOB_LOCK_TTL_SECONDS must be positive, got %d", c.JobLockTTLSeconds)
	}
	return nil
}

// Location resolves the scheduler time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.SchedulerTimezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) PushTTL() time.Duration {
	return time.Duration(c.PushTTLSeconds) * time.Second
}

func (c *Config) PushTimeout() time.Duration {
	return time.Duration(c.PushTimeoutSeconds) * time.Second
}

func (c *Config) JobLockTTL() time.Duration {
	return time.Duration(c.JobLockTTLSeconds) * time.Second
}
