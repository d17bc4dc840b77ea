package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DataDir           string `env:"DATA_DIR" envDefault:"./data"`
	APIToken          string `env:"API_TOKEN"`
	MessageBufferSize int    `env:"MESSAGE_BUFFER_SIZE" envDefault:"200"`
	UserDomain        string `env:"USER_DOMAIN" envDefault:"s.whatsapp.net"`
	IgnoreGroups      bool   `env:"IGNORE_GROUPS" envDefault:"true"`

	MediaRetentionDays      int `env:"MEDIA_RETENTION_DAYS" envDefault:"7"`
	MediaSweepIntervalHours int `env:"MEDIA_SWEEP_INTERVAL_HOURS" envDefault:"24"`

	ReconnectRestartDelayMS   int `env:"RECONNECT_RESTART_DELAY_MS" envDefault:"1000"`
	ReconnectTransientDelayMS int `env:"RECONNECT_TRANSIENT_DELAY_MS" envDefault:"4000"`
	ReconnectFailureDelayMS   int `env:"RECONNECT_FAILURE_DELAY_MS" envDefault:"10000"`

	RateLimitPerMin int    `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) CredentialDir() string {
	return filepath.Join(c.DataDir, "credentials")
}

func (c *Config) MediaDir() string {
	return filepath.Join(c.DataDir, "media")
}

func (c *Config) MediaRetention() time.Duration {
	return time.Duration(c.MediaRetentionDays) * 24 * time.Hour
}

func (c *Config) MediaSweepInterval() time.Duration {
	return time.Duration(c.MediaSweepIntervalHours) * time.Hour
}

func (c *Config) ReconnectRestartDelay() time.Duration {
	return time.Duration(c.ReconnectRestartDelayMS) * time.Millisecond
}

func (c *Config) ReconnectTransientDelay() time.Duration {
	return time.Duration(c.ReconnectTransientDelayMS) * time.Millisecond
}

func (c *Config) ReconnectFailureDelay() time.Duration {
	return time.Duration(c.ReconnectFailureDelayMS) * time.Millisecond
}

func (c *Config) Validate() error {
	if c.MessageBufferSize <= 0 {
		return fmt.Errorf("MESSAGE_BUFFER_SIZE must be positive")
	}
	if c.MediaRetentionDays <= 0 {
		return fmt.Errorf("MEDIA_RETENTION_DAYS must be positive")
	}
	if c.UserDomain == "" {
		return fmt.Errorf("USER_DOMAIN must not be empty")
	}
	if c.APIToken == "" {
		log.Warn().Msg("API_TOKEN is empty: request surface authentication disabled")
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
