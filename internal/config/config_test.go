package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("data subdirectories derive from DataDir", func(t *testing.T) {
		cfg := &Config{DataDir: "/var/lib/gateway"}
		assert.Equal(t, filepath.Join("/var/lib/gateway", "credentials"), cfg.CredentialDir())
		assert.Equal(t, filepath.Join("/var/lib/gateway", "media"), cfg.MediaDir())
	})

	t.Run("MediaRetention converts days to duration", func(t *testing.T) {
		cfg := &Config{MediaRetentionDays: 7}
		assert.Equal(t, 7*24*time.Hour, cfg.MediaRetention())
	})

	t.Run("reconnect delays convert milliseconds", func(t *testing.T) {
		cfg := &Config{
			ReconnectRestartDelayMS:   1000,
			ReconnectTransientDelayMS: 4000,
			ReconnectFailureDelayMS:   10000,
		}
		assert.Equal(t, time.Second, cfg.ReconnectRestartDelay())
		assert.Equal(t, 4*time.Second, cfg.ReconnectTransientDelay())
		assert.Equal(t, 10*time.Second, cfg.ReconnectFailureDelay())
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		MessageBufferSize:  200,
		MediaRetentionDays: 7,
		UserDomain:         "s.whatsapp.net",
	}

	t.Run("accepts sane config", func(t *testing.T) {
		cfg := valid
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects non-positive buffer size", func(t *testing.T) {
		cfg := valid
		cfg.MessageBufferSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive retention", func(t *testing.T) {
		cfg := valid
		cfg.MediaRetentionDays = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty user domain", func(t *testing.T) {
		cfg := valid
		cfg.UserDomain = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "DATA_DIR", "API_TOKEN", "MESSAGE_BUFFER_SIZE", "USER_DOMAIN",
		"IGNORE_GROUPS", "MEDIA_RETENTION_DAYS", "RECONNECT_TRANSIENT_DELAY_MS", "LOG_LEVEL",
	}
	originalEnv := map[string]string{}
	for _, k := range keys {
		originalEnv[k] = os.Getenv(k)
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		for _, k := range keys {
			os.Unsetenv(k)
		}

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "./data", cfg.DataDir)
		assert.Equal(t, 200, cfg.MessageBufferSize)
		assert.Equal(t, "s.whatsapp.net", cfg.UserDomain)
		assert.True(t, cfg.IgnoreGroups)
		assert.Equal(t, 7, cfg.MediaRetentionDays)
		assert.Equal(t, 4000, cfg.ReconnectTransientDelayMS)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		os.Setenv("PORT", "9000")
		os.Setenv("IGNORE_GROUPS", "false")
		os.Setenv("MESSAGE_BUFFER_SIZE", "500")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Port)
		assert.False(t, cfg.IgnoreGroups)
		assert.Equal(t, 500, cfg.MessageBufferSize)
	})
}
