package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("should apply defaults when no config file exists", func(t *testing.T) {
		viper.Reset()

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000/api/v1", cfg.Server.URL)
		assert.Equal(t, "learning-assistant-v1", cfg.Chat.Model)
		assert.Equal(t, 4000, cfg.Chat.TokenLimit)
		assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxBytes)
		assert.Contains(t, cfg.Uploads.AllowedExtensions, ".png")
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("should read values from a config file", func(t *testing.T) {
		viper.Reset()
		path := writeConfig(t, `
server:
  url: https://lms.example.com/api/v1
  token: secret
chat:
  model: tutor-v2
  token_limit: 8000
logging:
  level: debug
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "https://lms.example.com/api/v1", cfg.Server.URL)
		assert.Equal(t, "secret", cfg.Server.Token)
		assert.Equal(t, "tutor-v2", cfg.Chat.Model)
		assert.Equal(t, 8000, cfg.Chat.TokenLimit)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, path, cfg.ConfigFile)
	})

	t.Run("should let environment variables override the file", func(t *testing.T) {
		viper.Reset()
		t.Setenv("SAGE_ACCESS_TOKEN", "env-token")
		t.Setenv("SAGE_CHAT_MODEL", "env-model")
		path := writeConfig(t, `
server:
  token: file-token
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "env-token", cfg.Server.Token)
		assert.Equal(t, "env-model", cfg.Chat.Model)
	})
}
