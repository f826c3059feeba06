package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "message", cfg.Realtime.ChatEvent)
	assert.Equal(t, "newConversation", cfg.Realtime.NewConversationEvent)
	assert.Equal(t, "notification", cfg.Realtime.NotificationEvent)
	assert.Equal(t, "storefront:auth:token", cfg.Auth.TokenKey)
	assert.Equal(t, 50, cfg.Chat.PreviewLimit)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "storefront-console", cfg.App.Name)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://shop.example.com/api
  timeout: 5s
realtime:
  url: wss://shop.example.com
  chat_event: chat-message
chat:
  message_page_size: 30
`)
	t.Setenv("STOREFRONT_CHAT_EVENT", "support-message")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("NATS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "support-message", cfg.Realtime.ChatEvent)
	assert.Equal(t, 30, cfg.Chat.MessagePageSize)
	assert.Equal(t, 10, cfg.Chat.NotificationPageSize)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.True(t, cfg.NATS.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "chat:\n  preview_limit: 0\n")
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, "api: [unterminated\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "nope")
	assert.Equal(t, 7, GetEnvInt("CFG_TEST_INT", 7))

	t.Setenv("CFG_TEST_DUR", "3s")
	assert.Equal(t, 3*time.Second, GetEnvDuration("CFG_TEST_DUR", time.Second))

	t.Setenv("CFG_TEST_STR", "")
	assert.Equal(t, "fallback", GetEnv("CFG_TEST_STR", "fallback"))

	assert.False(t, GetEnvBool("CFG_TEST_UNSET_BOOL", false))
}
