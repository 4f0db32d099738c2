package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadSMSConfig(t *testing.T) {
	t.Setenv("SMS_PROVIDER", "twilio")
	t.Setenv("TWILIO_FROM_NUMBER", "+15005550006")

	cfg := loadSMSConfig()
	assert.Equal(t, "twilio", cfg.Provider)
	assert.Equal(t, "+15005550006", cfg.Twilio.FromNumber)
	assert.Equal(t, "Pawtraits", cfg.DefaultFrom)
	assert.NotNil(t, cfg.AWS)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_READ_TIMEOUT", "750ms")

	cfg := loadRedisConfig()
	assert.Equal(t, 6380, cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, "pawtraits:", cfg.KeyPrefix)
}

func TestLoadWebSocketConfig(t *testing.T) {
	t.Setenv("WEBSOCKET_ALLOWED_ORIGINS", "https://admin.pawtraits.pics,https://ops.pawtraits.pics")

	cfg := loadWebSocketConfig()
	assert.Equal(t, []string{"https://admin.pawtraits.pics", "https://ops.pawtraits.pics"}, cfg.AllowedOrigins)
	assert.Equal(t, 54*time.Second, cfg.PingInterval)
	assert.Equal(t, 200, cfg.MaxConnections)
}
