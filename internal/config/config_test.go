package config_test

import (
	"testing"
	"time"

	"taskflow/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("NOTIFY_QUEUE_SIZE", "")

	cfg := config.Load()

	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("WS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("ENVIRONMENT", "production")

	cfg := config.Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2, cfg.JWTExpiryHours)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.WSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{LogLevel: "debug", LogFormat: "json"}
	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg = &config.Config{LogLevel: "bogus"}
	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger().GetLevel())
}
