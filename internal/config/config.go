package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Environment string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	ServerPort     string
	RequestTimeout time.Duration

	JWTSecret      string
	JWTExpiryHours int

	LogLevel  string
	LogFormat string

	NotifyQueueSize  int
	WSAllowedOrigins []string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	SentryDSN string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "taskflow_user"),
		DBPassword:       getEnv("DB_PASSWORD", "taskflow_pass"),
		DBName:           getEnv("DB_NAME", "taskflow_db"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "taskflow.db"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		JWTSecret:        getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiryHours:   getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		NotifyQueueSize:  getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		WSAllowedOrigins: getEnvAsList("WS_ALLOWED_ORIGINS"),
		RedisEnabled:     getEnvAsBool("REDIS_ENABLED", false),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		RedisChannel:     getEnv("REDIS_CHANNEL", "taskflow:notifications"),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return value
}

func getEnvAsBool(key string, defaultVal bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return value
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultVal
	}
	return value
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
