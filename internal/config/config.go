package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	Port      string
	DB        DBConfig
	RedisAddr string
	JWTSecret string
	Push      PushConfig
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// PushConfig holds push-channel delivery settings.
type PushConfig struct {
	Endpoint  string
	BatchSize int
}

// DSN renders the Postgres connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", d.User, d.Password, d.Host, d.Port, d.Name)
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		DB: DBConfig{
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "trouvly"),
		},
		RedisAddr: redisAddr(),
		JWTSecret: getEnv("JWT_SECRET", ""),
		Push: PushConfig{
			Endpoint:  getEnv("PUSH_ENDPOINT", "https://exp.host/--/api/v2/push/send"),
			BatchSize: getEnvInt("PUSH_BATCH_SIZE", 100),
		},
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Push.BatchSize <= 0 {
		return fmt.Errorf("push batch size must be positive")
	}
	return nil
}

// redisAddr resolves the Redis address the way the deploy environments set it:
// REDIS_ADDR wins, else REDIS_HOST[:REDIS_PORT], else localhost.
func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		return host + ":" + port
	}
	return "127.0.0.1:6379"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
