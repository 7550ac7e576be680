package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerAddress      string        `mapstructure:"SERVER_ADDRESS"`
	CorsAllowedOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DatabaseDriver     string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBConnectRetries   int           `mapstructure:"DB_CONNECT_RETRIES"`
	DBRetryInterval    time.Duration `mapstructure:"DB_RETRY_INTERVAL"`
	HealthInterval     time.Duration `mapstructure:"HEALTH_CHECK_INTERVAL"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	JWTTTL             time.Duration `mapstructure:"JWT_TTL"`
	RedisAddress       string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":        ":8080",
	"CORS_ALLOWED_ORIGINS":  "http://localhost:3000",
	"LOG_LEVEL":             "info",
	"DATABASE_DRIVER":       "postgres",
	"DATABASE_URL":          "",
	"DB_CONNECT_RETRIES":    5,
	"DB_RETRY_INTERVAL":     2 * time.Second,
	"HEALTH_CHECK_INTERVAL": 5 * time.Second,
	"JWT_SECRET":            "",
	"JWT_TTL":               7 * 24 * time.Hour,
	"REDIS_ADDRESS":         "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
}

// LoadConfig loads the configuration from a .env file in dir and environment variables.
// Environment variables win over the file.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("config: DATABASE_URL is required")
	}
	return &cfg, nil
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CorsAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
