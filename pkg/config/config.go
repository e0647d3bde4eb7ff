package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Stats data
	StatsDir string `mapstructure:"STATS_DIR"`

	// Sessions
	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	SessionStore  string        `mapstructure:"SESSION_STORE"` // "memory", "redis"

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Recalculation rate limiting
	RecalcRateLimit int `mapstructure:"RECALC_RATE_LIMIT"`
	RecalcRateBurst int `mapstructure:"RECALC_RATE_BURST"`

	// Charts
	ChartWidth  int `mapstructure:"CHART_WIDTH"`
	ChartHeight int `mapstructure:"CHART_HEIGHT"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("STATS_DIR", "stats")
	viper.SetDefault("SESSION_SECRET", "dev-session-secret")
	viper.SetDefault("SESSION_TTL", "12h")
	viper.SetDefault("SESSION_STORE", "memory")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("RECALC_RATE_LIMIT", 30) // requests per minute
	viper.SetDefault("RECALC_RATE_BURST", 10)
	viper.SetDefault("CHART_WIDTH", 640)
	viper.SetDefault("CHART_HEIGHT", 420)

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	return &config, nil
}

// Validate checks the settings the server cannot run without
func (c *Config) Validate() error {
	if c.StatsDir == "" {
		return fmt.Errorf("STATS_DIR must not be empty")
	}
	if c.SessionStore != "memory" && c.SessionStore != "redis" {
		return fmt.Errorf("SESSION_STORE must be \"memory\" or \"redis\", got %q", c.SessionStore)
	}
	if c.SessionStore == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set when SESSION_STORE is \"redis\"")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RecalcRateLimit <= 0 || c.RecalcRateBurst <= 0 {
		return fmt.Errorf("recalc rate limit and burst must be positive")
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("chart dimensions must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
