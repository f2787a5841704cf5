package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the local development API used when nothing is configured
const DefaultBaseURL = "http://localhost:8080/api"

type (
	app struct {
		Name     string `json:"name" mapstructure:"name"`
		Env      string `json:"env" mapstructure:"env"`
		Timezone string `json:"timezone" mapstructure:"timezone"`
		Version  string `json:"version" mapstructure:"version"`
		LogLevel string `json:"log_level" mapstructure:"log_level"`
	}

	api struct {
		BaseURL string        `json:"base_url" mapstructure:"base_url"`
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	profile struct {
		// Path of the CLI token file, defaults to <user config dir>/license-console/profile.json
		Path string `json:"path" mapstructure:"path"`
	}

	console struct {
		Port         int           `json:"port" mapstructure:"port"`
		CookieName   string        `json:"cookie_name" mapstructure:"cookie_name"`
		SecureCookie bool          `json:"secure_cookie" mapstructure:"secure_cookie"`
		Store        string        `json:"store" mapstructure:"store"` // "memory" or "redis"
		Capacity     int           `json:"capacity" mapstructure:"capacity"`
		TTL          time.Duration `json:"ttl" mapstructure:"ttl"`
	}

	redis struct {
		Mode     string `json:"mode" mapstructure:"mode"` // "single", "cluster"
		Host     string `json:"host" mapstructure:"host"`
		Port     int    `json:"port" mapstructure:"port"`
		Password string `json:"password" mapstructure:"password"`
		DB       int    `json:"db" mapstructure:"db"`
		Cluster  struct {
			Nodes    []string `json:"nodes" mapstructure:"nodes"`
			Password string   `json:"password" mapstructure:"password"`
		} `json:"cluster" mapstructure:"cluster"`
	}

	Config struct {
		App     app     `json:"app" mapstructure:"app"`
		API     api     `json:"api" mapstructure:"api"`
		Profile profile `json:"profile" mapstructure:"profile"`
		Console console `json:"console" mapstructure:"console"`
		Redis   redis   `json:"redis" mapstructure:"redis"`
	}

	// RedisConfig is an alias for the internal redis struct for external access
	RedisConfig = redis
)

var cfg *Config

// setDefaults registers every default so the tool runs without a config file
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "license-console")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.log_level", "warn")

	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", 0)

	v.SetDefault("profile.path", "")

	v.SetDefault("console.port", 3000)
	v.SetDefault("console.cookie_name", "license_console_profile")
	v.SetDefault("console.secure_cookie", false)
	v.SetDefault("console.store", "memory")
	v.SetDefault("console.capacity", 1024)
	v.SetDefault("console.ttl", 12*time.Hour)

	v.SetDefault("redis.mode", "single")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 1)
}

// Init loads configuration from .config.json (optional), defaults and LICENSE_* environment variables
func Init() error {
	c, err := Load(viper.New())
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads configuration into a fresh Config using the given viper instance
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName(".config")
	v.SetConfigType("json")
	v.AddConfigPath("./")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "license-console"))
	}

	v.SetEnvPrefix("LICENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	return c, nil
}

// Get returns the current configuration instance
func Get() *Config {
	return cfg
}

// ProfilePath resolves the CLI token file location
func (c *Config) ProfilePath() (string, error) {
	if c.Profile.Path != "" {
		return c.Profile.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "license-console", "profile.json"), nil
}
