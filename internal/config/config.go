// Package config loads tada's settings from ~/.tada/config.yaml and TADA_* env vars.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Makepad-fr/tada/internal/remote"
)

const fileName = "config.yaml"

// Config is the merged configuration. Flags are applied on top by the CLI.
type Config struct {
	UserID   int           `mapstructure:"user_id"`
	APIURL   string        `mapstructure:"api_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log_level"`
	Theme    string        `mapstructure:"theme"`

	// Dir holds config.yaml and credentials.json.
	Dir string `mapstructure:"-"`
}

// HasSession reports whether a user id is configured.
func (c *Config) HasSession() bool { return c.UserID > 0 }

// DefaultDir is ~/.tada, or TADA_HOME when set.
func DefaultDir() string {
	if d := strings.TrimSpace(os.Getenv("TADA_HOME")); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tada"
	}
	return filepath.Join(home, ".tada")
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, fileName))
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TADA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("user_id", 0)
	v.SetDefault("api_url", remote.DefaultBaseURL)
	v.SetDefault("timeout", remote.DefaultTimeout)
	v.SetDefault("log_level", "warn")
	v.SetDefault("theme", "classic")
	return v
}

// Load reads dir/config.yaml (optional) and the environment.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Dir = dir
	if cfg.UserID < 0 {
		return nil, fmt.Errorf("invalid user_id %d", cfg.UserID)
	}
	return cfg, nil
}

// SaveUserID writes user_id into dir/config.yaml, keeping other keys.
func SaveUserID(dir string, id int) error {
	if id <= 0 {
		return fmt.Errorf("user id must be positive, got %d", id)
	}
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	v := viper.New()
	path := filepath.Join(dir, fileName)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return fmt.Errorf("read config: %w", err)
	}
	v.Set("user_id", id)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}
