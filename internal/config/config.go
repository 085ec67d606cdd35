package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults match a local development backend.
const (
	DefaultBackendURL = "http://localhost:3000"
	DefaultFeedURL    = "ws://localhost:3000/realtime"
)

// Config represents the global ~/.inboxtui/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	BackendURL     string `toml:"backend_url"`
	FeedURL        string `toml:"feed_url"`
	// AuthToken may be left empty and supplied via the INBOX_TOKEN
	// environment variable instead, so the file can stay secret-free.
	AuthToken string `toml:"auth_token"`
	// Timezone is the display timezone used until the business profile
	// loads, and as a fallback when the profile has none.
	Timezone string `toml:"timezone"`
	// RevertPreviewOnSendFailure rolls the inbox preview back when a send
	// fails instead of leaving the failed text as the preview.
	RevertPreviewOnSendFailure bool `toml:"revert_preview_on_send_failure"`
}

// Load reads config from the given path. Returns error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault reads config, falling back to pure defaults when the file
// does not exist yet (first run).
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = &Config{}
		cfg.applyDefaults()
		return cfg, nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

func (c *Config) applyDefaults() {
	if c.BackendURL == "" {
		c.BackendURL = DefaultBackendURL
	}
	if c.FeedURL == "" {
		c.FeedURL = DefaultFeedURL
	}
}
