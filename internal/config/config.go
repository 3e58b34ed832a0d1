// Package config manages the ~/.hairstudio data directory and the TOML
// configuration file inside it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DataDirName = ".hairstudio"
	ConfigFile  = "config"
	MetaFile    = "history.db"
	BlobsDir    = "images"

	// EnvHome overrides the data directory location.
	EnvHome = "HAIRSTUDIO_HOME"
)

// Config holds the user-tunable settings plus the resolved data paths.
type Config struct {
	ImageModel  string `toml:"image_model"`
	TextModel   string `toml:"text_model"`
	AspectRatio string `toml:"aspect_ratio"`
	ImageSize   string `toml:"image_size"`
	// TimeoutSeconds bounds a single generation call.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// StrictStyleURLs limits inspiration links to known style sites.
	StrictStyleURLs bool `toml:"strict_style_urls"`

	path string // resolved data directory
}

func defaults() *Config {
	return &Config{
		ImageModel:      "gemini-3-pro-image-preview",
		TextModel:       "gemini-flash-lite-latest",
		AspectRatio:     "16:9",
		ImageSize:       "1K",
		TimeoutSeconds:  180,
		StrictStyleURLs: false,
	}
}

// DataDir resolves the data directory, honoring the HAIRSTUDIO_HOME
// override.
func DataDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DataDirName), nil
}

// Load reads the configuration from the data directory, creating the
// directory and a default config file when missing.
func Load() (*Config, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads the configuration rooted at dir.
func LoadFrom(dir string) (*Config, error) {
	if err := os.MkdirAll(filepath.Join(dir, BlobsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := defaults()
	cfg.path = dir

	configPath := filepath.Join(dir, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Save(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = dir
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults replaces zero values left by a partial config file.
func (c *Config) fillDefaults() {
	d := defaults()
	if c.ImageModel == "" {
		c.ImageModel = d.ImageModel
	}
	if c.TextModel == "" {
		c.TextModel = d.TextModel
	}
	if c.AspectRatio == "" {
		c.AspectRatio = d.AspectRatio
	}
	if c.ImageSize == "" {
		c.ImageSize = d.ImageSize
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = d.TimeoutSeconds
	}
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(c.path, ConfigFile), data, 0644)
}

// Path returns the data directory.
func (c *Config) Path() string {
	return c.path
}

// MetaPath returns the path to the metadata database.
func (c *Config) MetaPath() string {
	return filepath.Join(c.path, MetaFile)
}

// BlobsPath returns the path to the blob directory.
func (c *Config) BlobsPath() string {
	return filepath.Join(c.path, BlobsDir)
}

// Timeout returns the generation deadline as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
