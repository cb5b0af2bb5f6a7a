// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	ListenAddr string `toml:"listen_addr"`
	ScratchDir string `toml:"scratch_dir"` // download scratch space; empty = auto-detect
	YtdlpPath  string `toml:"ytdlp_path"`  // yt-dlp binary; empty = search PATH
	History    bool   `toml:"history"`
	Debug      bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ListenAddr: "0.0.0.0:8000",
		ScratchDir: "",
		YtdlpPath:  "",
		History:    true,
		Debug:      false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "riptide"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "riptide"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.ListenAddr, err)
	}
	return nil
}

// ResolveScratchDir decides the writable scratch directory once at
// startup. An explicit config value wins; on serverless hosts only /tmp
// is writable; otherwise a local downloads directory is used. The
// directory is created if missing, falling back to /tmp when creation
// fails on a read-only filesystem.
func (c *Config) ResolveScratchDir() string {
	dir := c.ScratchDir
	if dir == "" {
		if os.Getenv("VERCEL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
			dir = filepath.Join(os.TempDir(), "downloads")
		} else {
			dir = "downloads"
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

// HistoryPath returns the path to the resolution history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "riptide", "history.db"), nil
}
