// Package config loads the nodemanager configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// FileName is the default config file name looked up in the
	// working directory.
	FileName = ".nodemanager.yaml"
	// GlobalDir is the directory for global config, under $HOME.
	GlobalDir = ".config/nodemanager"
	// GlobalFile is the global config file name.
	GlobalFile = "config.yaml"
)

// Config holds every tunable of the manager. Zero values are filled
// with defaults by Load and Default.
type Config struct {
	// ScanPort is the single control port probed during discovery and
	// used for every node API call.
	ScanPort int `mapstructure:"scan_port"`
	// Prefix overrides local-subnet auto-detection, e.g. "192.168.1".
	Prefix string `mapstructure:"prefix"`

	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
	ScanWorkers int           `mapstructure:"scan_workers"`
	// Enrich gathers latency/MAC/mDNS details for discovered nodes.
	Enrich bool `mapstructure:"enrich"`

	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	NameTimeout     time.Duration `mapstructure:"name_timeout"`
	CommandTimeout  time.Duration `mapstructure:"command_timeout"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ScanPort:        5000,
		ScanTimeout:     time.Second,
		ScanWorkers:     20,
		RefreshInterval: 60 * time.Second,
		NameTimeout:     time.Second,
		CommandTimeout:  5 * time.Second,
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.ScanPort <= 0 || c.ScanPort > 65535 {
		return fmt.Errorf("scan_port %d out of range", c.ScanPort)
	}
	if c.ScanWorkers <= 0 {
		return errors.New("scan_workers must be greater than 0")
	}
	if c.ScanTimeout <= 0 || c.NameTimeout <= 0 || c.CommandTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("refresh_interval must be positive")
	}
	return nil
}

// Load reads the config file at path, layering it over the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := Default()
	v.SetDefault("scan_port", defaults.ScanPort)
	v.SetDefault("scan_timeout", defaults.ScanTimeout)
	v.SetDefault("scan_workers", defaults.ScanWorkers)
	v.SetDefault("refresh_interval", defaults.RefreshInterval)
	v.SetDefault("name_timeout", defaults.NameTimeout)
	v.SetDefault("command_timeout", defaults.CommandTimeout)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Find locates the config file: an explicit path wins, then the working
// directory, then the global location. Returns an empty string when no
// file exists.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, FileName)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, GlobalDir, GlobalFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}
	return "", nil
}

// LoadOrDefault loads the discovered config file, or returns defaults
// when none exists.
func LoadOrDefault(explicit string) (Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
