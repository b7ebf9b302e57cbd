package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	LibraryFolder string `koanf:"library_folder"` // root folder scanned for audiobooks
	User          string `koanf:"user"`           // user id for progress records

	Playback     PlaybackConfig     `koanf:"playback"`
	Subscription SubscriptionConfig `koanf:"subscription"`
}

// PlaybackConfig holds player behavior settings.
type PlaybackConfig struct {
	Speed           float64 `koanf:"speed"`            // default playback rate (0.5-2.0)
	SkipForwardSec  int     `koanf:"skip_forward"`     // seconds for the skip-forward control
	SkipBackwardSec int     `koanf:"skip_backward"`    // seconds for the skip-backward control
	PersistSec      int     `koanf:"persist_interval"` // seconds between progress writes while playing
}

// SubscriptionConfig describes the subscription offering of this deployment.
type SubscriptionConfig struct {
	Available bool `koanf:"available"` // deployment offers subscriptions at all
	Active    bool `koanf:"active"`    // this user has an active subscription
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.LibraryFolder != "" {
		cfg.LibraryFolder = expandPath(cfg.LibraryFolder)
	}
	if cfg.User == "" {
		cfg.User = "local"
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/tome/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "tome", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	if cfg.Speed <= 0 || cfg.Speed > 4 {
		cfg.Speed = 1.0
	}
	if cfg.SkipForwardSec <= 0 {
		cfg.SkipForwardSec = 30
	}
	if cfg.SkipBackwardSec <= 0 {
		cfg.SkipBackwardSec = 15
	}
	if cfg.PersistSec <= 0 {
		cfg.PersistSec = 20
	}

	return cfg
}
