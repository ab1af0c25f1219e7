package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		PoolSize        int    `yaml:"pool_size"`
		CacheTTL        string `yaml:"cache_ttl"`
		WeeklyWindow    string `yaml:"weekly_window"`
		LeaderboardSize int    `yaml:"leaderboard_size"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
// A "d" suffix is accepted for whole days (e.g. "7d").
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n := len(raw); n > 1 && raw[n-1] == 'd' {
		if d, err := time.ParseDuration(raw[:n-1] + "h"); err == nil {
			return d * 24
		}
	}
	return fallback
}

// IntOr returns v unless it is not positive.
func IntOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
