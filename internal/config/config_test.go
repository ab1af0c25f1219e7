package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
redis:
  addr: localhost:6379
quiz:
  pool_size: 15
  weekly_window: 7d
  leaderboard_size: 25
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Quiz.PoolSize != 15 || cfg.Quiz.LeaderboardSize != 25 {
		t.Fatalf("unexpected quiz section %+v", cfg.Quiz)
	}
	if got := Duration(cfg.Quiz.WeeklyWindow, time.Hour); got != 7*24*time.Hour {
		t.Fatalf("expected 7 days, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDurationFallbacks(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Minute},
		{"garbage", time.Minute},
		{"90s", 90 * time.Second},
		{"2d", 48 * time.Hour},
	}
	for _, tc := range cases {
		if got := Duration(tc.raw, time.Minute); got != tc.want {
			t.Errorf("Duration(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
	if IntOr(0, 20) != 20 || IntOr(5, 20) != 5 {
		t.Errorf("IntOr fallback mismatch")
	}
}
