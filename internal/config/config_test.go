// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	for _, platform := range []string{"tiktok", "instagram", "twitter", "facebook", "youtube", "reddit"} {
		if _, ok := cfg.Routing[platform]; !ok {
			t.Errorf("default routing missing platform %s", platform)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "unknown routed platform",
			mutate: func(c *Config) { c.Routing["myspace"] = RouteConfig{Primary: "actor-runner"} },
		},
		{
			name:   "same primary and secondary",
			mutate: func(c *Config) { c.Routing["tiktok"] = RouteConfig{Primary: "direct-api", Secondary: "direct-api"} },
		},
		{
			name:   "unknown adapter name",
			mutate: func(c *Config) { c.Routing["tiktok"] = RouteConfig{Primary: "webdriver"} },
		},
		{
			name:   "zero batch size",
			mutate: func(c *Config) { c.Ingest.BatchSize = 0 },
		},
		{
			name:   "trends batch size of one cannot share an anchor",
			mutate: func(c *Config) { c.Trends.BatchSize = 1 },
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
		},
		{
			name: "seed with unknown platform",
			mutate: func(c *Config) {
				c.Entities = []SeedEntity{{Name: "SB19", Slug: "sb19", Handles: map[string]string{"friendster": "x"}}}
			},
		},
		{
			name: "seed with uppercase slug",
			mutate: func(c *Config) {
				c.Entities = []SeedEntity{{Name: "SB19", Slug: "SB19"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
trends:
  geo: "US"
ingest:
  batch_size: 7
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("FANPULSE_TRENDS__GEO", "JP") // env beats file

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trends.Geo != "JP" {
		t.Errorf("Trends.Geo = %q, want JP (env over file)", cfg.Trends.Geo)
	}
	if cfg.Ingest.BatchSize != 7 {
		t.Errorf("Ingest.BatchSize = %d, want 7 (file over default)", cfg.Ingest.BatchSize)
	}
	if cfg.Trends.BatchSize != 5 {
		t.Errorf("Trends.BatchSize = %d, want default 5", cfg.Trends.BatchSize)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ingest:\n  batch_size: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Error("expected validation failure for negative batch size")
	}
}
