// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Package config defines the FanPulse configuration model and loads it via
// Koanf v2 with layered sources: built-in defaults, then an optional YAML
// file, then environment variables (highest priority).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// Config is the root configuration for the pipeline.
type Config struct {
	Providers ProvidersConfig        `koanf:"providers"`
	Routing   map[string]RouteConfig `koanf:"routing"`
	Ingest    IngestConfig           `koanf:"ingest"`
	Trends    TrendsConfig           `koanf:"trends"`
	Database  DatabaseConfig         `koanf:"database"`
	Server    ServerConfig           `koanf:"server"`
	Scheduler SchedulerConfig        `koanf:"scheduler"`
	Logging   LoggingConfig          `koanf:"logging"`

	// Entities optionally seeds the tracked-entity directory on startup.
	// The directory is maintained externally in production; seeds exist for
	// bootstrap and development.
	Entities []SeedEntity `koanf:"entities"`
}

// ProvidersConfig holds credentials and tuning for both scrape backends.
type ProvidersConfig struct {
	ActorRunner ActorRunnerConfig `koanf:"actor_runner"`
	DirectAPI   DirectAPIConfig   `koanf:"direct_api"`

	// Timeout bounds every single provider call. A timed-out call counts as
	// adapter failure and triggers failover, never retry-forever.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RequestsPerSecond caps outbound calls per adapter.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gt=0"`
}

// ActorRunnerConfig configures the managed-actor execution backend.
// Actors maps platform name to the actor id that scrapes it.
type ActorRunnerConfig struct {
	BaseURL string            `koanf:"base_url" validate:"omitempty,url"`
	Token   string            `koanf:"token"`
	Actors  map[string]string `koanf:"actors"`
}

// DirectAPIConfig configures the proxied direct-API backend.
// Hosts maps platform name to the upstream API host serving it.
type DirectAPIConfig struct {
	Key   string            `koanf:"key"`
	Hosts map[string]string `koanf:"hosts"`
}

// RouteConfig assigns the primary and secondary adapter for one platform.
// Provider priority is configuration, not code: outages are handled by
// swapping these values, without touching orchestration logic.
type RouteConfig struct {
	Primary   string `koanf:"primary" validate:"required,oneof=actor-runner direct-api"`
	Secondary string `koanf:"secondary" validate:"omitempty,oneof=actor-runner direct-api"`
}

// IngestConfig tunes the ingestion engine.
type IngestConfig struct {
	// BatchSize is the number of entities ingested concurrently during a
	// fleet run. Unbounded fan-out against providers is the primary
	// operational risk; keep this small.
	BatchSize int `koanf:"batch_size" validate:"gt=0"`

	// BatchDelay is the pause between fleet batches.
	BatchDelay time.Duration `koanf:"batch_delay" validate:"gte=0"`

	// DefaultLimit is the per-scrape item cap passed to adapters.
	DefaultLimit int `koanf:"default_limit" validate:"gt=0"`

	// MinInfluencerFollowers and MinInfluencerPosts are the minimum signal
	// thresholds below which extracted profiles are discarded.
	MinInfluencerFollowers int64 `koanf:"min_influencer_followers" validate:"gte=0"`
	MinInfluencerPosts     int   `koanf:"min_influencer_posts" validate:"gte=0"`

	// InfluencerRegions is the allow-list of place/demonym tokens matched
	// against a profile's location field. A profile with no location is
	// never filtered out.
	InfluencerRegions []string `koanf:"influencer_regions"`

	// DiscoveryMinOccurrences is how often an unmatched hashtag must appear
	// in one batch before it is reported as a discovery candidate.
	DiscoveryMinOccurrences int `koanf:"discovery_min_occurrences" validate:"gt=0"`
}

// TrendsConfig tunes the search-interest batch client.
type TrendsConfig struct {
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`

	// Geo is the comparative-trends geography code (e.g. "PH").
	Geo string `koanf:"geo"`

	// Window is the relative time window string (e.g. "today 3-m").
	Window string `koanf:"window"`

	// BatchSize is the provider's hard per-request keyword cap.
	BatchSize int `koanf:"batch_size" validate:"gt=1"`

	// RetryDelay is slept once before the single retry after an HTTP 429.
	RetryDelay time.Duration `koanf:"retry_delay" validate:"gt=0"`

	// BatchDelay is inserted between batches regardless of outcome, to stay
	// under the provider's implicit rate limit.
	BatchDelay time.Duration `koanf:"batch_delay" validate:"gte=0"`

	// AnchorKeywords is the known-high-traffic allow-list preferred when
	// choosing the shared anchor term. A high-traffic anchor rarely reads
	// as zero, which keeps cross-batch normalization honest.
	AnchorKeywords []string `koanf:"anchor_keywords"`

	// JobStaleAfter is how old a "running" job-status record must be before
	// a new run may steal it (crash recovery).
	JobStaleAfter time.Duration `koanf:"job_stale_after" validate:"gt=0"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"`
}

// ServerConfig configures the HTTP trigger surface.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gt=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// SchedulerConfig configures the background run intervals.
type SchedulerConfig struct {
	Enabled        bool          `koanf:"enabled"`
	IngestInterval time.Duration `koanf:"ingest_interval" validate:"gt=0"`
	TrendsInterval time.Duration `koanf:"trends_interval" validate:"gt=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SeedEntity is a bootstrap tracked entity from the config file.
type SeedEntity struct {
	Name    string            `koanf:"name" validate:"required"`
	Slug    string            `koanf:"slug" validate:"required"`
	Handles map[string]string `koanf:"handles"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			ActorRunner: ActorRunnerConfig{
				BaseURL: "https://api.apify.com",
				Actors: map[string]string{
					models.PlatformTikTok:    "clockworks~tiktok-scraper",
					models.PlatformInstagram: "apify~instagram-scraper",
					models.PlatformTwitter:   "apidojo~tweet-scraper",
					models.PlatformFacebook:  "apify~facebook-posts-scraper",
					models.PlatformYouTube:   "streamers~youtube-scraper",
					models.PlatformReddit:    "trudax~reddit-scraper",
				},
			},
			DirectAPI: DirectAPIConfig{
				Hosts: map[string]string{
					models.PlatformTikTok:    "tiktok-api23.p.rapidapi.com",
					models.PlatformInstagram: "instagram-scraper-api2.p.rapidapi.com",
					models.PlatformTwitter:   "twitter241.p.rapidapi.com",
					models.PlatformFacebook:  "facebook-scraper3.p.rapidapi.com",
					models.PlatformYouTube:   "yt-api.p.rapidapi.com",
					models.PlatformReddit:    "reddit34.p.rapidapi.com",
				},
			},
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
		},
		Routing: map[string]RouteConfig{
			models.PlatformTikTok:    {Primary: "actor-runner", Secondary: "direct-api"},
			models.PlatformInstagram: {Primary: "actor-runner", Secondary: "direct-api"},
			models.PlatformTwitter:   {Primary: "direct-api", Secondary: "actor-runner"},
			models.PlatformFacebook:  {Primary: "actor-runner", Secondary: "direct-api"},
			models.PlatformYouTube:   {Primary: "direct-api", Secondary: "actor-runner"},
			models.PlatformReddit:    {Primary: "direct-api", Secondary: "actor-runner"},
		},
		Ingest: IngestConfig{
			BatchSize:               3,
			BatchDelay:              5 * time.Second,
			DefaultLimit:            50,
			MinInfluencerFollowers:  1000,
			MinInfluencerPosts:      5,
			DiscoveryMinOccurrences: 3,
			InfluencerRegions: []string{
				"philippines", "pilipinas", "filipino", "filipina", "pinoy", "pinay",
				"manila", "quezon", "cebu", "davao", "makati", "taguig", "pasig",
				"baguio", "iloilo", "cavite", "laguna", "batangas", "pampanga",
				"ph", "mnl",
			},
		},
		Trends: TrendsConfig{
			BaseURL:    "https://trends.google.com",
			Geo:        "PH",
			Window:     "today 3-m",
			BatchSize:  5,
			RetryDelay: 30 * time.Second,
			BatchDelay: 5 * time.Second,
			AnchorKeywords: []string{
				"BTS", "BLACKPINK", "SB19", "Taylor Swift", "K-pop",
			},
			JobStaleAfter: 2 * time.Hour,
		},
		Database: DatabaseConfig{
			Path:      "/data/fanpulse.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8642,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Scheduler: SchedulerConfig{
			Enabled:        false, // Opt-in: runs are usually triggered over HTTP
			IngestInterval: 6 * time.Hour,
			TrendsInterval: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks structural constraints and cross-field rules the struct
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for platform, route := range c.Routing {
		if !models.KnownPlatform(platform) {
			return fmt.Errorf("routing: unknown platform %q", platform)
		}
		if route.Secondary != "" && route.Secondary == route.Primary {
			return fmt.Errorf("routing: %s primary and secondary are both %q", platform, route.Primary)
		}
	}

	for _, seed := range c.Entities {
		for platform := range seed.Handles {
			if !models.KnownPlatform(platform) {
				return fmt.Errorf("entity %s: unknown platform %q", seed.Slug, platform)
			}
		}
		if seed.Slug != strings.ToLower(seed.Slug) {
			return fmt.Errorf("entity %s: slug must be lowercase", seed.Slug)
		}
	}

	return nil
}
