// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Package models defines the canonical records the ingestion pipeline maps
// every provider payload into, plus the structured results its operations
// return. Providers disagree wildly about field names and shapes; nothing
// outside internal/normalize should ever see a raw payload.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Supported social platforms. Platform identifiers are lowercase strings so
// they can flow directly through config, URLs and database rows.
const (
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformYouTube   = "youtube"
	PlatformReddit    = "reddit"
)

// Platforms lists every platform the pipeline knows how to normalize.
var Platforms = []string{
	PlatformTikTok,
	PlatformInstagram,
	PlatformTwitter,
	PlatformFacebook,
	PlatformYouTube,
	PlatformReddit,
}

// KnownPlatform reports whether the pipeline has a normalizer for p.
func KnownPlatform(p string) bool {
	for _, known := range Platforms {
		if known == p {
			return true
		}
	}
	return false
}

// TrackedEntity is a named subject (a fandom) with its per-platform handles.
// Entities are maintained by the external directory; the pipeline treats them
// as read-only apart from the best-effort follower write-back on handles.
type TrackedEntity struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	Platforms []PlatformHandle `json:"platforms"`
	CreatedAt time.Time        `json:"created_at"`
}

// PlatformHandle binds an entity to one account on one platform.
// Followers is the last follower count observed during ingestion; it backs
// the zero-follower fallback when a content listing cannot report one.
type PlatformHandle struct {
	Platform  string    `json:"platform"`
	Handle    string    `json:"handle"`
	Followers int64     `json:"followers"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RawItem is one opaque payload fragment as returned by a provider adapter,
// tagged with the adapter that produced it. Raw items are ephemeral and are
// never persisted verbatim.
type RawItem struct {
	Fields map[string]any `json:"fields"`
	Source string         `json:"source"`
}

// ContentItem is the canonical post/video/thread record. (EntityID,
// Platform, ExternalID) is unique; re-ingesting a known external id is a
// no-op, never an overwrite.
type ContentItem struct {
	ID          uuid.UUID  `json:"id"`
	EntityID    uuid.UUID  `json:"entity_id"`
	Platform    string     `json:"platform"`
	ExternalID  string     `json:"external_id"`
	ContentType string     `json:"content_type"`
	Text        string     `json:"text,omitempty"`
	URL         string     `json:"url,omitempty"`
	Likes       int64      `json:"likes"`
	Comments    int64      `json:"comments"`
	Shares      int64      `json:"shares"`
	Views       int64      `json:"views"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Hashtags    []string   `json:"hashtags,omitempty"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MetricSnapshot is one row per (entity, platform, day). GrowthRate is always
// derived from the most recent prior snapshot, never provider-supplied.
type MetricSnapshot struct {
	ID              uuid.UUID `json:"id"`
	EntityID        uuid.UUID `json:"entity_id"`
	Platform        string    `json:"platform"`
	Date            time.Time `json:"date"`
	Followers       int64     `json:"followers"`
	PostsCount      int64     `json:"posts_count"`
	EngagementTotal int64     `json:"engagement_total"`
	EngagementRate  float64   `json:"engagement_rate"`
	GrowthRate      float64   `json:"growth_rate"`
	AvgLikes        float64   `json:"avg_likes"`
	AvgComments     float64   `json:"avg_comments"`
	AvgShares       float64   `json:"avg_shares"`
}

// InfluencerProfile is an account that posts about an entity, keyed by
// (entity, platform, username). On conflict the higher follower count wins
// and previously-null display fields are filled in. PostCount is the
// appearance count within a single ingestion batch, not a lifetime total.
type InfluencerProfile struct {
	ID             uuid.UUID `json:"id"`
	EntityID       uuid.UUID `json:"entity_id"`
	Platform       string    `json:"platform"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Location       string    `json:"location,omitempty"`
	Followers      int64     `json:"followers"`
	EngagementRate float64   `json:"engagement_rate"`
	PostCount      int       `json:"post_count"`
}

// DiscoveryCandidate is an advisory signal: a hashtag or mention frequent
// enough in a batch to suggest an untracked fandom. Never persisted by the
// pipeline; downstream triage decides what to do with it.
type DiscoveryCandidate struct {
	Tag         string `json:"tag"`
	Occurrences int    `json:"occurrences"`
}

// TrendPoint is one search-interest observation on the normalized 0-100
// scale. A re-collection replaces the full series for a keyword.
type TrendPoint struct {
	Keyword  string    `json:"keyword"`
	Date     time.Time `json:"date"`
	Interest int       `json:"interest"`
	Region   string    `json:"region"`
}

// ScrapeParams carries the request parameters of one adapter call.
type ScrapeParams struct {
	Handle  string `json:"handle"`
	Keyword string `json:"keyword,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// ScrapeResult is the contract boundary of provider adapters and the
// failover orchestrator. Adapters never return Go errors or panic across
// this boundary; failures are captured in Error.
type ScrapeResult struct {
	Success           bool      `json:"success"`
	Items             []RawItem `json:"items"`
	Source            string    `json:"source"`
	FailoverTriggered bool      `json:"failover_triggered"`
	Error             string    `json:"error,omitempty"`
}

// IngestResult reports one (entity, platform) ingestion unit of work.
type IngestResult struct {
	Success         bool                 `json:"success"`
	EntityID        uuid.UUID            `json:"entity_id"`
	Platform        string               `json:"platform"`
	Source          string               `json:"source,omitempty"`
	ItemsCount      int                  `json:"items_count"`
	InfluencerCount int                  `json:"influencer_count"`
	Discoveries     []DiscoveryCandidate `json:"discoveries,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// FleetReport summarizes a full-fleet ingestion run.
type FleetReport struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []IngestResult `json:"results"`
}

// KeywordSeries is the per-keyword outcome of a trends collection. A keyword
// whose series could not be obtained carries Error and empty DataPoints; it
// never invalidates other keywords in the run.
type KeywordSeries struct {
	Keyword    string       `json:"keyword"`
	DataPoints []TrendPoint `json:"data_points"`
	Error      string       `json:"error,omitempty"`
}

// TrendsReport summarizes a trends collection run.
type TrendsReport struct {
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	PerKeyword []KeywordSeries `json:"per_keyword"`
}

// Job status values for the persisted job_status record.
const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobStatus is the persisted state of a long-running job (e.g. the trends
// collector). "Start if not already running" is a compare-and-set on this
// record so the guard survives process restarts.
type JobStatus struct {
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Detail     string     `json:"detail,omitempty"`
}
