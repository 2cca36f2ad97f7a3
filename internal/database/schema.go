// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the four logical tables plus the directory and
// job-status tables. Uniqueness constraints carry the idempotence
// guarantees; duplicate-key conflicts on these keys are the intended upsert
// path, not errors.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tracked_entities (
		id UUID PRIMARY KEY,
		name VARCHAR NOT NULL,
		slug VARCHAR NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS platform_handles (
		entity_id UUID NOT NULL,
		platform VARCHAR NOT NULL,
		handle VARCHAR NOT NULL,
		followers BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (entity_id, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS content_items (
		id UUID PRIMARY KEY,
		entity_id UUID NOT NULL,
		platform VARCHAR NOT NULL,
		external_id VARCHAR NOT NULL,
		content_type VARCHAR NOT NULL,
		text VARCHAR,
		url VARCHAR,
		likes BIGINT NOT NULL DEFAULT 0,
		comments BIGINT NOT NULL DEFAULT 0,
		shares BIGINT NOT NULL DEFAULT 0,
		views BIGINT NOT NULL DEFAULT 0,
		published_at TIMESTAMP,
		hashtags VARCHAR,
		source VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (entity_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS metric_snapshots (
		id UUID PRIMARY KEY,
		entity_id UUID NOT NULL,
		platform VARCHAR NOT NULL,
		snapshot_date DATE NOT NULL,
		followers BIGINT NOT NULL DEFAULT 0,
		posts_count BIGINT NOT NULL DEFAULT 0,
		engagement_total BIGINT NOT NULL DEFAULT 0,
		engagement_rate DOUBLE NOT NULL DEFAULT 0,
		growth_rate DOUBLE NOT NULL DEFAULT 0,
		avg_likes DOUBLE NOT NULL DEFAULT 0,
		avg_comments DOUBLE NOT NULL DEFAULT 0,
		avg_shares DOUBLE NOT NULL DEFAULT 0,
		UNIQUE (entity_id, platform, snapshot_date)
	)`,
	`CREATE TABLE IF NOT EXISTS influencers (
		id UUID PRIMARY KEY,
		entity_id UUID NOT NULL,
		platform VARCHAR NOT NULL,
		username VARCHAR NOT NULL,
		display_name VARCHAR,
		avatar_url VARCHAR,
		bio VARCHAR,
		location VARCHAR,
		followers BIGINT NOT NULL DEFAULT 0,
		engagement_rate DOUBLE NOT NULL DEFAULT 0,
		post_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE (entity_id, platform, username)
	)`,
	`CREATE TABLE IF NOT EXISTS trend_points (
		entity_id UUID NOT NULL,
		keyword VARCHAR NOT NULL,
		point_date DATE NOT NULL,
		interest INTEGER NOT NULL DEFAULT 0,
		region VARCHAR NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS job_status (
		name VARCHAR PRIMARY KEY,
		status VARCHAR NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		detail VARCHAR
	)`,
}

func (db *DB) initSchema(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
