// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// UpsertInfluencers merges profiles into the influencers table keyed by
// (entity, platform, username). Follower counts only move upward; empty
// display fields are filled from the incoming row without overwriting
// non-empty stored values. Post count and engagement rate reflect the latest
// batch.
func (db *DB) UpsertInfluencers(ctx context.Context, profiles []models.InfluencerProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO influencers
		 (id, entity_id, platform, username, display_name, avatar_url, bio, location,
		  followers, engagement_rate, post_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (entity_id, platform, username) DO UPDATE SET
		   display_name = CASE WHEN influencers.display_name IS NULL OR influencers.display_name = ''
		                       THEN excluded.display_name ELSE influencers.display_name END,
		   avatar_url = CASE WHEN influencers.avatar_url IS NULL OR influencers.avatar_url = ''
		                     THEN excluded.avatar_url ELSE influencers.avatar_url END,
		   bio = CASE WHEN influencers.bio IS NULL OR influencers.bio = ''
		              THEN excluded.bio ELSE influencers.bio END,
		   location = CASE WHEN influencers.location IS NULL OR influencers.location = ''
		                   THEN excluded.location ELSE influencers.location END,
		   followers = GREATEST(influencers.followers, excluded.followers),
		   engagement_rate = excluded.engagement_rate,
		   post_count = excluded.post_count`)
	if err != nil {
		return fmt.Errorf("failed to prepare influencer upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range profiles {
		id := p.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := stmt.ExecContext(ctx,
			id, p.EntityID, p.Platform, p.Username, p.DisplayName, p.AvatarURL,
			p.Bio, p.Location, p.Followers, p.EngagementRate, p.PostCount); err != nil {
			return fmt.Errorf("failed to upsert influencer %s: %w", p.Username, err)
		}
	}
	return tx.Commit()
}

// ListInfluencers returns stored influencers for one entity and platform
// ordered by follower count descending.
func (db *DB) ListInfluencers(ctx context.Context, entityID uuid.UUID, platform string) ([]models.InfluencerProfile, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, entity_id, platform, username, display_name, avatar_url, bio, location,
		        followers, engagement_rate, post_count
		 FROM influencers
		 WHERE entity_id = ? AND platform = ?
		 ORDER BY followers DESC`,
		entityID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to list influencers: %w", err)
	}
	defer rows.Close()

	var profiles []models.InfluencerProfile
	for rows.Next() {
		var p models.InfluencerProfile
		if err := rows.Scan(&p.ID, &p.EntityID, &p.Platform, &p.Username,
			&p.DisplayName, &p.AvatarURL, &p.Bio, &p.Location,
			&p.Followers, &p.EngagementRate, &p.PostCount); err != nil {
			return nil, fmt.Errorf("failed to scan influencer row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
