// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// snapshotDay truncates to a calendar date in UTC. All snapshot keys use this
// form so same-day runs collapse onto one row.
func snapshotDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetLatestSnapshotBefore returns the most recent snapshot strictly before
// the given day. Same-day rows are excluded so a re-run never computes growth
// against its own earlier write.
func (db *DB) GetLatestSnapshotBefore(ctx context.Context, entityID uuid.UUID, platform string, day time.Time) (*models.MetricSnapshot, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	snap := &models.MetricSnapshot{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, entity_id, platform, snapshot_date, followers, posts_count,
		        engagement_total, engagement_rate, growth_rate,
		        avg_likes, avg_comments, avg_shares
		 FROM metric_snapshots
		 WHERE entity_id = ? AND platform = ? AND snapshot_date < ?
		 ORDER BY snapshot_date DESC
		 LIMIT 1`,
		entityID, platform, snapshotDay(day)).
		Scan(&snap.ID, &snap.EntityID, &snap.Platform, &snap.Date,
			&snap.Followers, &snap.PostsCount, &snap.EngagementTotal,
			&snap.EngagementRate, &snap.GrowthRate,
			&snap.AvgLikes, &snap.AvgComments, &snap.AvgShares)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prior snapshot for %s/%s: %w", entityID, platform, err)
	}
	return snap, nil
}

// UpsertSnapshot writes the snapshot for its calendar day, replacing any
// existing row for the same entity, platform and date.
func (db *DB) UpsertSnapshot(ctx context.Context, snap *models.MetricSnapshot) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	snap.Date = snapshotDay(snap.Date)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO metric_snapshots
		 (id, entity_id, platform, snapshot_date, followers, posts_count,
		  engagement_total, engagement_rate, growth_rate, avg_likes, avg_comments, avg_shares)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (entity_id, platform, snapshot_date) DO UPDATE SET
		   followers = excluded.followers,
		   posts_count = excluded.posts_count,
		   engagement_total = excluded.engagement_total,
		   engagement_rate = excluded.engagement_rate,
		   growth_rate = excluded.growth_rate,
		   avg_likes = excluded.avg_likes,
		   avg_comments = excluded.avg_comments,
		   avg_shares = excluded.avg_shares`,
		snap.ID, snap.EntityID, snap.Platform, snap.Date,
		snap.Followers, snap.PostsCount, snap.EngagementTotal,
		snap.EngagementRate, snap.GrowthRate,
		snap.AvgLikes, snap.AvgComments, snap.AvgShares)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot for %s/%s: %w", snap.EntityID, snap.Platform, err)
	}
	return nil
}

// ListSnapshots returns snapshots for one entity and platform ordered by date
// ascending.
func (db *DB) ListSnapshots(ctx context.Context, entityID uuid.UUID, platform string) ([]models.MetricSnapshot, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, entity_id, platform, snapshot_date, followers, posts_count,
		        engagement_total, engagement_rate, growth_rate,
		        avg_likes, avg_comments, avg_shares
		 FROM metric_snapshots
		 WHERE entity_id = ? AND platform = ?
		 ORDER BY snapshot_date`,
		entityID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.MetricSnapshot
	for rows.Next() {
		var snap models.MetricSnapshot
		if err := rows.Scan(&snap.ID, &snap.EntityID, &snap.Platform, &snap.Date,
			&snap.Followers, &snap.PostsCount, &snap.EngagementTotal,
			&snap.EngagementRate, &snap.GrowthRate,
			&snap.AvgLikes, &snap.AvgComments, &snap.AvgShares); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
