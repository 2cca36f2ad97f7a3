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

// UpsertTrackedEntity inserts the entity by slug or returns the existing row's
// id. Handles are merged per platform: new handles are inserted, existing ones
// keep their stored follower count.
func (db *DB) UpsertTrackedEntity(ctx context.Context, entity *models.TrackedEntity) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var existingID uuid.UUID
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM tracked_entities WHERE slug = ?`, entity.Slug).Scan(&existingID)
	switch {
	case err == nil:
		entity.ID = existingID
	case errors.Is(err, sql.ErrNoRows):
		if entity.ID == uuid.Nil {
			entity.ID = uuid.New()
		}
		entity.CreatedAt = time.Now().UTC()
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO tracked_entities (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
			entity.ID, entity.Name, entity.Slug, entity.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert entity %s: %w", entity.Slug, err)
		}
	default:
		return fmt.Errorf("failed to look up entity %s: %w", entity.Slug, err)
	}

	for _, h := range entity.Platforms {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO platform_handles (entity_id, platform, handle, followers, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (entity_id, platform) DO UPDATE SET
			   handle = excluded.handle,
			   updated_at = excluded.updated_at`,
			entity.ID, h.Platform, h.Handle, h.Followers, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to upsert handle %s/%s: %w", entity.Slug, h.Platform, err)
		}
	}
	return nil
}

// GetTrackedEntity loads one entity with its platform handles.
func (db *DB) GetTrackedEntity(ctx context.Context, id uuid.UUID) (*models.TrackedEntity, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	entity := &models.TrackedEntity{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM tracked_entities WHERE id = ?`, id).
		Scan(&entity.ID, &entity.Name, &entity.Slug, &entity.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entity %s: %w", id, err)
	}

	handles, err := db.entityHandles(ctx, id)
	if err != nil {
		return nil, err
	}
	entity.Platforms = handles
	return entity, nil
}

// ListTrackedEntities returns all entities with handles, ordered by name.
func (db *DB) ListTrackedEntities(ctx context.Context) ([]models.TrackedEntity, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, slug, created_at FROM tracked_entities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []models.TrackedEntity
	for rows.Next() {
		var e models.TrackedEntity
		if err := rows.Scan(&e.ID, &e.Name, &e.Slug, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entities {
		handles, err := db.entityHandles(ctx, entities[i].ID)
		if err != nil {
			return nil, err
		}
		entities[i].Platforms = handles
	}
	return entities, nil
}

func (db *DB) entityHandles(ctx context.Context, entityID uuid.UUID) ([]models.PlatformHandle, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT platform, handle, followers, updated_at
		 FROM platform_handles WHERE entity_id = ? ORDER BY platform`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load handles for %s: %w", entityID, err)
	}
	defer rows.Close()

	var handles []models.PlatformHandle
	for rows.Next() {
		var h models.PlatformHandle
		if err := rows.Scan(&h.Platform, &h.Handle, &h.Followers, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan handle row: %w", err)
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

// GetHandleFollowers returns the stored follower count for one handle.
func (db *DB) GetHandleFollowers(ctx context.Context, entityID uuid.UUID, platform string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var followers int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT followers FROM platform_handles WHERE entity_id = ? AND platform = ?`,
		entityID, platform).Scan(&followers)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read followers for %s/%s: %w", entityID, platform, err)
	}
	return followers, nil
}

// UpdateHandleFollowers writes the latest observed follower count back to the
// handle row so later runs with a missing follower field can fall back to it.
func (db *DB) UpdateHandleFollowers(ctx context.Context, entityID uuid.UUID, platform string, followers int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE platform_handles SET followers = ?, updated_at = ?
		 WHERE entity_id = ? AND platform = ?`,
		followers, time.Now().UTC(), entityID, platform)
	if err != nil {
		return fmt.Errorf("failed to update followers for %s/%s: %w", entityID, platform, err)
	}
	return nil
}
