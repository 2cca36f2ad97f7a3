// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// ExistingContentIDs returns which of the given external ids already exist for
// the entity. The lookup is batched into a single IN query so dedup stays one
// round-trip per ingestion.
func (db *DB) ExistingContentIDs(ctx context.Context, entityID uuid.UUID, externalIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(externalIDs))
	if len(externalIDs) == 0 {
		return existing, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders := make([]string, len(externalIDs))
	args := make([]any, 0, len(externalIDs)+1)
	args = append(args, entityID)
	for i, id := range externalIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`SELECT external_id FROM content_items WHERE entity_id = ? AND external_id IN (%s)`,
		strings.Join(placeholders, ", "))
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing content: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var externalID string
		if err := rows.Scan(&externalID); err != nil {
			return nil, fmt.Errorf("failed to scan external id: %w", err)
		}
		existing[externalID] = true
	}
	return existing, rows.Err()
}

// InsertContentItems stores new content rows. Callers are expected to have
// filtered out existing external ids via ExistingContentIDs.
func (db *DB) InsertContentItems(ctx context.Context, items []models.ContentItem) error {
	if len(items) == 0 {
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
		`INSERT INTO content_items
		 (id, entity_id, platform, external_id, content_type, text, url,
		  likes, comments, shares, views, published_at, hashtags, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare content insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		id := item.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := stmt.ExecContext(ctx,
			id, item.EntityID, item.Platform, item.ExternalID, item.ContentType,
			item.Text, item.URL, item.Likes, item.Comments, item.Shares, item.Views,
			item.PublishedAt, strings.Join(item.Hashtags, ","), item.Source,
			item.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert content %s: %w", item.ExternalID, err)
		}
	}
	return tx.Commit()
}

// ListContentItems returns stored content for one entity and platform, newest
// first, limited to limit rows (0 means no limit).
func (db *DB) ListContentItems(ctx context.Context, entityID uuid.UUID, platform string, limit int) ([]models.ContentItem, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, entity_id, platform, external_id, content_type, text, url,
	                 likes, comments, shares, views, published_at, hashtags, source, created_at
	          FROM content_items
	          WHERE entity_id = ? AND platform = ?
	          ORDER BY published_at DESC NULLS LAST, created_at DESC`
	args := []any{entityID, platform}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		var item models.ContentItem
		var hashtags string
		if err := rows.Scan(&item.ID, &item.EntityID, &item.Platform, &item.ExternalID,
			&item.ContentType, &item.Text, &item.URL,
			&item.Likes, &item.Comments, &item.Shares, &item.Views,
			&item.PublishedAt, &hashtags, &item.Source, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		if hashtags != "" {
			item.Hashtags = strings.Split(hashtags, ",")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
