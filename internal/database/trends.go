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

// ReplaceTrendPoints swaps the stored series for one entity and keyword with
// the freshly collected one. Delete and insert run in one transaction so a
// failed collection never leaves a half-written series.
func (db *DB) ReplaceTrendPoints(ctx context.Context, entityID uuid.UUID, keyword string, points []models.TrendPoint) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM trend_points WHERE entity_id = ? AND keyword = ?`,
		entityID, keyword); err != nil {
		return fmt.Errorf("failed to clear trend points for %q: %w", keyword, err)
	}

	if len(points) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO trend_points (entity_id, keyword, point_date, interest, region)
			 VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare trend insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			if _, err := stmt.ExecContext(ctx,
				entityID, keyword, p.Date, p.Interest, p.Region); err != nil {
				return fmt.Errorf("failed to insert trend point for %q: %w", keyword, err)
			}
		}
	}
	return tx.Commit()
}

// ListTrendPoints returns the stored series for one entity and keyword
// ordered by date.
func (db *DB) ListTrendPoints(ctx context.Context, entityID uuid.UUID, keyword string) ([]models.TrendPoint, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT keyword, point_date, interest, region
		 FROM trend_points
		 WHERE entity_id = ? AND keyword = ?
		 ORDER BY point_date`,
		entityID, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to list trend points: %w", err)
	}
	defer rows.Close()

	var points []models.TrendPoint
	for rows.Next() {
		var p models.TrendPoint
		if err := rows.Scan(&p.Keyword, &p.Date, &p.Interest, &p.Region); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
