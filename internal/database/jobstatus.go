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

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// ErrJobRunning is returned by TryStartJob when the named job already has a
// live running row.
var ErrJobRunning = errors.New("job already running")

// TryStartJob claims the named job. It fails with ErrJobRunning if another
// run holds the job and its started_at is younger than staleAfter; a running
// row older than that is treated as abandoned and taken over. The claim is a
// single conditional update so concurrent callers cannot both win.
func (db *DB) TryStartJob(ctx context.Context, name string, staleAfter time.Duration) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	staleBefore := now.Add(-staleAfter)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE job_status
		 SET status = ?, started_at = ?, finished_at = NULL, detail = ''
		 WHERE name = ? AND (status != ? OR started_at < ?)`,
		models.JobStatusRunning, now, name, models.JobStatusRunning, staleBefore)
	if err != nil {
		return fmt.Errorf("failed to claim job %s: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read claim result for %s: %w", name, err)
	}
	if affected > 0 {
		return nil
	}

	// No row updated: either the job is genuinely running, or no row exists.
	var status string
	err = db.conn.QueryRowContext(ctx,
		`SELECT status FROM job_status WHERE name = ?`, name).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO job_status (name, status, started_at) VALUES (?, ?, ?)
			 ON CONFLICT (name) DO NOTHING`,
			name, models.JobStatusRunning, now); err != nil {
			return fmt.Errorf("failed to create job %s: %w", name, err)
		}
		// Verify the insert won; a concurrent claimer may have raced us.
		var startedAt time.Time
		if err := db.conn.QueryRowContext(ctx,
			`SELECT started_at FROM job_status WHERE name = ? AND status = ?`,
			name, models.JobStatusRunning).Scan(&startedAt); err != nil {
			return fmt.Errorf("failed to verify claim for %s: %w", name, err)
		}
		if !startedAt.UTC().Equal(now) {
			return ErrJobRunning
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to inspect job %s: %w", name, err)
	default:
		return ErrJobRunning
	}
}

// FinishJob records the terminal status of a previously claimed job.
func (db *DB) FinishJob(ctx context.Context, name, status, detail string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE job_status SET status = ?, finished_at = ?, detail = ? WHERE name = ?`,
		status, time.Now().UTC(), detail, name)
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", name, err)
	}
	return nil
}

// GetJobStatus returns the stored state of one job.
func (db *DB) GetJobStatus(ctx context.Context, name string) (*models.JobStatus, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	job := &models.JobStatus{}
	var finishedAt sql.NullTime
	var detail sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT name, status, started_at, finished_at, detail FROM job_status WHERE name = ?`,
		name).Scan(&job.Name, &job.Status, &job.StartedAt, &finishedAt, &detail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", name, err)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	job.Detail = detail.String
	return job, nil
}

// ListJobStatuses returns every known job row for the status endpoint.
func (db *DB) ListJobStatuses(ctx context.Context) ([]models.JobStatus, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, status, started_at, finished_at, detail FROM job_status ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.JobStatus
	for rows.Next() {
		var job models.JobStatus
		var finishedAt sql.NullTime
		var detail sql.NullString
		if err := rows.Scan(&job.Name, &job.Status, &job.StartedAt, &finishedAt, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			job.FinishedAt = &t
		}
		job.Detail = detail.String
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
