// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package trends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/database"
	"github.com/fanpulse-io/fanpulse/internal/logging"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

// JobName keys the persisted run guard for trends collection.
const JobName = "trends_collection"

// Store is the persistence surface the collector needs; *database.DB
// satisfies it.
type Store interface {
	ListTrackedEntities(ctx context.Context) ([]models.TrackedEntity, error)
	ReplaceTrendPoints(ctx context.Context, entityID uuid.UUID, keyword string, points []models.TrendPoint) error
	TryStartJob(ctx context.Context, name string, staleAfter time.Duration) error
	FinishJob(ctx context.Context, name, status, detail string) error
}

// ErrAlreadyRunning is returned when a collection run is refused because
// another one holds the persisted job record.
var ErrAlreadyRunning = errors.New("trends collection already running")

// Collector runs trends collection for tracked entities and persists the
// resulting series. The "one run at a time" guard is a compare-and-set on a
// persisted job record, so it survives restarts and is visible to every
// process sharing the store.
type Collector struct {
	store  Store
	client *Client
	cfg    config.TrendsConfig
}

// NewCollector wires a collector.
func NewCollector(store Store, client *Client, cfg config.TrendsConfig) *Collector {
	return &Collector{store: store, client: client, cfg: cfg}
}

// Collect gathers search-interest series for tracked entities, using each
// entity's name as its keyword. An empty entityIDs selects the whole fleet.
// Per-keyword failures are reported in the result, never raised.
func (c *Collector) Collect(ctx context.Context, entityIDs []uuid.UUID) (*models.TrendsReport, error) {
	if err := c.store.TryStartJob(ctx, JobName, c.cfg.JobStaleAfter); err != nil {
		if errors.Is(err, database.ErrJobRunning) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("failed to claim trends job: %w", err)
	}

	report, err := c.collect(ctx, entityIDs)
	status := models.JobStatusCompleted
	detail := ""
	if err != nil {
		status = models.JobStatusFailed
		detail = err.Error()
	} else {
		detail = fmt.Sprintf("%d/%d keywords collected", report.Succeeded, report.Total)
	}
	if finishErr := c.store.FinishJob(ctx, JobName, status, detail); finishErr != nil {
		logging.Error().Err(finishErr).Msg("failed to record trends job outcome")
	}
	return report, err
}

func (c *Collector) collect(ctx context.Context, entityIDs []uuid.UUID) (*models.TrendsReport, error) {
	entities, err := c.store.ListTrackedEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked entities: %w", err)
	}
	if len(entityIDs) > 0 {
		wanted := make(map[uuid.UUID]bool, len(entityIDs))
		for _, id := range entityIDs {
			wanted[id] = true
		}
		filtered := entities[:0]
		for _, e := range entities {
			if wanted[e.ID] {
				filtered = append(filtered, e)
			}
		}
		entities = filtered
	}
	if len(entities) == 0 {
		return &models.TrendsReport{}, nil
	}

	// Entities sharing a name share one keyword fetch; the series is
	// persisted under every entity carrying that name.
	byKeyword := make(map[string][]uuid.UUID, len(entities))
	keywords := make([]string, 0, len(entities))
	for _, e := range entities {
		if _, ok := byKeyword[e.Name]; !ok {
			keywords = append(keywords, e.Name)
		}
		byKeyword[e.Name] = append(byKeyword[e.Name], e.ID)
	}

	report := c.client.CollectKeywords(ctx, keywords)

	for i, entry := range report.PerKeyword {
		if entry.Error != "" {
			continue
		}
		for _, entityID := range byKeyword[entry.Keyword] {
			if err := c.store.ReplaceTrendPoints(ctx, entityID, entry.Keyword, entry.DataPoints); err != nil {
				// Persistence failure demotes the keyword, not the run.
				report.PerKeyword[i].Error = fmt.Sprintf("persist: %v", err)
				report.PerKeyword[i].DataPoints = nil
				report.Succeeded--
				report.Failed++
				break
			}
		}
	}

	logging.Info().
		Int("total", report.Total).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("trends collection finished")
	return report, nil
}
