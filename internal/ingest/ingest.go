// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Package ingest drives the per-entity acquisition pipeline: scrape through
// the failover orchestrator, normalize, dedup, snapshot, and extract
// influencer and discovery signals.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/database"
	"github.com/fanpulse-io/fanpulse/internal/logging"
	"github.com/fanpulse-io/fanpulse/internal/metrics"
	"github.com/fanpulse-io/fanpulse/internal/models"
	"github.com/fanpulse-io/fanpulse/internal/normalize"
)

// Store is the persistence surface the engine needs. *database.DB satisfies
// it; tests substitute an in-memory fake.
type Store interface {
	GetTrackedEntity(ctx context.Context, id uuid.UUID) (*models.TrackedEntity, error)
	ListTrackedEntities(ctx context.Context) ([]models.TrackedEntity, error)
	ExistingContentIDs(ctx context.Context, entityID uuid.UUID, externalIDs []string) (map[string]bool, error)
	InsertContentItems(ctx context.Context, items []models.ContentItem) error
	GetLatestSnapshotBefore(ctx context.Context, entityID uuid.UUID, platform string, day time.Time) (*models.MetricSnapshot, error)
	UpsertSnapshot(ctx context.Context, snap *models.MetricSnapshot) error
	UpsertInfluencers(ctx context.Context, profiles []models.InfluencerProfile) error
	GetHandleFollowers(ctx context.Context, entityID uuid.UUID, platform string) (int64, error)
	UpdateHandleFollowers(ctx context.Context, entityID uuid.UUID, platform string, followers int64) error
}

// Scraper is the acquisition surface; the failover orchestrator satisfies it.
type Scraper interface {
	Scrape(ctx context.Context, platform string, params models.ScrapeParams) models.ScrapeResult
}

// Engine runs ingestion units of work. Concurrent runs for the same
// (entity, platform) pair are serialized; distinct pairs proceed in
// parallel.
type Engine struct {
	store   Store
	scraper Scraper
	cfg     config.IngestConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine wires the pipeline together.
func NewEngine(store Store, scraper Scraper, cfg config.IngestConfig) *Engine {
	return &Engine{
		store:   store,
		scraper: scraper,
		cfg:     cfg,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (e *Engine) pairLock(entityID uuid.UUID, platform string) *sync.Mutex {
	key := entityID.String() + "/" + platform
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	return lock
}

// Ingest runs one (entity, platform) unit of work. Failures mid-pipeline
// keep whatever was already persisted; the returned result reports the first
// error.
func (e *Engine) Ingest(ctx context.Context, entityID uuid.UUID, platform string) models.IngestResult {
	lock := e.pairLock(entityID, platform)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	result := e.ingest(ctx, entityID, platform)
	metrics.IngestDuration.WithLabelValues(platform).Observe(time.Since(start).Seconds())
	status := "success"
	if !result.Success {
		status = "failure"
	}
	metrics.IngestRuns.WithLabelValues(platform, status).Inc()

	evt := logging.Info()
	if !result.Success {
		evt = logging.Warn()
	}
	evt.Str("entity_id", entityID.String()).
		Str("platform", platform).
		Str("source", result.Source).
		Int("items", result.ItemsCount).
		Int("influencers", result.InfluencerCount).
		Bool("success", result.Success).
		Str("error", result.Error).
		Dur("elapsed", time.Since(start)).
		Msg("ingestion finished")
	return result
}

func (e *Engine) ingest(ctx context.Context, entityID uuid.UUID, platform string) models.IngestResult {
	result := models.IngestResult{EntityID: entityID, Platform: platform}

	if !models.KnownPlatform(platform) {
		result.Error = fmt.Sprintf("unknown platform %q", platform)
		return result
	}

	entity, err := e.store.GetTrackedEntity(ctx, entityID)
	if err != nil {
		result.Error = fmt.Sprintf("entity lookup: %v", err)
		return result
	}

	var handle string
	for _, h := range entity.Platforms {
		if h.Platform == platform {
			handle = h.Handle
			break
		}
	}
	if handle == "" {
		result.Error = fmt.Sprintf("entity %s has no %s handle", entity.Slug, platform)
		return result
	}

	scrape := e.scraper.Scrape(ctx, platform, models.ScrapeParams{
		Handle:  handle,
		Keyword: entity.Name,
		Limit:   e.cfg.DefaultLimit,
	})
	result.Source = scrape.Source
	if !scrape.Success {
		result.Error = scrape.Error
		return result
	}

	items := normalize.Content(platform, scrape.Items, entityID)
	inserted, err := e.persistContent(ctx, entityID, platform, items)
	if err != nil {
		result.Error = fmt.Sprintf("content persistence: %v", err)
		return result
	}
	result.ItemsCount = inserted

	if err := e.persistSnapshot(ctx, entityID, platform, scrape.Items); err != nil {
		result.Error = fmt.Sprintf("snapshot: %v", err)
		return result
	}

	profiles := e.filterInfluencers(normalize.Influencers(platform, scrape.Items, entityID))
	if err := e.store.UpsertInfluencers(ctx, profiles); err != nil {
		result.Error = fmt.Sprintf("influencer persistence: %v", err)
		return result
	}
	result.InfluencerCount = len(profiles)
	metrics.InfluencersUpserted.WithLabelValues(platform).Add(float64(len(profiles)))

	tracked, err := e.store.ListTrackedEntities(ctx)
	if err != nil {
		// Discovery is advisory; a directory read failure only costs the
		// candidate list, not the ingestion.
		logging.Warn().Err(err).Msg("directory read for discovery failed")
		tracked = []models.TrackedEntity{*entity}
	}
	result.Discoveries = e.discoveryCandidates(tracked, items)
	metrics.DiscoveryCandidates.Add(float64(len(result.Discoveries)))

	result.Success = true
	return result
}

// persistContent dedups the batch against stored external ids and inserts
// only new rows. Returns the inserted count.
func (e *Engine) persistContent(ctx context.Context, entityID uuid.UUID, platform string, items []models.ContentItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	externalIDs := make([]string, 0, len(items))
	for _, item := range items {
		externalIDs = append(externalIDs, item.ExternalID)
	}
	existing, err := e.store.ExistingContentIDs(ctx, entityID, externalIDs)
	if err != nil {
		return 0, err
	}

	fresh := make([]models.ContentItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if existing[item.ExternalID] || seen[item.ExternalID] {
			continue
		}
		seen[item.ExternalID] = true
		fresh = append(fresh, item)
	}
	if err := e.store.InsertContentItems(ctx, fresh); err != nil {
		return 0, err
	}
	metrics.ContentItemsInserted.WithLabelValues(platform).Add(float64(len(fresh)))
	return len(fresh), nil
}

// persistSnapshot computes today's profile metrics and upserts the daily
// row. Growth is measured against the latest snapshot strictly before today;
// with no prior history growth is zero. When the batch exposed no follower
// count the stored handle count stands in, and a positive observed count is
// written back to the handle best-effort.
func (e *Engine) persistSnapshot(ctx context.Context, entityID uuid.UUID, platform string, raw []models.RawItem) error {
	pm := normalize.Metrics(platform, raw)

	followers := pm.Followers
	if followers == 0 {
		stored, err := e.store.GetHandleFollowers(ctx, entityID, platform)
		if err == nil {
			followers = stored
		} else if !errors.Is(err, database.ErrNotFound) {
			return err
		}
	}

	now := time.Now().UTC()
	growth := 0.0
	prior, err := e.store.GetLatestSnapshotBefore(ctx, entityID, platform, now)
	switch {
	case err == nil:
		if prior.Followers > 0 {
			growth = float64(followers-prior.Followers) / float64(prior.Followers) * 100
		}
	case errors.Is(err, database.ErrNotFound):
		// First snapshot for the pair.
	default:
		return err
	}

	engagementRate := 0.0
	if followers > 0 {
		engagementRate = (pm.AvgLikes() + pm.AvgComments() + pm.AvgShares()) / float64(followers) * 100
	}

	snap := &models.MetricSnapshot{
		EntityID:        entityID,
		Platform:        platform,
		Date:            now,
		Followers:       followers,
		PostsCount:      pm.PostsCount,
		EngagementTotal: pm.EngagementTotal(),
		EngagementRate:  engagementRate,
		GrowthRate:      growth,
		AvgLikes:        pm.AvgLikes(),
		AvgComments:     pm.AvgComments(),
		AvgShares:       pm.AvgShares(),
	}
	if err := e.store.UpsertSnapshot(ctx, snap); err != nil {
		return err
	}
	metrics.SnapshotsUpserted.WithLabelValues(platform).Inc()

	if pm.Followers > 0 {
		if err := e.store.UpdateHandleFollowers(ctx, entityID, platform, pm.Followers); err != nil {
			logging.Warn().Err(err).
				Str("entity_id", entityID.String()).
				Str("platform", platform).
				Msg("handle follower write-back failed")
		}
	}
	return nil
}

// IngestAllPlatforms runs every platform the entity has a handle for,
// concurrently. Result order follows the entity's handle order.
func (e *Engine) IngestAllPlatforms(ctx context.Context, entityID uuid.UUID) []models.IngestResult {
	entity, err := e.store.GetTrackedEntity(ctx, entityID)
	if err != nil {
		return []models.IngestResult{{
			EntityID: entityID,
			Error:    fmt.Sprintf("entity lookup: %v", err),
		}}
	}

	results := make([]models.IngestResult, len(entity.Platforms))
	var wg sync.WaitGroup
	for i, h := range entity.Platforms {
		wg.Add(1)
		go func(i int, platform string) {
			defer wg.Done()
			results[i] = e.Ingest(ctx, entityID, platform)
		}(i, h.Platform)
	}
	wg.Wait()
	return results
}

// IngestFleet runs the whole tracked fleet in bounded batches with a pause
// between batches. Cancellation is honored at batch boundaries; units
// already in flight run to completion.
func (e *Engine) IngestFleet(ctx context.Context) (*models.FleetReport, error) {
	entities, err := e.store.ListTrackedEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked entities: %w", err)
	}

	report := &models.FleetReport{}
	for offset := 0; offset < len(entities); offset += e.cfg.BatchSize {
		if offset > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(e.cfg.BatchDelay):
			}
		}

		end := offset + e.cfg.BatchSize
		if end > len(entities) {
			end = len(entities)
		}
		batch := entities[offset:end]

		batchResults := make([][]models.IngestResult, len(batch))
		var wg sync.WaitGroup
		for i, entity := range batch {
			wg.Add(1)
			go func(i int, id uuid.UUID) {
				defer wg.Done()
				batchResults[i] = e.IngestAllPlatforms(ctx, id)
			}(i, entity.ID)
		}
		wg.Wait()

		for _, results := range batchResults {
			for _, r := range results {
				report.Total++
				if r.Success {
					report.Succeeded++
				} else {
					report.Failed++
				}
				report.Results = append(report.Results, r)
			}
		}
	}

	logging.Info().
		Int("total", report.Total).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("fleet ingestion finished")
	return report, nil
}
