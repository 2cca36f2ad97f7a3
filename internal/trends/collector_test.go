// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package trends

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/database"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

type fakeTrendStore struct {
	mu         sync.Mutex
	entities   []models.TrackedEntity
	persisted  map[string][]models.TrendPoint
	byEntityID map[uuid.UUID][]models.TrendPoint
	running    bool
	finished   []string
}

func newFakeTrendStore(entities ...models.TrackedEntity) *fakeTrendStore {
	return &fakeTrendStore{
		entities:   entities,
		persisted:  make(map[string][]models.TrendPoint),
		byEntityID: make(map[uuid.UUID][]models.TrendPoint),
	}
}

func (s *fakeTrendStore) ListTrackedEntities(_ context.Context) ([]models.TrackedEntity, error) {
	return s.entities, nil
}

func (s *fakeTrendStore) ReplaceTrendPoints(_ context.Context, entityID uuid.UUID, keyword string, points []models.TrendPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted[keyword] = points
	s.byEntityID[entityID] = points
	return nil
}

func (s *fakeTrendStore) TryStartJob(_ context.Context, _ string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return database.ErrJobRunning
	}
	s.running = true
	return nil
}

func (s *fakeTrendStore) FinishJob(_ context.Context, _, status, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.finished = append(s.finished, status)
	return nil
}

func TestCollectorPersistsSeries(t *testing.T) {
	ts := newTrendsServer(t)
	ts.responses["SB19,BINI"] = map[string][]interestPoint{
		"SB19": rawSeries(10, 50),
		"BINI": rawSeries(5, 25),
	}

	store := newFakeTrendStore(
		models.TrackedEntity{ID: uuid.New(), Name: "SB19", Slug: "sb19"},
		models.TrackedEntity{ID: uuid.New(), Name: "BINI", Slug: "bini"},
	)
	client := testClient(ts, 5)
	collector := NewCollector(store, client, client.cfg)

	report, err := collector.Collect(context.Background(), nil)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("report = %+v", report)
	}
	if len(store.persisted["SB19"]) != 2 || len(store.persisted["BINI"]) != 2 {
		t.Errorf("series not persisted: %v", store.persisted)
	}
	if len(store.finished) != 1 || store.finished[0] != models.JobStatusCompleted {
		t.Errorf("job outcome = %v, want one completed", store.finished)
	}
}

func TestCollectorSharedNamePersistsUnderEachEntity(t *testing.T) {
	ts := newTrendsServer(t)
	ts.responses["SB19"] = map[string][]interestPoint{
		"SB19": rawSeries(10, 50),
	}

	first := uuid.New()
	second := uuid.New()
	store := newFakeTrendStore(
		models.TrackedEntity{ID: first, Name: "SB19", Slug: "sb19"},
		models.TrackedEntity{ID: second, Name: "SB19", Slug: "sb19-solo-era"},
	)
	client := testClient(ts, 5)
	collector := NewCollector(store, client, client.cfg)

	report, err := collector.Collect(context.Background(), nil)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if report.Total != 1 || report.Succeeded != 1 {
		t.Fatalf("shared name must collapse to one keyword, got %+v", report)
	}
	if ts.batchCount() != 1 {
		t.Errorf("batches = %d, want 1", ts.batchCount())
	}
	if len(store.byEntityID[first]) != 2 || len(store.byEntityID[second]) != 2 {
		t.Errorf("series must be persisted under both entity ids, got %v", store.byEntityID)
	}
}

func TestCollectorRefusesConcurrentRun(t *testing.T) {
	store := newFakeTrendStore()
	store.running = true

	ts := newTrendsServer(t)
	client := testClient(ts, 5)
	collector := NewCollector(store, client, client.cfg)

	_, err := collector.Collect(context.Background(), nil)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("err = %v, want ErrAlreadyRunning", err)
	}
}

func TestCollectorEntityFilter(t *testing.T) {
	ts := newTrendsServer(t)
	ts.responses["SB19"] = map[string][]interestPoint{
		"SB19": rawSeries(30),
	}

	wanted := uuid.New()
	store := newFakeTrendStore(
		models.TrackedEntity{ID: wanted, Name: "SB19", Slug: "sb19"},
		models.TrackedEntity{ID: uuid.New(), Name: "BINI", Slug: "bini"},
	)
	client := testClient(ts, 5)
	collector := NewCollector(store, client, client.cfg)

	report, err := collector.Collect(context.Background(), []uuid.UUID{wanted})
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if report.Total != 1 {
		t.Errorf("total = %d, want 1", report.Total)
	}
	if _, ok := store.persisted["BINI"]; ok {
		t.Error("unselected entity must not be collected")
	}
}
