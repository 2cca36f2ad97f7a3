// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/logging"
	"github.com/fanpulse-io/fanpulse/internal/models"
	"github.com/fanpulse-io/fanpulse/internal/trends"
)

// FleetIngestor runs a full-fleet ingestion.
type FleetIngestor interface {
	IngestFleet(ctx context.Context) (*models.FleetReport, error)
}

// TrendsRunner runs a fleet-wide trends collection.
type TrendsRunner interface {
	Collect(ctx context.Context, entityIDs []uuid.UUID) (*models.TrendsReport, error)
}

// SchedulerService triggers periodic fleet ingestion and trends collection.
// Each run is a fire-and-check: a failing run is logged and the ticker
// keeps going.
type SchedulerService struct {
	engine    FleetIngestor
	collector TrendsRunner
	cfg       config.SchedulerConfig
}

// NewSchedulerService wires the periodic runner.
func NewSchedulerService(engine FleetIngestor, collector TrendsRunner, cfg config.SchedulerConfig) *SchedulerService {
	return &SchedulerService{engine: engine, collector: collector, cfg: cfg}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	ingestTicker := time.NewTicker(s.cfg.IngestInterval)
	defer ingestTicker.Stop()
	trendsTicker := time.NewTicker(s.cfg.TrendsInterval)
	defer trendsTicker.Stop()

	logging.Info().
		Dur("ingest_interval", s.cfg.IngestInterval).
		Dur("trends_interval", s.cfg.TrendsInterval).
		Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ingestTicker.C:
			s.runIngest(ctx)
		case <-trendsTicker.C:
			s.runTrends(ctx)
		}
	}
}

func (s *SchedulerService) runIngest(ctx context.Context) {
	report, err := s.engine.IngestFleet(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("scheduled fleet ingestion failed")
		return
	}
	logging.Info().
		Int("total", report.Total).
		Int("failed", report.Failed).
		Msg("scheduled fleet ingestion finished")
}

func (s *SchedulerService) runTrends(ctx context.Context) {
	report, err := s.collector.Collect(ctx, nil)
	if err != nil {
		if errors.Is(err, trends.ErrAlreadyRunning) {
			logging.Warn().Msg("scheduled trends run skipped, previous run still active")
			return
		}
		logging.Error().Err(err).Msg("scheduled trends collection failed")
		return
	}
	logging.Info().
		Int("total", report.Total).
		Int("failed", report.Failed).
		Msg("scheduled trends collection finished")
}

func (s *SchedulerService) String() string { return "scheduler" }
