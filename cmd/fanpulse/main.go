// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Command fanpulse runs the fandom analytics pipeline: the supervised HTTP
// trigger surface plus the optional background scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/fanpulse-io/fanpulse/internal/api"
	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/database"
	"github.com/fanpulse-io/fanpulse/internal/ingest"
	"github.com/fanpulse-io/fanpulse/internal/logging"
	"github.com/fanpulse-io/fanpulse/internal/models"
	"github.com/fanpulse-io/fanpulse/internal/providers"
	"github.com/fanpulse-io/fanpulse/internal/supervisor"
	"github.com/fanpulse-io/fanpulse/internal/trends"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}); err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize logging")
	}

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("tracked_entities", len(cfg.Entities)).
		Bool("scheduler", cfg.Scheduler.Enabled).
		Msg("starting fanpulse")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing database")
		}
	}()

	if err := seedEntities(context.Background(), db, cfg.Entities); err != nil {
		logging.Fatal().Err(err).Msg("failed to seed tracked entities")
	}

	// Both provider adapters run behind circuit breakers so a degraded
	// upstream fails fast instead of eating the batch with timeouts.
	actorRunner := providers.NewBreakerAdapter(providers.NewActorRunnerAdapter(&cfg.Providers))
	directAPI := providers.NewBreakerAdapter(providers.NewDirectAPIAdapter(&cfg.Providers))
	orchestrator := providers.NewOrchestrator(cfg.Routing, actorRunner, directAPI)

	engine := ingest.NewEngine(db, orchestrator, cfg.Ingest)
	collector := trends.NewCollector(db, trends.NewClient(cfg.Trends), cfg.Trends)

	handler := api.NewHandler(engine, collector, db)
	router := api.NewRouter(handler, cfg.Server)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeConfig)

	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if cfg.Scheduler.Enabled {
		tree.AddPipelineService(supervisor.NewSchedulerService(engine, collector, cfg.Scheduler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("supervisor tree failed")
	}
	logging.Info().Msg("shutdown complete")
}

// seedEntities upserts the configured bootstrap entities so a fresh install
// has a fleet to work with. Existing entities keep their ids and stored
// follower counts.
func seedEntities(ctx context.Context, db *database.DB, seeds []config.SeedEntity) error {
	for _, seed := range seeds {
		entity := &models.TrackedEntity{Name: seed.Name, Slug: seed.Slug}
		for platform, handle := range seed.Handles {
			entity.Platforms = append(entity.Platforms, models.PlatformHandle{
				Platform: platform,
				Handle:   handle,
			})
		}
		if err := db.UpsertTrackedEntity(ctx, entity); err != nil {
			return fmt.Errorf("seed %s: %w", seed.Slug, err)
		}
		logging.Debug().Str("slug", seed.Slug).Str("id", entity.ID.String()).Msg("seeded entity")
	}
	return nil
}
