// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/logging"
	"github.com/fanpulse-io/fanpulse/internal/models"
	"github.com/fanpulse-io/fanpulse/internal/trends"
)

// Ingestor is the ingestion engine surface the handlers call.
type Ingestor interface {
	Ingest(ctx context.Context, entityID uuid.UUID, platform string) models.IngestResult
	IngestAllPlatforms(ctx context.Context, entityID uuid.UUID) []models.IngestResult
	IngestFleet(ctx context.Context) (*models.FleetReport, error)
}

// TrendsCollector is the trends run surface the handlers call.
type TrendsCollector interface {
	Collect(ctx context.Context, entityIDs []uuid.UUID) (*models.TrendsReport, error)
}

// StatusStore is the read-only store surface for health and status
// endpoints.
type StatusStore interface {
	Ping(ctx context.Context) error
	ListTrackedEntities(ctx context.Context) ([]models.TrackedEntity, error)
	ListJobStatuses(ctx context.Context) ([]models.JobStatus, error)
}

// Handler holds the dependencies of all HTTP endpoints.
type Handler struct {
	engine    Ingestor
	collector TrendsCollector
	store     StatusStore
}

// NewHandler builds the endpoint set.
func NewHandler(engine Ingestor, collector TrendsCollector, store StatusStore) *Handler {
	return &Handler{engine: engine, collector: collector, store: store}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Health reports liveness plus store connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IngestPlatform triggers one (entity, platform) ingestion and waits for the
// result.
func (h *Handler) IngestPlatform(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuid.Parse(chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}
	platform := chi.URLParam(r, "platform")
	if !models.KnownPlatform(platform) {
		writeError(w, http.StatusBadRequest, "unknown platform "+platform)
		return
	}

	result := h.engine.Ingest(r.Context(), entityID, platform)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// IngestEntity triggers every configured platform for one entity.
func (h *Handler) IngestEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuid.Parse(chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.IngestAllPlatforms(r.Context(), entityID))
}

// IngestFleet triggers a full-fleet run and reports the per-unit table.
func (h *Handler) IngestFleet(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.IngestFleet(r.Context())
	if err != nil && report == nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type collectTrendsRequest struct {
	EntityIDs []uuid.UUID `json:"entity_ids"`
}

// CollectTrends triggers a trends collection run. The optional JSON body
// narrows the run to specific entities. A run already in progress yields
// 409.
func (h *Handler) CollectTrends(w http.ResponseWriter, r *http.Request) {
	var req collectTrendsRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
	}

	report, err := h.collector.Collect(r.Context(), req.EntityIDs)
	if err != nil {
		if errors.Is(err, trends.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Entities lists the tracked directory.
func (h *Handler) Entities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.store.ListTrackedEntities(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entities == nil {
		entities = []models.TrackedEntity{}
	}
	writeJSON(w, http.StatusOK, entities)
}

// Status reports the persisted state of background jobs.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.ListJobStatuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []models.JobStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}
