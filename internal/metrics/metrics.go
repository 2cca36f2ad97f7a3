// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Package metrics provides Prometheus instrumentation for the pipeline:
// provider calls and failover, ingestion throughput, trends batching, and
// circuit breaker state. Everything registers via promauto and is exposed on
// the HTTP surface's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider metrics
	ScrapeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_scrape_requests_total",
			Help: "Total provider scrape calls by adapter, platform and outcome",
		},
		[]string{"adapter", "platform", "status"}, // status: "success", "empty", "failure"
	)

	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fanpulse_scrape_duration_seconds",
			Help:    "Duration of provider scrape calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"adapter", "platform"},
	)

	FailoverTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_failover_total",
			Help: "Total failovers from primary to secondary adapter",
		},
		[]string{"platform", "primary", "secondary"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fanpulse_circuit_breaker_state",
			Help: "Circuit breaker state per adapter (0=closed, 1=half-open, 2=open)",
		},
		[]string{"adapter"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions per adapter",
		},
		[]string{"adapter", "from", "to"},
	)

	// Ingestion metrics
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_ingest_runs_total",
			Help: "Total ingestion units of work by platform and outcome",
		},
		[]string{"platform", "status"},
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fanpulse_ingest_duration_seconds",
			Help:    "Duration of one entity/platform ingestion in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"platform"},
	)

	ContentItemsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_content_items_inserted_total",
			Help: "New content items inserted after dedup, by platform",
		},
		[]string{"platform"},
	)

	InfluencersUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_influencers_upserted_total",
			Help: "Influencer profiles upserted, by platform",
		},
		[]string{"platform"},
	)

	SnapshotsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_metric_snapshots_upserted_total",
			Help: "Daily metric snapshots written, by platform",
		},
		[]string{"platform"},
	)

	DiscoveryCandidates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanpulse_discovery_candidates_total",
			Help: "Unmatched hashtag discovery candidates reported",
		},
	)

	// Trends metrics
	TrendsBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_trends_batches_total",
			Help: "Trends API batches by outcome",
		},
		[]string{"status"}, // "success", "rate_limited", "failure"
	)

	TrendsRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanpulse_trends_rate_limit_retries_total",
			Help: "Single-retry attempts after an HTTP 429 from the trends API",
		},
	)

	TrendsKeywords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpulse_trends_keywords_total",
			Help: "Keywords collected by outcome",
		},
		[]string{"status"}, // "success", "failure"
	)
)
