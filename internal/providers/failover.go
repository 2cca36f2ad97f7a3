// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package providers

import (
	"context"
	"fmt"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/logging"
	"github.com/fanpulse-io/fanpulse/internal/metrics"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

// Orchestrator routes scrape calls through the per-platform routing table:
// try the primary adapter, fall back to the secondary when the primary fails
// or returns an empty set. The state machine lives entirely within one call;
// nothing is persisted.
//
// Both providers failing yields a concatenated two-part error naming each
// failure, so outages are never silently swallowed.
type Orchestrator struct {
	routes   map[string]config.RouteConfig
	adapters map[string]Adapter
}

// NewOrchestrator builds the failover orchestrator over the given adapters.
// Adapters are registered by Name(); the routing table refers to them by the
// same names.
func NewOrchestrator(routes map[string]config.RouteConfig, adapters ...Adapter) *Orchestrator {
	byName := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Orchestrator{routes: routes, adapters: byName}
}

// Scrape executes the primary/secondary routing for one platform. Every
// returned item is tagged with the adapter that produced it, and
// FailoverTriggered records whether the secondary served the result.
func (o *Orchestrator) Scrape(ctx context.Context, platform string, params models.ScrapeParams) models.ScrapeResult {
	route, ok := o.routes[platform]
	if !ok {
		return failed("", "no provider route configured for platform %s", platform)
	}

	primary, ok := o.adapters[route.Primary]
	if !ok {
		return failed("", "primary adapter %q not registered", route.Primary)
	}

	primaryResult := o.tryAdapter(ctx, primary, platform, params)
	if primaryResult.Success && len(primaryResult.Items) > 0 {
		return primaryResult
	}

	primaryErr := primaryResult.Error
	if primaryErr == "" {
		primaryErr = "empty result"
	}

	secondary := o.adapters[route.Secondary]
	if route.Secondary == "" || secondary == nil {
		return failed(route.Primary, "primary (%s): %s; secondary: not configured", route.Primary, primaryErr)
	}
	if !secondary.Supports(platform) {
		// Short-circuit: do not waste a call on an adapter that cannot
		// serve this platform.
		return failed(route.Primary, "primary (%s): %s; secondary (%s): not supported for platform %s",
			route.Primary, primaryErr, route.Secondary, platform)
	}

	logging.Info().
		Str("platform", platform).
		Str("primary", route.Primary).
		Str("secondary", route.Secondary).
		Str("reason", primaryErr).
		Msg("failing over to secondary provider")
	metrics.FailoverTriggered.WithLabelValues(platform, route.Primary, route.Secondary).Inc()

	secondaryResult := o.tryAdapter(ctx, secondary, platform, params)
	secondaryResult.FailoverTriggered = true
	if secondaryResult.Success && len(secondaryResult.Items) > 0 {
		return secondaryResult
	}

	secondaryErr := secondaryResult.Error
	if secondaryErr == "" {
		secondaryErr = "empty result"
	}
	result := failed(route.Secondary, "primary (%s): %s; secondary (%s): %s",
		route.Primary, primaryErr, route.Secondary, secondaryErr)
	result.FailoverTriggered = true
	return result
}

// tryAdapter runs one adapter, guarding the contract against an unsupported
// platform before spending a call on it.
func (o *Orchestrator) tryAdapter(ctx context.Context, a Adapter, platform string, params models.ScrapeParams) models.ScrapeResult {
	if !a.Supports(platform) {
		return failed(a.Name(), "adapter %s does not support platform %s", a.Name(), platform)
	}
	result := a.Scrape(ctx, platform, params)
	// Downstream auditing depends on item provenance.
	for i := range result.Items {
		if result.Items[i].Source == "" {
			result.Items[i].Source = a.Name()
		}
	}
	if result.Source == "" {
		result.Source = a.Name()
	}
	return result
}

// Routes exposes the routing table for the status endpoint.
func (o *Orchestrator) Routes() map[string]config.RouteConfig {
	out := make(map[string]config.RouteConfig, len(o.routes))
	for k, v := range o.routes {
		out[k] = v
	}
	return out
}

// String implements fmt.Stringer for logging.
func (o *Orchestrator) String() string {
	return fmt.Sprintf("orchestrator(%d platforms, %d adapters)", len(o.routes), len(o.adapters))
}
