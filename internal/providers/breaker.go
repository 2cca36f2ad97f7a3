// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package providers

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/fanpulse-io/fanpulse/internal/logging"
	"github.com/fanpulse-io/fanpulse/internal/metrics"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

// BreakerAdapter wraps an Adapter with a circuit breaker so a dead provider
// sheds load fast instead of burning the whole fleet run's time budget on
// timeouts. An open circuit reads as ordinary adapter failure to callers,
// which is exactly what the failover orchestrator needs to route around it.
//
// The breaker uses real time for its interval and timeout windows; tests
// exercise the wrapped adapter directly.
type BreakerAdapter struct {
	inner Adapter
	cb    *gobreaker.CircuitBreaker[models.ScrapeResult]
}

// errScrapeFailed is the internal carrier that lets the breaker count
// contract-level failures (Success=false) without changing the adapter
// contract.
var errScrapeFailed = errors.New("scrape failed")

// NewBreakerAdapter wraps an adapter with circuit breaker protection.
// The circuit opens after a 60% failure rate across at least 10 requests in
// a 1 minute window, and probes again after 2 minutes.
func NewBreakerAdapter(inner Adapter) *BreakerAdapter {
	name := inner.Name()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[models.ScrapeResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Str("adapter", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening provider circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("adapter", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("provider circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &BreakerAdapter{inner: inner, cb: cb}
}

// Name implements Adapter.
func (b *BreakerAdapter) Name() string { return b.inner.Name() }

// Supports implements Adapter.
func (b *BreakerAdapter) Supports(platform string) bool { return b.inner.Supports(platform) }

// Scrape implements Adapter. When the circuit is open the call is rejected
// without touching the provider; the rejection surfaces as a normal failed
// ScrapeResult.
func (b *BreakerAdapter) Scrape(ctx context.Context, platform string, params models.ScrapeParams) models.ScrapeResult {
	result, err := b.cb.Execute(func() (models.ScrapeResult, error) {
		r := b.inner.Scrape(ctx, platform, params)
		if !r.Success {
			// Report contract failure to the breaker; the result still
			// carries the real error string.
			return r, errScrapeFailed
		}
		return r, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return failed(b.Name(), "circuit breaker open for %s: provider unhealthy", b.Name())
		}
		// Contract failure: the inner result already describes it.
		return result
	}
	return result
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
