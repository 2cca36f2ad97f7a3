// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Package providers implements the scrape backends and the failover
// orchestrator routing between them.
//
// Two interchangeable backends exist:
//
//   - ActorRunnerAdapter: a managed-actor execution service (run an actor,
//     collect its dataset items)
//   - DirectAPIAdapter: a direct proxied API with per-platform hosts
//
// Both satisfy the Adapter contract and never leak Go errors or panics
// across it: every failure is captured in ScrapeResult.Error. Which backend
// is primary for which platform is configuration, not code.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// Adapter names, used in routing config and provenance tags.
const (
	SourceActorRunner = "actor-runner"
	SourceDirectAPI   = "direct-api"
)

// Adapter is the common contract of scrape backends.
//
// Scrape must honor the context deadline, must not panic, and must return
// failures as data: a ScrapeResult with Success=false and Error set.
// Thread safety: implementations are safe for concurrent use.
type Adapter interface {
	Name() string
	Supports(platform string) bool
	Scrape(ctx context.Context, platform string, params models.ScrapeParams) models.ScrapeResult
}

// maxErrorBodySize bounds how much of an upstream error body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// maxResponseBodySize is a sanity cap on success-path bodies. Dataset sizes
// scale with the configured item limit; anything past this is a provider
// malfunction, not data.
const maxResponseBodySize = 32 << 20

// readBody reads a success-path response body in full, up to the sanity cap.
// Unlike readBodyForError it never truncates silently; an oversized body is
// an error.
func readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > maxResponseBodySize {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseBodySize)
	}
	return body, nil
}

// failed builds the standard failure result for an adapter.
func failed(source, format string, args ...any) models.ScrapeResult {
	return models.ScrapeResult{
		Success: false,
		Source:  source,
		Error:   fmt.Sprintf(format, args...),
	}
}

// tagItems wraps raw payload maps as RawItems carrying their provenance.
func tagItems(source string, payloads []map[string]any) []models.RawItem {
	items := make([]models.RawItem, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, models.RawItem{Fields: p, Source: source})
	}
	return items
}

// decodeItems parses an upstream response body into payload maps. Providers
// return collections in three shapes: a bare JSON array, an array nested
// under a wrapper key ("data", "items", "results", "posts"), or an "indexed
// object" ({"0": {...}, "1": {...}}) that must be flattened back into an
// ordered array.
func decodeItems(body []byte) ([]map[string]any, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("malformed JSON response: %w", err)
	}

	switch v := root.(type) {
	case []any:
		return anySliceToMaps(v), nil
	case map[string]any:
		for _, key := range []string{"data", "items", "results", "posts"} {
			nested, ok := v[key]
			if !ok {
				continue
			}
			switch n := nested.(type) {
			case []any:
				return anySliceToMaps(n), nil
			case map[string]any:
				return indexedObjectToSlice(n), nil
			}
		}
		// The root itself may be an indexed object.
		if items := indexedObjectToSlice(v); len(items) > 0 {
			return items, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected response shape %T", root)
	}
}

func anySliceToMaps(in []any) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, v := range in {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// indexedObjectToSlice converts {"0": {...}, "1": {...}} into an array
// ordered by the numeric key. Non-numeric keys are discarded.
func indexedObjectToSlice(obj map[string]any) []map[string]any {
	type entry struct {
		idx    int
		fields map[string]any
	}

	entries := make([]entry, 0, len(obj))
	for key, v := range obj {
		idx, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		fields, ok := v.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, entry{idx: idx, fields: fields})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.fields)
	}
	return out
}

// waitForSlot blocks on the outbound rate limiter, translating limiter and
// context failures into the adapter's error vocabulary.
func waitForSlot(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// newHTTPClient builds the shared client shape for both adapters. The
// transport-level timeout is a hard backstop; per-call deadlines come from
// the context.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
