// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

/*
actorrunner.go - Managed-Actor Execution Backend

This adapter drives a hosted actor-execution service: each platform has a
dedicated scraper actor, started synchronously with a JSON input document;
the run's dataset items come back as the response body.

Request shape:

	POST {base}/v2/acts/{actorID}/run-sync-get-dataset-items?token=...
	Body: platform-specific input (handle, result limits)

The per-platform input documents differ because each actor defines its own
input schema; the mapping lives in actorInput.
*/
package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/metrics"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

// ActorRunnerAdapter scrapes through the managed-actor execution service.
type ActorRunnerAdapter struct {
	baseURL string
	token   string
	actors  map[string]string // platform -> actor id
	client  *http.Client
	limiter *rate.Limiter
}

// NewActorRunnerAdapter builds the actor-runner backend from configuration.
func NewActorRunnerAdapter(cfg *config.ProvidersConfig) *ActorRunnerAdapter {
	return &ActorRunnerAdapter{
		baseURL: cfg.ActorRunner.BaseURL,
		token:   cfg.ActorRunner.Token,
		actors:  cfg.ActorRunner.Actors,
		client:  newHTTPClient(cfg.Timeout),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Name implements Adapter.
func (a *ActorRunnerAdapter) Name() string { return SourceActorRunner }

// Supports reports whether an actor is configured for the platform.
func (a *ActorRunnerAdapter) Supports(platform string) bool {
	return a.actors[platform] != ""
}

// Scrape runs the platform's actor synchronously and returns its dataset
// items. All failures are captured in the result, never raised.
func (a *ActorRunnerAdapter) Scrape(ctx context.Context, platform string, params models.ScrapeParams) models.ScrapeResult {
	start := time.Now()
	result := a.scrape(ctx, platform, params)
	metrics.ScrapeDuration.WithLabelValues(a.Name(), platform).Observe(time.Since(start).Seconds())
	metrics.ScrapeRequests.WithLabelValues(a.Name(), platform, scrapeStatus(result)).Inc()
	return result
}

func (a *ActorRunnerAdapter) scrape(ctx context.Context, platform string, params models.ScrapeParams) models.ScrapeResult {
	actorID, ok := a.actors[platform]
	if !ok || actorID == "" {
		return failed(a.Name(), "no actor configured for platform %s", platform)
	}
	if err := waitForSlot(ctx, a.limiter); err != nil {
		return failed(a.Name(), "%v", err)
	}

	input, err := json.Marshal(actorInput(platform, params))
	if err != nil {
		return failed(a.Name(), "encode actor input: %v", err)
	}

	reqURL := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		a.baseURL, url.PathEscape(actorID), url.QueryEscape(a.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(input))
	if err != nil {
		return failed(a.Name(), "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return failed(a.Name(), "actor run failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body := readBodyForError(resp.Body)
		return failed(a.Name(), "actor run returned status %d: %s", resp.StatusCode, body)
	}

	body, err := readBody(resp.Body)
	if err != nil {
		return failed(a.Name(), "%v", err)
	}
	payloads, err := decodeItems(body)
	if err != nil {
		return failed(a.Name(), "decode dataset items: %v", err)
	}

	return models.ScrapeResult{
		Success: true,
		Items:   tagItems(a.Name(), payloads),
		Source:  a.Name(),
	}
}

// actorInput builds the platform actor's input document. Each actor defines
// its own schema, so the field names vary per platform.
func actorInput(platform string, params models.ScrapeParams) map[string]any {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	switch platform {
	case models.PlatformTikTok:
		return map[string]any{
			"profiles":              []string{params.Handle},
			"resultsPerPage":        limit,
			"shouldDownload":        false,
			"profileScrapeSections": []string{"videos"},
		}
	case models.PlatformInstagram:
		return map[string]any{
			"usernames":    []string{params.Handle},
			"resultsType":  "posts",
			"resultsLimit": limit,
		}
	case models.PlatformTwitter:
		query := params.Keyword
		if query == "" {
			query = "from:" + params.Handle
		}
		return map[string]any{
			"searchTerms": []string{query},
			"maxItems":    limit,
			"sort":        "Latest",
		}
	case models.PlatformFacebook:
		return map[string]any{
			"startUrls":    []map[string]any{{"url": "https://www.facebook.com/" + params.Handle}},
			"resultsLimit": limit,
		}
	case models.PlatformYouTube:
		return map[string]any{
			"channelHandles": []string{params.Handle},
			"maxResults":     limit,
			"sortVideosBy":   "NEWEST",
		}
	case models.PlatformReddit:
		return map[string]any{
			"startUrls": []map[string]any{{"url": "https://www.reddit.com/r/" + params.Handle}},
			"maxItems":  limit,
		}
	default:
		return map[string]any{"handle": params.Handle, "limit": limit}
	}
}

func scrapeStatus(r models.ScrapeResult) string {
	switch {
	case !r.Success:
		return "failure"
	case len(r.Items) == 0:
		return "empty"
	default:
		return "success"
	}
}
