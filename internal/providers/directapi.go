// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

/*
directapi.go - Direct Proxied API Backend

This adapter calls per-platform REST APIs behind a metered proxy gateway.
Authentication is a shared key plus a per-platform host header. Response
collections frequently arrive as "indexed objects" ({"0": {...}, "1": ...})
rather than arrays; decodeItems flattens those.
*/
package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/metrics"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

// DirectAPIAdapter scrapes through per-platform proxied REST APIs.
type DirectAPIAdapter struct {
	key     string
	hosts   map[string]string // platform -> API host
	client  *http.Client
	limiter *rate.Limiter
}

// NewDirectAPIAdapter builds the direct-API backend from configuration.
func NewDirectAPIAdapter(cfg *config.ProvidersConfig) *DirectAPIAdapter {
	return &DirectAPIAdapter{
		key:     cfg.DirectAPI.Key,
		hosts:   cfg.DirectAPI.Hosts,
		client:  newHTTPClient(cfg.Timeout),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Name implements Adapter.
func (a *DirectAPIAdapter) Name() string { return SourceDirectAPI }

// Supports reports whether an API host is configured for the platform.
func (a *DirectAPIAdapter) Supports(platform string) bool {
	return a.hosts[platform] != ""
}

// Scrape queries the platform's proxied API. All failures are captured in
// the result, never raised.
func (a *DirectAPIAdapter) Scrape(ctx context.Context, platform string, params models.ScrapeParams) models.ScrapeResult {
	start := time.Now()
	result := a.scrape(ctx, platform, params)
	metrics.ScrapeDuration.WithLabelValues(a.Name(), platform).Observe(time.Since(start).Seconds())
	metrics.ScrapeRequests.WithLabelValues(a.Name(), platform, scrapeStatus(result)).Inc()
	return result
}

func (a *DirectAPIAdapter) scrape(ctx context.Context, platform string, params models.ScrapeParams) models.ScrapeResult {
	host, ok := a.hosts[platform]
	if !ok || host == "" {
		return failed(a.Name(), "no API host configured for platform %s", platform)
	}
	if err := waitForSlot(ctx, a.limiter); err != nil {
		return failed(a.Name(), "%v", err)
	}

	path, query := platformEndpoint(platform, params)
	base := host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	reqURL := fmt.Sprintf("%s%s?%s", base, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return failed(a.Name(), "build request: %v", err)
	}
	req.Header.Set("x-rapidapi-key", a.key)
	req.Header.Set("x-rapidapi-host", host)

	resp, err := a.client.Do(req)
	if err != nil {
		return failed(a.Name(), "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return failed(a.Name(), "API returned status %d: %s", resp.StatusCode, body)
	}

	body, err := readBody(resp.Body)
	if err != nil {
		return failed(a.Name(), "%v", err)
	}
	payloads, err := decodeItems(body)
	if err != nil {
		return failed(a.Name(), "decode response: %v", err)
	}

	return models.ScrapeResult{
		Success: true,
		Items:   tagItems(a.Name(), payloads),
		Source:  a.Name(),
	}
}

// platformEndpoint maps a platform to its proxied API path and query.
func platformEndpoint(platform string, params models.ScrapeParams) (string, url.Values) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}

	switch platform {
	case models.PlatformTikTok:
		q.Set("unique_id", params.Handle)
		q.Set("count", fmt.Sprint(limit))
		return "/api/user/posts", q
	case models.PlatformInstagram:
		q.Set("username_or_id_or_url", params.Handle)
		return "/v1/posts", q
	case models.PlatformTwitter:
		if params.Keyword != "" {
			q.Set("query", params.Keyword)
			q.Set("count", fmt.Sprint(limit))
			return "/search", q
		}
		q.Set("username", params.Handle)
		q.Set("count", fmt.Sprint(limit))
		return "/user-tweets", q
	case models.PlatformFacebook:
		q.Set("page", params.Handle)
		q.Set("limit", fmt.Sprint(limit))
		return "/page/posts", q
	case models.PlatformYouTube:
		q.Set("forHandle", params.Handle)
		q.Set("maxResults", fmt.Sprint(limit))
		return "/channel/videos", q
	case models.PlatformReddit:
		q.Set("subreddit", params.Handle)
		q.Set("limit", fmt.Sprint(limit))
		return "/getSubredditPosts", q
	default:
		q.Set("handle", params.Handle)
		return "/posts", q
	}
}
