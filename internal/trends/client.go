// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Package trends implements the comparative search-interest batch client.
//
// The provider only returns values comparable within a single request, so
// multi-batch runs share an anchor keyword: every batch carries the anchor,
// and each batch's values are rescaled by the ratio of the reference anchor
// series (from the first batch) to that batch's anchor reading. A final
// pass rescales the whole result set to the 0-100 range.
package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/logging"
	"github.com/fanpulse-io/fanpulse/internal/metrics"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

// pointDateLayout is the provider's per-point date format.
const pointDateLayout = "2006-01-02"

// Client queries the trends provider. It is safe for sequential use; a
// collection run owns the client for its duration.
type Client struct {
	cfg  config.TrendsConfig
	http *http.Client
}

// NewClient builds a trends client with a fresh cookie jar.
func NewClient(cfg config.TrendsConfig) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// interestResponse is the provider's batch payload: one series per keyword.
type interestResponse struct {
	Series map[string][]interestPoint `json:"series"`
}

type interestPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// establishSession hits the landing endpoint to collect session cookies and
// synthesizes a consent cookie when the provider did not issue one. Without
// the consent cookie the interest endpoint degrades to empty responses.
func (c *Client) establishSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to build session request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("session request failed: %w", err)
	}
	_ = resp.Body.Close()

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid trends base url: %w", err)
	}
	for _, cookie := range c.http.Jar.Cookies(base) {
		if cookie.Name == "CONSENT" {
			return nil
		}
	}
	c.http.Jar.SetCookies(base, []*http.Cookie{{
		Name:  "CONSENT",
		Value: "YES+" + time.Now().UTC().Format("20060102"),
		Path:  "/",
	}})
	return nil
}

// fetchBatch queries one keyword batch. An HTTP 429 is retried exactly once
// after the configured delay; a second 429, any other non-2xx status, or a
// malformed payload is a hard failure for the batch.
func (c *Client) fetchBatch(ctx context.Context, keywords []string) (map[string][]interestPoint, error) {
	series, err := c.requestBatch(ctx, keywords)
	if err == nil {
		metrics.TrendsBatches.WithLabelValues("success").Inc()
		return series, nil
	}
	if !isRateLimited(err) {
		metrics.TrendsBatches.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.TrendsBatches.WithLabelValues("rate_limited").Inc()
	metrics.TrendsRetries.Inc()
	logging.Warn().Strs("keywords", keywords).
		Dur("delay", c.cfg.RetryDelay).
		Msg("trends batch rate limited, retrying once")

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.cfg.RetryDelay):
	}

	series, err = c.requestBatch(ctx, keywords)
	if err != nil {
		metrics.TrendsBatches.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.TrendsBatches.WithLabelValues("success").Inc()
	return series, nil
}

// rateLimitError marks an HTTP 429 so fetchBatch can distinguish it from
// terminal failures.
type rateLimitError struct{}

func (rateLimitError) Error() string { return "rate limited (status 429)" }

func isRateLimited(err error) bool {
	_, ok := err.(rateLimitError)
	return ok
}

func (c *Client) requestBatch(ctx context.Context, keywords []string) (map[string][]interestPoint, error) {
	query := url.Values{
		"keywords": {strings.Join(keywords, ",")},
		"geo":      {c.cfg.Geo},
		"window":   {c.cfg.Window},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/api/interest?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build batch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimitError{}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("batch request returned status %d", resp.StatusCode)
	}

	var payload interestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode batch payload: %w", err)
	}
	if payload.Series == nil {
		return nil, fmt.Errorf("batch payload carried no series")
	}
	return payload.Series, nil
}

// CollectKeywords runs the full batched collection for the given keywords
// and returns one series per keyword on the normalized 0-100 scale. A
// keyword whose series could not be obtained carries an error and an empty
// series; it never aborts the run.
func (c *Client) CollectKeywords(ctx context.Context, keywords []string) *models.TrendsReport {
	report := &models.TrendsReport{Total: len(keywords)}
	if len(keywords) == 0 {
		return report
	}

	series := make(map[string][]models.TrendPoint, len(keywords))
	failures := make(map[string]string)

	if err := c.establishSession(ctx); err != nil {
		for _, kw := range keywords {
			failures[kw] = err.Error()
		}
		return c.finishReport(report, keywords, series, failures)
	}

	if len(keywords) <= c.cfg.BatchSize {
		c.collectSingleBatch(ctx, keywords, series, failures)
	} else {
		c.collectAnchored(ctx, keywords, series, failures)
	}

	rescaleGlobal(series)
	return c.finishReport(report, keywords, series, failures)
}

func (c *Client) collectSingleBatch(ctx context.Context, keywords []string, series map[string][]models.TrendPoint, failures map[string]string) {
	batch, err := c.fetchBatch(ctx, keywords)
	if err != nil {
		for _, kw := range keywords {
			failures[kw] = err.Error()
		}
		return
	}
	for _, kw := range keywords {
		raw, ok := batch[kw]
		if !ok {
			failures[kw] = "provider returned no series for keyword"
			continue
		}
		series[kw] = c.toPoints(kw, raw)
	}
}

// collectAnchored runs the multi-batch protocol. The anchor rides in every
// batch; its series from the first batch is the fixed normalization
// reference for the rest of the run.
func (c *Client) collectAnchored(ctx context.Context, keywords []string, series map[string][]models.TrendPoint, failures map[string]string) {
	anchor := c.chooseAnchor(keywords)
	others := make([]string, 0, len(keywords)-1)
	for _, kw := range keywords {
		if kw != anchor {
			others = append(others, kw)
		}
	}

	perBatch := c.cfg.BatchSize - 1

	firstOthers := others
	if len(firstOthers) > perBatch {
		firstOthers = others[:perBatch]
	}
	firstKeywords := append([]string{anchor}, firstOthers...)
	first, err := c.fetchBatch(ctx, firstKeywords)
	if err != nil {
		// Without a reference anchor series no later batch can be
		// normalized, so the whole run fails.
		for _, kw := range keywords {
			failures[kw] = fmt.Sprintf("anchor batch failed: %v", err)
		}
		return
	}

	reference := first[anchor]
	if seriesMax(reference) == 0 {
		// The allow-list anchor read as zero; fall back to the strongest
		// keyword in the first batch as the reference for all later
		// batches.
		anchor, reference = strongestKeyword(first)
		logging.Warn().Str("anchor", anchor).Msg("anchor read zero, re-selected from first batch")
	}

	for _, kw := range firstKeywords {
		raw, ok := first[kw]
		if !ok {
			failures[kw] = "provider returned no series for keyword"
			continue
		}
		series[kw] = c.toPoints(kw, raw)
	}

	remaining := others
	if len(remaining) > perBatch {
		remaining = others[perBatch:]
	} else {
		remaining = nil
	}

	refMax := seriesMax(reference)
	for offset := 0; offset < len(remaining); offset += perBatch {
		select {
		case <-ctx.Done():
			for _, kw := range remaining[offset:] {
				failures[kw] = ctx.Err().Error()
			}
			return
		case <-time.After(c.cfg.BatchDelay):
		}

		end := offset + perBatch
		if end > len(remaining) {
			end = len(remaining)
		}
		chunk := remaining[offset:end]

		batch, err := c.fetchBatch(ctx, append([]string{anchor}, chunk...))
		if err != nil {
			for _, kw := range chunk {
				failures[kw] = err.Error()
			}
			continue
		}

		batchAnchorMax := seriesMax(batch[anchor])
		if batchAnchorMax == 0 {
			// A zero anchor reading means the scale factor would be
			// floor-clamped and every value in the batch distorted; fail
			// the batch instead of persisting junk.
			for _, kw := range chunk {
				failures[kw] = "anchor read zero in batch, values not comparable"
			}
			continue
		}

		scale := float64(maxInt(refMax, 1)) / float64(maxInt(batchAnchorMax, 1))
		for _, kw := range chunk {
			raw, ok := batch[kw]
			if !ok {
				failures[kw] = "provider returned no series for keyword"
				continue
			}
			series[kw] = c.toPoints(kw, scalePoints(raw, scale))
		}
	}
}

// chooseAnchor prefers a keyword from the configured high-traffic allow-list
// and falls back to the first keyword.
func (c *Client) chooseAnchor(keywords []string) string {
	for _, preferred := range c.cfg.AnchorKeywords {
		for _, kw := range keywords {
			if strings.EqualFold(kw, preferred) {
				return kw
			}
		}
	}
	return keywords[0]
}

func (c *Client) toPoints(keyword string, raw []interestPoint) []models.TrendPoint {
	points := make([]models.TrendPoint, 0, len(raw))
	for _, p := range raw {
		date, err := time.Parse(pointDateLayout, p.Date)
		if err != nil {
			continue
		}
		points = append(points, models.TrendPoint{
			Keyword:  keyword,
			Date:     date,
			Interest: p.Value,
			Region:   c.cfg.Geo,
		})
	}
	return points
}

func (c *Client) finishReport(report *models.TrendsReport, keywords []string, series map[string][]models.TrendPoint, failures map[string]string) *models.TrendsReport {
	for _, kw := range keywords {
		entry := models.KeywordSeries{Keyword: kw}
		if msg, failed := failures[kw]; failed {
			entry.Error = msg
			report.Failed++
			metrics.TrendsKeywords.WithLabelValues("failure").Inc()
		} else {
			entry.DataPoints = series[kw]
			report.Succeeded++
			metrics.TrendsKeywords.WithLabelValues("success").Inc()
		}
		report.PerKeyword = append(report.PerKeyword, entry)
	}
	return report
}
