// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

func providersConfig(actorBase, directHost string) *config.ProvidersConfig {
	return &config.ProvidersConfig{
		ActorRunner: config.ActorRunnerConfig{
			BaseURL: actorBase,
			Token:   "test-token",
			Actors:  map[string]string{models.PlatformTikTok: "acme~tiktok-scraper"},
		},
		DirectAPI: config.DirectAPIConfig{
			Key:   "test-key",
			Hosts: map[string]string{models.PlatformTikTok: directHost},
		},
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000, // effectively unlimited in tests
	}
}

func TestActorRunnerScrape(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf := make([]byte, 4096)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"7301","desc":"hello"},{"id":"7302","desc":"world"}]`))
	}))
	defer server.Close()

	adapter := NewActorRunnerAdapter(providersConfig(server.URL, ""))
	result := adapter.Scrape(context.Background(), models.PlatformTikTok, models.ScrapeParams{Handle: "sb19official", Limit: 10})

	if !result.Success {
		t.Fatalf("scrape failed: %s", result.Error)
	}
	if len(result.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(result.Items))
	}
	if result.Source != SourceActorRunner || result.Items[0].Source != SourceActorRunner {
		t.Errorf("missing actor-runner provenance: %q / %q", result.Source, result.Items[0].Source)
	}
	if !strings.Contains(gotPath, "acme~tiktok-scraper") {
		t.Errorf("actor id missing from path %q", gotPath)
	}
	if !strings.Contains(gotBody, "sb19official") {
		t.Errorf("handle missing from actor input %q", gotBody)
	}
}

func TestActorRunnerFailureShapes(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantErrPart string
	}{
		{
			name: "upstream 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "actor crashed", http.StatusInternalServerError)
			},
			wantErrPart: "status 500",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":`))
			},
			wantErrPart: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			adapter := NewActorRunnerAdapter(providersConfig(server.URL, ""))
			result := adapter.Scrape(context.Background(), models.PlatformTikTok, models.ScrapeParams{Handle: "x"})

			if result.Success {
				t.Fatal("expected failure result")
			}
			if !strings.Contains(result.Error, tt.wantErrPart) {
				t.Errorf("error %q does not mention %q", result.Error, tt.wantErrPart)
			}
		})
	}
}

func TestActorRunnerUnsupportedPlatform(t *testing.T) {
	adapter := NewActorRunnerAdapter(providersConfig("http://unused.example", ""))
	if adapter.Supports(models.PlatformReddit) {
		t.Error("reddit should be unsupported without a configured actor")
	}
	result := adapter.Scrape(context.Background(), models.PlatformReddit, models.ScrapeParams{Handle: "x"})
	if result.Success {
		t.Error("expected failure for unconfigured platform")
	}
}

func TestDirectAPIScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-rapidapi-key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		// Indexed-object collection, the shape this backend is known for.
		_, _ = w.Write([]byte(`{"data":{"0":{"aweme_id":"1"},"1":{"aweme_id":"2"},"extra":"ignored"}}`))
	}))
	defer server.Close()

	adapter := NewDirectAPIAdapter(providersConfig("", server.URL))
	result := adapter.Scrape(context.Background(), models.PlatformTikTok, models.ScrapeParams{Handle: "sb19official"})

	if !result.Success {
		t.Fatalf("scrape failed: %s", result.Error)
	}
	if len(result.Items) != 2 {
		t.Fatalf("items = %d, want 2 (indexed object flattened, non-numeric keys dropped)", len(result.Items))
	}
	if result.Items[0].Fields["aweme_id"] != "1" || result.Items[1].Fields["aweme_id"] != "2" {
		t.Errorf("indexed object order lost: %v", result.Items)
	}
	if result.Items[0].Source != SourceDirectAPI {
		t.Errorf("missing direct-api provenance: %q", result.Items[0].Source)
	}
}

// largeDatasetBody builds a valid JSON array comfortably past 64KB, the
// size a full-limit scrape with real post text reaches routinely.
func largeDatasetBody(t *testing.T, items int) ([]byte, int) {
	t.Helper()
	payload := make([]map[string]any, 0, items)
	desc := strings.Repeat("ang galing ng performance nila kagabi ", 12)
	for i := 0; i < items; i++ {
		payload = append(payload, map[string]any{
			"id":   fmt.Sprintf("73%06d", i),
			"desc": desc,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if len(body) <= 64*1024 {
		t.Fatalf("fixture body is %d bytes, need > 64KB", len(body))
	}
	return body, items
}

func TestActorRunnerLargeDataset(t *testing.T) {
	body, want := largeDatasetBody(t, 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	adapter := NewActorRunnerAdapter(providersConfig(server.URL, ""))
	result := adapter.Scrape(context.Background(), models.PlatformTikTok, models.ScrapeParams{Handle: "x", Limit: want})

	if !result.Success {
		t.Fatalf("large dataset scrape failed: %s", result.Error)
	}
	if len(result.Items) != want {
		t.Fatalf("items = %d, want %d", len(result.Items), want)
	}
}

func TestDirectAPILargeDataset(t *testing.T) {
	body, want := largeDatasetBody(t, 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	adapter := NewDirectAPIAdapter(providersConfig("", server.URL))
	result := adapter.Scrape(context.Background(), models.PlatformTikTok, models.ScrapeParams{Handle: "x", Limit: want})

	if !result.Success {
		t.Fatalf("large dataset scrape failed: %s", result.Error)
	}
	if len(result.Items) != want {
		t.Fatalf("items = %d, want %d", len(result.Items), want)
	}
}

func TestDirectAPITimeoutIsFailureNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := providersConfig("", server.URL)
	adapter := NewDirectAPIAdapter(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result := adapter.Scrape(ctx, models.PlatformTikTok, models.ScrapeParams{Handle: "x"})
	if result.Success {
		t.Fatal("expected timeout to surface as failure result")
	}
	if result.Error == "" {
		t.Error("timeout failure must carry an error string")
	}
}
