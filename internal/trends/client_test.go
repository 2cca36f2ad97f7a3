// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

// trendsServer fakes the provider: a landing endpoint for the session
// bootstrap and a batch interest endpoint fed from canned per-request
// responses keyed by the joined keyword list.
type trendsServer struct {
	mu        sync.Mutex
	responses map[string]map[string][]interestPoint
	rateLimit map[string]int // remaining 429s per keyword list
	requests  []string
	srv       *httptest.Server
}

func newTrendsServer(t *testing.T) *trendsServer {
	t.Helper()
	ts := &trendsServer{
		responses: make(map[string]map[string][]interestPoint),
		rateLimit: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/interest", func(w http.ResponseWriter, r *http.Request) {
		keywords := r.URL.Query().Get("keywords")
		ts.mu.Lock()
		ts.requests = append(ts.requests, keywords)
		if ts.rateLimit[keywords] > 0 {
			ts.rateLimit[keywords]--
			ts.mu.Unlock()
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		series, ok := ts.responses[keywords]
		ts.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(interestResponse{Series: series})
	})
	ts.srv = httptest.NewServer(mux)
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *trendsServer) batchCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.requests)
}

func testClient(ts *trendsServer, batchSize int, anchors ...string) *Client {
	return NewClient(config.TrendsConfig{
		BaseURL:        ts.srv.URL,
		Geo:            "PH",
		Window:         "today 3-m",
		BatchSize:      batchSize,
		RetryDelay:     time.Millisecond,
		BatchDelay:     time.Millisecond,
		AnchorKeywords: anchors,
		JobStaleAfter:  time.Hour,
	})
}

func seriesByKeyword(report *models.TrendsReport) map[string]models.KeywordSeries {
	out := make(map[string]models.KeywordSeries, len(report.PerKeyword))
	for _, entry := range report.PerKeyword {
		out[entry.Keyword] = entry
	}
	return out
}

func TestCollectSingleBatch(t *testing.T) {
	ts := newTrendsServer(t)
	ts.responses["SB19,BINI"] = map[string][]interestPoint{
		"SB19": rawSeries(10, 50),
		"BINI": rawSeries(5, 25),
	}

	client := testClient(ts, 5)
	report := client.CollectKeywords(context.Background(), []string{"SB19", "BINI"})

	if report.Succeeded != 2 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if ts.batchCount() != 1 {
		t.Errorf("batches = %d, want 1", ts.batchCount())
	}

	got := seriesByKeyword(report)
	// Global max 50 maps to 100.
	if vals := interests(got["SB19"].DataPoints); vals[0] != 20 || vals[1] != 100 {
		t.Errorf("SB19 = %v, want [20 100]", vals)
	}
	if vals := interests(got["BINI"].DataPoints); vals[0] != 10 || vals[1] != 50 {
		t.Errorf("BINI = %v, want [10 50]", vals)
	}
}

func TestCollectAnchoredBatches(t *testing.T) {
	ts := newTrendsServer(t)
	// Batch size 2 forces [anchor, one other] per request.
	ts.responses["BTS,alpha"] = map[string][]interestPoint{
		"BTS":   rawSeries(10, 20, 30),
		"alpha": rawSeries(1, 2, 3),
	}
	ts.responses["BTS,beta"] = map[string][]interestPoint{
		"BTS":  rawSeries(5, 10, 15),
		"beta": rawSeries(2, 4, 6),
	}

	client := testClient(ts, 2, "BTS")
	report := client.CollectKeywords(context.Background(), []string{"alpha", "BTS", "beta"})

	if report.Succeeded != 3 {
		t.Fatalf("report = %+v", report)
	}

	got := seriesByKeyword(report)
	// beta's raw [2 4 6] doubles to [4 8 12] via the anchor ratio 30/15,
	// then the global max 30 maps to 100.
	wantBeta := []int{13, 27, 40}
	if vals := interests(got["beta"].DataPoints); fmt.Sprint(vals) != fmt.Sprint(wantBeta) {
		t.Errorf("beta = %v, want %v", vals, wantBeta)
	}
	if vals := interests(got["BTS"].DataPoints); vals[2] != 100 {
		t.Errorf("anchor peak = %d, want 100", vals[2])
	}
}

func TestCollectOmittedSeriesIsKeywordFailure(t *testing.T) {
	ts := newTrendsServer(t)
	// A successful response that simply drops one requested keyword.
	ts.responses["SB19,BINI"] = map[string][]interestPoint{
		"SB19": rawSeries(10, 50),
	}

	client := testClient(ts, 5)
	report := client.CollectKeywords(context.Background(), []string{"SB19", "BINI"})

	got := seriesByKeyword(report)
	if !strings.Contains(got["BINI"].Error, "no series") {
		t.Errorf("BINI error = %q, want missing-series failure", got["BINI"].Error)
	}
	if len(got["BINI"].DataPoints) != 0 {
		t.Errorf("failed keyword must have an empty series, got %v", got["BINI"].DataPoints)
	}
	if got["SB19"].Error != "" {
		t.Errorf("SB19 should be unaffected, got error %q", got["SB19"].Error)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Errorf("report counts = %d/%d, want 1/1", report.Succeeded, report.Failed)
	}
}

func TestCollectAnchoredOmittedSeriesIsKeywordFailure(t *testing.T) {
	ts := newTrendsServer(t)
	ts.responses["BTS,alpha"] = map[string][]interestPoint{
		"BTS":   rawSeries(10, 20, 30),
		"alpha": rawSeries(3, 6, 9),
	}
	// The later batch answers for the anchor only.
	ts.responses["BTS,beta"] = map[string][]interestPoint{
		"BTS": rawSeries(5, 10, 15),
	}

	client := testClient(ts, 2, "BTS")
	report := client.CollectKeywords(context.Background(), []string{"alpha", "BTS", "beta"})

	got := seriesByKeyword(report)
	if !strings.Contains(got["beta"].Error, "no series") {
		t.Errorf("beta error = %q, want missing-series failure", got["beta"].Error)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("report counts = %d/%d, want 2/1", report.Succeeded, report.Failed)
	}
}

func TestCollectRateLimitRetryOnce(t *testing.T) {
	ts := newTrendsServer(t)
	ts.responses["SB19"] = map[string][]interestPoint{
		"SB19": rawSeries(10),
	}
	ts.rateLimit["SB19"] = 1

	client := testClient(ts, 5)
	report := client.CollectKeywords(context.Background(), []string{"SB19"})
	if report.Succeeded != 1 {
		t.Fatalf("expected retry to succeed, got %+v", report)
	}
	if ts.batchCount() != 2 {
		t.Errorf("batches = %d, want 2 (original + retry)", ts.batchCount())
	}
}

func TestCollectSecondRateLimitFailsBatchOnly(t *testing.T) {
	ts := newTrendsServer(t)
	ts.responses["BTS,alpha"] = map[string][]interestPoint{
		"BTS":   rawSeries(10, 20, 30),
		"alpha": rawSeries(3, 6, 9),
	}
	ts.rateLimit["BTS,beta"] = 2

	client := testClient(ts, 2, "BTS")
	report := client.CollectKeywords(context.Background(), []string{"alpha", "BTS", "beta"})

	got := seriesByKeyword(report)
	if got["beta"].Error == "" {
		t.Error("beta should carry the rate-limit failure")
	}
	if len(got["beta"].DataPoints) != 0 {
		t.Errorf("failed keyword must have an empty series, got %v", got["beta"].DataPoints)
	}
	if got["alpha"].Error != "" {
		t.Errorf("alpha should be unaffected, got error %q", got["alpha"].Error)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("report counts = %d/%d, want 2/1", report.Succeeded, report.Failed)
	}
}

func TestCollectZeroAnchorReselected(t *testing.T) {
	ts := newTrendsServer(t)
	// The preferred anchor reads zero in the first batch; alpha becomes the
	// reference.
	ts.responses["BTS,alpha"] = map[string][]interestPoint{
		"BTS":   rawSeries(0, 0, 0),
		"alpha": rawSeries(10, 20, 40),
	}
	ts.responses["alpha,beta"] = map[string][]interestPoint{
		"alpha": rawSeries(5, 10, 20),
		"beta":  rawSeries(1, 2, 4),
	}

	client := testClient(ts, 2, "BTS")
	report := client.CollectKeywords(context.Background(), []string{"BTS", "alpha", "beta"})

	got := seriesByKeyword(report)
	// Scale 40/20 doubles beta to [2 4 8]; global max 40 maps to 100.
	wantBeta := []int{5, 10, 20}
	if vals := interests(got["beta"].DataPoints); fmt.Sprint(vals) != fmt.Sprint(wantBeta) {
		t.Errorf("beta = %v, want %v", vals, wantBeta)
	}
}

func TestCollectZeroAnchorInLaterBatchFailsBatch(t *testing.T) {
	ts := newTrendsServer(t)
	ts.responses["BTS,alpha"] = map[string][]interestPoint{
		"BTS":   rawSeries(10, 20, 30),
		"alpha": rawSeries(3, 6, 9),
	}
	ts.responses["BTS,beta"] = map[string][]interestPoint{
		"BTS":  rawSeries(0, 0, 0),
		"beta": rawSeries(2, 4, 6),
	}

	client := testClient(ts, 2, "BTS")
	report := client.CollectKeywords(context.Background(), []string{"alpha", "BTS", "beta"})

	got := seriesByKeyword(report)
	if !strings.Contains(got["beta"].Error, "anchor read zero") {
		t.Errorf("beta error = %q, want zero-anchor failure", got["beta"].Error)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("report counts = %d/%d, want 2/1", report.Succeeded, report.Failed)
	}
}

func TestSessionSynthesizesConsentCookie(t *testing.T) {
	ts := newTrendsServer(t)
	client := testClient(ts, 5)

	if err := client.establishSession(context.Background()); err != nil {
		t.Fatalf("session failed: %v", err)
	}

	base, _ := url.Parse(ts.srv.URL)
	found := false
	for _, cookie := range client.http.Jar.Cookies(base) {
		if cookie.Name == "CONSENT" {
			found = true
		}
	}
	if !found {
		t.Error("expected synthesized CONSENT cookie in jar")
	}
}

func TestSessionKeepsProviderConsentCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "CONSENT", Value: "PENDING+987", Path: "/"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(config.TrendsConfig{
		BaseURL:       srv.URL,
		BatchSize:     5,
		RetryDelay:    time.Millisecond,
		JobStaleAfter: time.Hour,
	})
	if err := client.establishSession(context.Background()); err != nil {
		t.Fatalf("session failed: %v", err)
	}

	base, _ := url.Parse(srv.URL)
	for _, cookie := range client.http.Jar.Cookies(base) {
		if cookie.Name == "CONSENT" && cookie.Value != "PENDING+987" {
			t.Errorf("provider consent cookie overwritten: %q", cookie.Value)
		}
	}
}
