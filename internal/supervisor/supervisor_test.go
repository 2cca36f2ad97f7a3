// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/models"
)

type mockServer struct {
	started  chan struct{}
	shutdown atomic.Bool
	done     chan struct{}
}

func newMockServer() *mockServer {
	return &mockServer{
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (m *mockServer) ListenAndServe() error {
	close(m.started)
	<-m.done
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(_ context.Context) error {
	m.shutdown.Store(true)
	close(m.done)
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newMockServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-server.started
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	if !server.shutdown.Load() {
		t.Error("server shutdown was not called")
	}
}

type countingEngine struct{ runs atomic.Int32 }

func (c *countingEngine) IngestFleet(_ context.Context) (*models.FleetReport, error) {
	c.runs.Add(1)
	return &models.FleetReport{}, nil
}

type countingCollector struct{ runs atomic.Int32 }

func (c *countingCollector) Collect(_ context.Context, _ []uuid.UUID) (*models.TrendsReport, error) {
	c.runs.Add(1)
	return &models.TrendsReport{}, nil
}

func TestSchedulerServiceTicks(t *testing.T) {
	engine := &countingEngine{}
	collector := &countingCollector{}
	svc := NewSchedulerService(engine, collector, config.SchedulerConfig{
		Enabled:        true,
		IngestInterval: 20 * time.Millisecond,
		TrendsInterval: 30 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if engine.runs.Load() == 0 {
		t.Error("expected at least one scheduled ingest run")
	}
	if collector.runs.Load() == 0 {
		t.Error("expected at least one scheduled trends run")
	}
}

func TestTreeServesAndStops(t *testing.T) {
	tree := NewTree(slog.Default(), DefaultTreeConfig())
	server := newMockServer()
	tree.AddAPIService(NewHTTPServerService(server, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	<-server.started
	cancel()

	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}
}
