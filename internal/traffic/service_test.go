// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package traffic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/alerts"
	"github.com/tomtom215/trafficpulse/internal/analytics"
	"github.com/tomtom215/trafficpulse/internal/broadcast"
	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/models"
	"github.com/tomtom215/trafficpulse/internal/signal"
	"github.com/tomtom215/trafficpulse/internal/snapshot"
	"github.com/tomtom215/trafficpulse/internal/validation"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	os.Exit(m.Run())
}

type fixture struct {
	clock       *clockwork.FakeClock
	broadcaster *broadcast.Broadcaster
	svc         *Service
}

func newFixture(t *testing.T, queueSize int) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	b := broadcast.New(clock, 16)
	svc, err := NewService(Deps{
		Cache:      snapshot.New(clock, 1.0),
		Engine:     alerts.NewDefaultEngine(clock, alerts.DefaultTTL, 15.0, b),
		Aggregator: analytics.NewAggregator(clock),
		Publisher:  b,
		Optimizer:  signal.NewOptimizer(42),
		Clock:      clock,
	}, queueSize)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{clock: clock, broadcaster: b, svc: svc}
}

// startWorker runs the pipeline until the test ends.
func (f *fixture) startWorker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = f.svc.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (f *fixture) waitForRuns(t *testing.T, n int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.svc.pipelineRuns.Load() >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("pipeline ran %d times, want %d", f.svc.pipelineRuns.Load(), n)
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func request(location, density string) models.IngestRequest {
	return models.IngestRequest{
		Location:  location,
		Latitude:  ptrF(40.7128),
		Longitude: ptrF(-74.0060),
		Density:   density,
	}
}

func TestNewService_MissingDependency(t *testing.T) {
	if _, err := NewService(Deps{}, 0); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestIngest_Validation(t *testing.T) {
	f := newFixture(t, 8)

	tests := []struct {
		name  string
		req   models.IngestRequest
		field string
	}{
		{"missing location", models.IngestRequest{Latitude: ptrF(1), Longitude: ptrF(1), Density: "LOW"}, "location"},
		{"missing latitude", models.IngestRequest{Location: "A", Longitude: ptrF(1), Density: "LOW"}, "latitude"},
		{"latitude out of range", models.IngestRequest{Location: "A", Latitude: ptrF(91), Longitude: ptrF(1), Density: "LOW"}, "latitude"},
		{"bad density", models.IngestRequest{Location: "A", Latitude: ptrF(1), Longitude: ptrF(1), Density: "JAMMED"}, "density"},
		{"negative speed", models.IngestRequest{Location: "A", Latitude: ptrF(1), Longitude: ptrF(1), Density: "LOW", AverageSpeed: ptrF(-1)}, "averageSpeed"},
		{"negative count", models.IngestRequest{Location: "A", Latitude: ptrF(1), Longitude: ptrF(1), Density: "LOW", VehicleCount: ptrI(-1)}, "vehicleCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Ingest(context.Background(), tt.req)
			var verr *validation.RequestValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors() {
				if fe.Field() == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.field, verr)
			}
		})
	}

	if f.svc.cache.Len() != 0 {
		t.Errorf("invalid requests must not reach the cache, got %d entries", f.svc.cache.Len())
	}
}

func TestIngest_Enrichment(t *testing.T) {
	f := newFixture(t, 8)

	got, err := f.svc.Ingest(context.Background(), request("Main St & 1st Ave", "moderate"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got.Density != models.DensityModerate {
		t.Errorf("density = %s", got.Density)
	}
	if got.VehicleCount == nil || *got.VehicleCount != 35 {
		t.Errorf("vehicleCount = %v, want 35", got.VehicleCount)
	}
	if got.AverageSpeed == nil || *got.AverageSpeed != 25 {
		t.Errorf("averageSpeed = %v, want 25", got.AverageSpeed)
	}
	if got.WeatherCondition != models.DefaultWeather {
		t.Errorf("weather = %q", got.WeatherCondition)
	}
	if !got.Timestamp.Equal(f.clock.Now()) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, f.clock.Now())
	}

	stored, ok := f.svc.GetSnapshot("Main St & 1st Ave")
	if !ok || *stored.VehicleCount != 35 {
		t.Errorf("GetSnapshot = %+v, %v", stored, ok)
	}
}

func TestIngest_CanceledContext(t *testing.T) {
	f := newFixture(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.Ingest(ctx, request("A", "LOW")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPipeline_CriticalSlowRaisesTwoAlerts(t *testing.T) {
	f := newFixture(t, 8)
	f.startWorker(t)

	req := request("Highway 101 North", "CRITICAL")
	req.AverageSpeed = ptrF(5)
	if _, err := f.svc.Ingest(context.Background(), req); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	f.waitForRuns(t, 1)

	active := f.svc.GetActiveAlerts()
	if len(active) != 2 {
		t.Fatalf("active alerts = %d, want 2", len(active))
	}
	types := map[models.AlertType]models.Severity{}
	for _, a := range active {
		types[a.Type] = a.Severity
	}
	if types[models.AlertHighTraffic] != models.SeverityCritical {
		t.Errorf("HIGH_TRAFFIC severity = %s", types[models.AlertHighTraffic])
	}
	if types[models.AlertLowSpeed] != models.SeverityCritical {
		t.Errorf("LOW_SPEED severity = %s", types[models.AlertLowSpeed])
	}

	summary := f.svc.GetAnalyticsSummary()
	if summary.ActiveAlerts != 2 || summary.TotalLocations != 1 || summary.HighTrafficLocations != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestPipeline_DuplicateCriticalSuppressed(t *testing.T) {
	f := newFixture(t, 8)
	f.startWorker(t)

	for i := 0; i < 2; i++ {
		req := request("City Center", "CRITICAL")
		req.AverageSpeed = ptrF(20)
		if _, err := f.svc.Ingest(context.Background(), req); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}
	f.waitForRuns(t, 2)

	active := f.svc.GetActiveAlerts()
	if len(active) != 1 || active[0].Type != models.AlertHighTraffic {
		t.Fatalf("active = %+v, want one HIGH_TRAFFIC", active)
	}
	if stats := f.svc.Stats(); stats.AlertsSuppressed != 1 || stats.AlertsGenerated != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPipeline_QueueFullDropsRun(t *testing.T) {
	f := newFixture(t, 1)

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Ingest(context.Background(), request(fmt.Sprintf("Loc %d", i), "LOW")); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	stats := f.svc.Stats()
	if stats.PipelineDropped != 2 {
		t.Errorf("PipelineDropped = %d, want 2", stats.PipelineDropped)
	}
	if stats.CachedLocations != 3 {
		t.Errorf("dropped pipeline runs must keep the snapshot cached, got %d", stats.CachedLocations)
	}
	if stats.TrafficProcessed != 3 {
		t.Errorf("TrafficProcessed = %d, want 3", stats.TrafficProcessed)
	}
}

func TestSubscribe_LateSubscriberGetsDumpFirst(t *testing.T) {
	f := newFixture(t, 16)
	f.startWorker(t)

	for i := 0; i < 5; i++ {
		if _, err := f.svc.Ingest(context.Background(), request(fmt.Sprintf("Location %d", i), "LOW")); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}
	f.waitForRuns(t, 5)

	sub, err := f.svc.Subscribe(broadcast.TopicTraffic)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer f.svc.Unsubscribe(sub)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	first, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Type != models.EnvelopeTrafficSnapshot {
		t.Fatalf("first envelope = %s, want TRAFFIC_SNAPSHOT", first.Type)
	}
	payload := first.Payload.(models.TrafficSnapshotPayload)
	if payload.TotalLocations != 5 || len(payload.Locations) != 5 {
		t.Errorf("dump has %d locations, want 5", payload.TotalLocations)
	}

	if _, err := f.svc.Ingest(context.Background(), request("Location 9", "HIGH")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	next, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.Type != models.EnvelopeTrafficUpdate {
		t.Errorf("second envelope = %s, want TRAFFIC_UPDATE", next.Type)
	}
}

func TestSubscribe_LocationTopic(t *testing.T) {
	f := newFixture(t, 8)
	if _, err := f.svc.Ingest(context.Background(), request("Shopping Mall", "HIGH")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	sub, err := f.svc.Subscribe(broadcast.LocationTopic("Shopping Mall"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer f.svc.Unsubscribe(sub)

	env, ok := sub.TryNext()
	if !ok || env.Type != models.EnvelopeLocationTraffic {
		t.Fatalf("dump = %+v, %v", env, ok)
	}
	payload := env.Payload.(models.LocationTrafficPayload)
	if payload.LocationID != "shopping_mall" || payload.Data == nil || payload.Data.Location != "Shopping Mall" {
		t.Errorf("payload = %+v", payload)
	}

	if _, err := f.svc.Subscribe("weather"); !errors.Is(err, broadcast.ErrUnknownTopic) {
		t.Errorf("expected ErrUnknownTopic, got %v", err)
	}
}

func TestLocationTraffic(t *testing.T) {
	f := newFixture(t, 8)
	if _, err := f.svc.Ingest(context.Background(), request("Airport Terminal", "LOW")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := f.svc.LocationTraffic("airport_terminal"); got.Data == nil {
		t.Error("expected a match for airport_terminal")
	}
	if got := f.svc.LocationTraffic("harbor"); got.Data != nil || got.LocationID != "harbor" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestNearbySnapshots(t *testing.T) {
	f := newFixture(t, 8)

	near := request("Near", "LOW")
	far := request("Far", "LOW")
	far.Latitude = ptrF(41.5)
	for _, r := range []models.IngestRequest{near, far} {
		if _, err := f.svc.Ingest(context.Background(), r); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	got, err := f.svc.NearbySnapshots(NearbyQuery{Latitude: 40.7128, Longitude: -74.0060})
	if err != nil {
		t.Fatalf("NearbySnapshots: %v", err)
	}
	if len(got) != 1 || got[0].Location != "Near" {
		t.Errorf("nearby = %+v, want only Near", got)
	}

	_, err = f.svc.NearbySnapshots(NearbyQuery{Latitude: 40, Longitude: -74, RadiusKm: -1})
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error for negative radius, got %v", err)
	}
}

func TestOptimizeSignal(t *testing.T) {
	f := newFixture(t, 8)

	plan, err := f.svc.OptimizeSignal(models.SignalOptimizationRequest{IntersectionID: "int-1"})
	if err != nil {
		t.Fatalf("OptimizeSignal: %v", err)
	}
	if plan.OptimizationStrategy != models.StrategyDefault || plan.Total() != 120 {
		t.Errorf("zero counts should give the default plan, got %+v", plan)
	}

	_, err = f.svc.OptimizeSignal(models.SignalOptimizationRequest{NorthCount: -1})
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error for negative count, got %v", err)
	}
}

func TestMaintenance(t *testing.T) {
	f := newFixture(t, 8)
	f.startWorker(t)

	req := request("Downtown Plaza", "HIGH")
	if _, err := f.svc.Ingest(context.Background(), req); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	f.waitForRuns(t, 1)

	f.clock.Advance(31 * time.Minute)
	if n := f.svc.EvictStale(30 * time.Minute); n != 1 {
		t.Errorf("EvictStale = %d, want 1", n)
	}
	if n := f.svc.SweepAlerts(time.Hour); n != 0 {
		t.Errorf("alert swept too early: %d", n)
	}

	f.clock.Advance(30 * time.Minute)
	if n := f.svc.SweepAlerts(time.Hour); n != 1 {
		t.Errorf("SweepAlerts = %d, want 1", n)
	}

	summary := f.svc.RefreshAnalytics()
	if summary.TotalLocations != 0 || summary.ActiveAlerts != 0 {
		t.Errorf("summary after maintenance = %+v", summary)
	}
	if got := f.svc.GetAnalyticsSummary(); got != summary {
		t.Errorf("RefreshAnalytics should store the summary")
	}
}

func TestRefreshAnalytics_PublishesInStoreOrder(t *testing.T) {
	clock := clockwork.NewRealClock()
	b := broadcast.New(clock, 1024)
	svc, err := NewService(Deps{
		Cache:      snapshot.New(clock, 1.0),
		Engine:     alerts.NewDefaultEngine(clock, alerts.DefaultTTL, 15.0, b),
		Aggregator: analytics.NewAggregator(clock),
		Publisher:  b,
		Optimizer:  signal.NewOptimizer(42),
		Clock:      clock,
	}, 16)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	sub, err := svc.Subscribe(broadcast.TopicAnalytics)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, ok := sub.TryNext(); !ok {
		t.Fatal("expected analytics dump")
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				svc.RefreshAnalytics()
			}
		}()
	}
	wg.Wait()

	var last models.AnalyticsSummary
	received := 0
	for {
		env, ok := sub.TryNext()
		if !ok {
			break
		}
		summary := env.Payload.(models.AnalyticsSummary)
		if summary.LastUpdate.Before(last.LastUpdate) {
			t.Fatalf("envelope %d went back in time: %s after %s", received, summary.LastUpdate, last.LastUpdate)
		}
		last = summary
		received++
	}
	if received != 400 {
		t.Errorf("received %d summaries, want 400", received)
	}
	if last != svc.GetAnalyticsSummary() {
		t.Errorf("last published %+v, stored %+v", last, svc.GetAnalyticsSummary())
	}
}

func TestStats_EventsPublished(t *testing.T) {
	f := newFixture(t, 16)
	f.startWorker(t)

	if n := f.svc.Stats().EventsPublished; n != 0 {
		t.Fatalf("EventsPublished = %d before any subscriber", n)
	}

	sub, err := f.svc.Subscribe(broadcast.TopicTraffic)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer f.svc.Unsubscribe(sub)

	if _, err := f.svc.Ingest(context.Background(), request("Main St", "LOW")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	f.waitForRuns(t, 1)

	// Only the traffic publish had a subscriber.
	if n := f.svc.Stats().EventsPublished; n != 1 {
		t.Errorf("EventsPublished = %d, want 1", n)
	}
}
