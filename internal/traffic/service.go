// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package traffic orchestrates ingestion and answers queries.
//
// Ingest stores the snapshot and hands it to a single pipeline worker over a
// bounded queue. The worker evaluates alerts, recomputes analytics and
// broadcasts the update. When the queue is full the pipeline run for that
// snapshot is dropped; the cache still holds the snapshot.
package traffic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/alerts"
	"github.com/tomtom215/trafficpulse/internal/analytics"
	"github.com/tomtom215/trafficpulse/internal/broadcast"
	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/metrics"
	"github.com/tomtom215/trafficpulse/internal/models"
	"github.com/tomtom215/trafficpulse/internal/signal"
	"github.com/tomtom215/trafficpulse/internal/snapshot"
	"github.com/tomtom215/trafficpulse/internal/validation"
)

// DefaultQueueSize is the pipeline queue capacity.
const DefaultQueueSize = 1024

// ErrMissingDependency is returned by NewService for an incomplete Deps.
var ErrMissingDependency = errors.New("traffic: missing dependency")

// Publisher is what the service needs from the broadcaster.
type Publisher interface {
	PublishTrafficUpdate(s models.TrafficSnapshot) int
	PublishAnalytics(summary models.AnalyticsSummary) int
	Subscribe(topic string, state broadcast.StateProvider) (*broadcast.Subscription, error)
	Unsubscribe(sub *broadcast.Subscription)
	SubscriberCount() int
	EventsDropped() int64
	Published() int64
}

// Deps are the components the service orchestrates.
type Deps struct {
	Cache      *snapshot.Cache
	Engine     *alerts.Engine
	Aggregator *analytics.Aggregator
	Publisher  Publisher
	Optimizer  *signal.Optimizer
	Clock      clockwork.Clock
}

// Service is the ingestion pipeline and query facade. It implements
// broadcast.StateProvider.
type Service struct {
	cache      *snapshot.Cache
	engine     *alerts.Engine
	aggregator *analytics.Aggregator
	publisher  Publisher
	optimizer  *signal.Optimizer
	clock      clockwork.Clock

	queue chan models.TrafficSnapshot

	// summaryMu orders analytics publishes the same as aggregator stores.
	summaryMu sync.Mutex

	ingested     atomic.Int64
	pipelineRuns atomic.Int64
	dropped      atomic.Int64
}

// NewService wires deps together. A non-positive queueSize selects
// DefaultQueueSize.
func NewService(deps Deps, queueSize int) (*Service, error) {
	if deps.Cache == nil || deps.Engine == nil || deps.Aggregator == nil || deps.Publisher == nil || deps.Optimizer == nil {
		return nil, ErrMissingDependency
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Service{
		cache:      deps.Cache,
		engine:     deps.Engine,
		aggregator: deps.Aggregator,
		publisher:  deps.Publisher,
		optimizer:  deps.Optimizer,
		clock:      deps.Clock,
		queue:      make(chan models.TrafficSnapshot, queueSize),
	}, nil
}

// Ingest validates req, fills in defaults, stores the snapshot and queues it
// for the pipeline. It returns the stored snapshot.
func (s *Service) Ingest(ctx context.Context, req models.IngestRequest) (models.TrafficSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.TrafficSnapshot{}, err
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		return models.TrafficSnapshot{}, verr
	}

	snap := req.ToSnapshot(s.clock.Now())
	s.cache.Upsert(snap)
	s.ingested.Add(1)
	metrics.RecordIngest(string(snap.Density), s.cache.Len())

	s.enqueue(snap)
	return snap.Clone(), nil
}

func (s *Service) enqueue(snap models.TrafficSnapshot) {
	select {
	case s.queue <- snap:
		metrics.PipelineQueueDepth.Set(float64(len(s.queue)))
	default:
		s.dropped.Add(1)
		metrics.PipelineDropped.Inc()
		logging.Warn().
			Str("location", snap.Location).
			Int("queue_size", cap(s.queue)).
			Msg("pipeline queue full, dropping pipeline run")
	}
}

// RunWithContext runs the pipeline worker until ctx is done.
func (s *Service) RunWithContext(ctx context.Context) error {
	logging.Info().Int("queue_size", cap(s.queue)).Msg("traffic pipeline started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Int("pending", len(s.queue)).Msg("traffic pipeline stopped")
			return ctx.Err()
		case snap := <-s.queue:
			metrics.PipelineQueueDepth.Set(float64(len(s.queue)))
			s.process(snap)
		}
	}
}

// process runs alerts, analytics and broadcast for one snapshot.
func (s *Service) process(snap models.TrafficSnapshot) {
	start := time.Now()

	created := s.engine.Evaluate(snap)
	s.publisher.PublishTrafficUpdate(snap)
	s.publishSummary()

	s.pipelineRuns.Add(1)
	metrics.RecordPipelineRun(time.Since(start))

	logging.Debug().
		Str("location", snap.Location).
		Str("density", string(snap.Density)).
		Int("alerts", len(created)).
		Msg("traffic update processed")
}

// RefreshAnalytics recomputes the summary from the current cache and alert
// registry and publishes it.
func (s *Service) RefreshAnalytics() models.AnalyticsSummary {
	return s.publishSummary()
}

// publishSummary recomputes the summary and publishes the stored one, never
// a result the aggregator discarded as older.
func (s *Service) publishSummary() models.AnalyticsSummary {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()

	s.aggregator.Update(s.cache.List(), s.engine.ActiveCount())
	summary := s.aggregator.Current()
	s.publisher.PublishAnalytics(summary)
	return summary
}

// EvictStale drops snapshots older than maxAge.
func (s *Service) EvictStale(maxAge time.Duration) int {
	removed := s.cache.EvictStale(maxAge)
	metrics.RecordEviction(removed, s.cache.Len())
	return removed
}

// SweepAlerts drops alerts older than ttl.
func (s *Service) SweepAlerts(ttl time.Duration) int {
	return s.engine.Sweep(ttl)
}

// Subscribe registers a subscriber whose first envelope is the current state
// for topic.
func (s *Service) Subscribe(topic string) (*broadcast.Subscription, error) {
	return s.publisher.Subscribe(topic, s)
}

// Unsubscribe removes sub.
func (s *Service) Unsubscribe(sub *broadcast.Subscription) {
	s.publisher.Unsubscribe(sub)
}

// Stats returns the performance counters.
func (s *Service) Stats() models.CoreStats {
	em := s.engine.Metrics()
	return models.CoreStats{
		TrafficProcessed:  s.ingested.Load(),
		AlertsGenerated:   em.AlertsGenerated,
		AlertsSuppressed:  em.AlertsSuppressed,
		PipelineDropped:   s.dropped.Load(),
		ActiveSubscribers: s.publisher.SubscriberCount(),
		EventsDropped:     s.publisher.EventsDropped(),
		EventsPublished:   s.publisher.Published(),
		CachedLocations:   s.cache.Len(),
	}
}
