// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package broadcast fans envelopes out to topic subscribers.
//
// Every subscription owns a bounded queue. Publishing never blocks: a full
// queue loses its oldest envelope. A new subscriber always receives a dump of
// the current state as its first envelope, and registration and dump happen
// under the same lock publishers take, so no update can slip in between.
//
// Topics:
//
//	traffic              TRAFFIC_SNAPSHOT dump, then TRAFFIC_UPDATE
//	alerts               ALERTS_SNAPSHOT dump, then ALERT
//	analytics            ANALYTICS_UPDATE dump and updates
//	traffic/location/<id> LOCATION_TRAFFIC dump, then TRAFFIC_UPDATE for matching locations
package broadcast

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/metrics"
	"github.com/tomtom215/trafficpulse/internal/models"
)

// Topic names.
const (
	TopicTraffic        = "traffic"
	TopicAlerts         = "alerts"
	TopicAnalytics      = "analytics"
	LocationTopicPrefix = "traffic/location/"
)

// DefaultQueueSize is the per-subscriber queue capacity.
const DefaultQueueSize = 64

var (
	// ErrUnknownTopic is returned when subscribing to an unsupported topic.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrSubscriptionClosed is returned by Next after Unsubscribe.
	ErrSubscriptionClosed = errors.New("subscription closed")

	// ErrBroadcasterClosed is returned when subscribing after Close.
	ErrBroadcasterClosed = errors.New("broadcaster closed")
)

// StateProvider supplies the point-in-time state dumped to new subscribers.
type StateProvider interface {
	ListSnapshots() []models.TrafficSnapshot
	GetActiveAlerts() []models.Alert
	GetAnalyticsSummary() models.AnalyticsSummary
	LocationSnapshot(id string) (models.TrafficSnapshot, bool)
}

// LocationTopic returns the topic for a location name.
func LocationTopic(location string) string {
	return LocationTopicPrefix + models.LocationID(location)
}

// ValidTopic reports whether topic can be subscribed to.
func ValidTopic(topic string) bool {
	switch topic {
	case TopicTraffic, TopicAlerts, TopicAnalytics:
		return true
	}
	id, ok := strings.CutPrefix(topic, LocationTopicPrefix)
	return ok && strings.TrimSpace(strings.ReplaceAll(id, "_", " ")) != ""
}

// metricTopic collapses location topics into one label value.
func metricTopic(topic string) string {
	if strings.HasPrefix(topic, LocationTopicPrefix) {
		return "traffic/location"
	}
	return topic
}

// Broadcaster is the topic registry.
type Broadcaster struct {
	clock     clockwork.Clock
	queueSize int

	mu     sync.Mutex
	topics map[string]map[uint64]*Subscription
	nextID uint64
	closed bool

	eventsDropped atomic.Int64
	published     atomic.Int64
}

// New creates a broadcaster. A non-positive queueSize selects DefaultQueueSize.
func New(clock clockwork.Clock, queueSize int) *Broadcaster {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Broadcaster{
		clock:     clock,
		queueSize: queueSize,
		topics:    make(map[string]map[uint64]*Subscription),
	}
}

// Subscribe registers a subscriber on topic and queues the state dump from
// state as its first envelope.
func (b *Broadcaster) Subscribe(topic string, state StateProvider) (*Subscription, error) {
	if !ValidTopic(topic) {
		return nil, ErrUnknownTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBroadcasterClosed
	}

	b.nextID++
	sub := newSubscription(b.nextID, topic, b.queueSize, b)
	if state != nil {
		sub.enqueueDump(b.dump(topic, state))
	}

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[uint64]*Subscription)
		b.topics[topic] = subs
	}
	subs[sub.id] = sub
	metrics.Subscribers.WithLabelValues(metricTopic(topic)).Inc()

	logging.Debug().Uint64("subscription", sub.id).Str("topic", topic).Msg("subscriber registered")
	return sub, nil
}

// dump builds the initial envelope for topic. Caller holds mu.
func (b *Broadcaster) dump(topic string, state StateProvider) models.Envelope {
	now := b.clock.Now()

	switch topic {
	case TopicTraffic:
		locations := state.ListSnapshots()
		return models.NewEnvelope(models.EnvelopeTrafficSnapshot, now, models.TrafficSnapshotPayload{
			Locations:      locations,
			TotalLocations: len(locations),
		})
	case TopicAlerts:
		active := state.GetActiveAlerts()
		return models.NewEnvelope(models.EnvelopeAlertsSnapshot, now, models.AlertsSnapshotPayload{
			Alerts:      active,
			TotalAlerts: len(active),
		})
	case TopicAnalytics:
		return models.NewEnvelope(models.EnvelopeAnalyticsUpdate, now, state.GetAnalyticsSummary())
	default:
		id := strings.TrimPrefix(topic, LocationTopicPrefix)
		payload := models.LocationTrafficPayload{LocationID: id}
		if s, ok := state.LocationSnapshot(id); ok {
			payload.Data = &s
		}
		return models.NewEnvelope(models.EnvelopeLocationTraffic, now, payload)
	}
}

// Unsubscribe removes sub. It is idempotent and safe to call concurrently
// with Publish.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	if subs, ok := b.topics[sub.topic]; ok {
		if _, present := subs[sub.id]; present {
			delete(subs, sub.id)
			metrics.Subscribers.WithLabelValues(metricTopic(sub.topic)).Dec()
			if len(subs) == 0 {
				delete(b.topics, sub.topic)
			}
		}
	}
	b.mu.Unlock()

	if sub.close() {
		logging.Debug().Uint64("subscription", sub.id).Str("topic", sub.topic).Msg("subscriber removed")
	}
}

// Publish queues env for every subscriber of topic and returns how many
// accepted it. It never blocks on a subscriber.
func (b *Broadcaster) Publish(topic string, env models.Envelope) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	if len(subs) == 0 {
		if !ValidTopic(topic) {
			logging.Debug().Str("topic", topic).Msg("publish to unknown topic dropped")
		}
		return 0
	}

	delivered := 0
	for _, sub := range subs {
		if sub.enqueue(env) {
			delivered++
		}
	}

	b.published.Add(1)
	metrics.RecordPublish(metricTopic(topic), delivered)
	return delivered
}

// PublishTrafficUpdate sends s to the traffic topic and to every location
// topic whose id matches s.Location.
func (b *Broadcaster) PublishTrafficUpdate(s models.TrafficSnapshot) int {
	env := models.NewEnvelope(models.EnvelopeTrafficUpdate, b.clock.Now(), s)
	delivered := b.Publish(TopicTraffic, env)

	for _, topic := range b.locationTopics() {
		if models.MatchesLocationID(s.Location, strings.TrimPrefix(topic, LocationTopicPrefix)) {
			delivered += b.Publish(topic, env)
		}
	}
	return delivered
}

// PublishAlert sends a to the alerts topic.
func (b *Broadcaster) PublishAlert(a models.Alert) {
	b.Publish(TopicAlerts, models.NewEnvelope(models.EnvelopeAlert, b.clock.Now(), a))
}

// PublishAnalytics sends summary to the analytics topic.
func (b *Broadcaster) PublishAnalytics(summary models.AnalyticsSummary) int {
	return b.Publish(TopicAnalytics, models.NewEnvelope(models.EnvelopeAnalyticsUpdate, b.clock.Now(), summary))
}

func (b *Broadcaster) locationTopics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string
	for topic := range b.topics {
		if strings.HasPrefix(topic, LocationTopicPrefix) {
			out = append(out, topic)
		}
	}
	sort.Strings(out)
	return out
}

// SubscriberCount returns the number of live subscriptions across topics.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, subs := range b.topics {
		n += len(subs)
	}
	return n
}

// TopicSubscriberCount returns the number of subscribers on topic.
func (b *Broadcaster) TopicSubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// EventsDropped returns how many envelopes were evicted from full queues.
func (b *Broadcaster) EventsDropped() int64 {
	return b.eventsDropped.Load()
}

// Published returns how many publishes found at least one subscriber.
func (b *Broadcaster) Published() int64 {
	return b.published.Load()
}

// Close ends every subscription and rejects new ones.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*Subscription
	for topic, subs := range b.topics {
		for _, sub := range subs {
			all = append(all, sub)
		}
		metrics.Subscribers.WithLabelValues(metricTopic(topic)).Sub(float64(len(subs)))
	}
	b.topics = make(map[string]map[uint64]*Subscription)
	b.mu.Unlock()

	for _, sub := range all {
		sub.close()
	}
	logging.Info().Int("subscribers", len(all)).Msg("broadcaster closed")
}
