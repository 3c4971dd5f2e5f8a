// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/metrics"
	"github.com/tomtom215/trafficpulse/internal/models"
)

// Subscription is one subscriber's bounded FIFO of envelopes.
// When the queue is full the oldest envelope is dropped, except the state
// dump: it stays at the head until it has been read.
type Subscription struct {
	id       uint64
	topic    string
	capacity int
	owner    *Broadcaster

	mu     sync.Mutex
	queue  []models.Envelope
	closed bool
	// pinned is set while queue[0] is the unread state dump.
	pinned bool

	// notify holds at most one pending wake-up for Next.
	notify  chan struct{}
	done    chan struct{}
	dropped atomic.Int64
}

func newSubscription(id uint64, topic string, capacity int, owner *Broadcaster) *Subscription {
	return &Subscription{
		id:       id,
		topic:    topic,
		capacity: capacity,
		owner:    owner,
		queue:    make([]models.Envelope, 0, capacity),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// ID returns the subscription's identifier, unique per broadcaster.
func (s *Subscription) ID() uint64 { return s.id }

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Dropped returns how many envelopes were discarded for this subscriber.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Done is closed once the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Len returns the number of queued envelopes.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// enqueueDump queues the state dump at the head and pins it there.
func (s *Subscription) enqueueDump(env models.Envelope) {
	s.mu.Lock()
	s.queue = append(s.queue[:0], env)
	s.pinned = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// enqueue appends env, evicting the oldest unpinned entry when full. It
// reports whether env was queued; a closed subscription accepts nothing.
func (s *Subscription) enqueue(env models.Envelope) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		logging.Debug().
			Uint64("subscription", s.id).
			Str("topic", s.topic).
			Str("type", string(env.Type)).
			Msg("publish to closed subscription ignored")
		return false
	}

	queued := true
	evicted := false
	if len(s.queue) >= s.capacity {
		first := 0
		if s.pinned {
			first = 1
		}
		if first < len(s.queue) {
			// Shift rather than reslice so the backing array does not creep.
			copy(s.queue[first:], s.queue[first+1:])
			s.queue = s.queue[:len(s.queue)-1]
			s.queue = append(s.queue, env)
		} else {
			// Only the pinned dump fits; the update is the one lost.
			queued = false
		}
		evicted = true
	} else {
		s.queue = append(s.queue, env)
	}
	s.mu.Unlock()

	if evicted {
		s.dropped.Add(1)
		s.owner.eventsDropped.Add(1)
		metrics.BroadcastDropped.WithLabelValues(metricTopic(s.topic)).Inc()
	}

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return queued
}

// popLocked removes and returns the head. Caller holds mu and has checked
// the queue is non-empty.
func (s *Subscription) popLocked() models.Envelope {
	env := s.queue[0]
	copy(s.queue, s.queue[1:])
	s.queue[len(s.queue)-1] = models.Envelope{}
	s.queue = s.queue[:len(s.queue)-1]
	s.pinned = false
	return env
}

// Next blocks until an envelope is available and returns it in FIFO order.
// It returns ErrSubscriptionClosed once the subscription has ended, or the
// context error when ctx is done first.
func (s *Subscription) Next(ctx context.Context) (models.Envelope, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return models.Envelope{}, ErrSubscriptionClosed
		}
		if len(s.queue) > 0 {
			env := s.popLocked()
			s.mu.Unlock()
			return env, nil
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			return models.Envelope{}, ctx.Err()
		}
	}
}

// TryNext returns the head of the queue without blocking.
func (s *Subscription) TryNext() (models.Envelope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.queue) == 0 {
		return models.Envelope{}, false
	}
	return s.popLocked(), true
}

// close marks the subscription ended. It reports whether this call closed it.
func (s *Subscription) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.queue = nil
	s.pinned = false
	close(s.done)
	return true
}
