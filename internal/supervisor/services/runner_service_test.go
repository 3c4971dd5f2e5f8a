// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/trafficpulse/internal/websocket"
)

var _ suture.Service = (*RunnerService)(nil)

// fakeRunner blocks until ctx is done unless err is set.
type fakeRunner struct {
	err   error
	calls atomic.Int32
}

func (f *fakeRunner) RunWithContext(ctx context.Context) error {
	f.calls.Add(1)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerService_Names(t *testing.T) {
	tests := []struct {
		svc  *RunnerService
		want string
	}{
		{NewWebSocketHubService(&fakeRunner{}), "websocket-hub"},
		{NewPipelineService(&fakeRunner{}), "traffic-pipeline"},
		{NewRunnerService("custom", &fakeRunner{}), "custom"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.svc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunnerService_StopsOnCancel(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewPipelineService(runner)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestRunnerService_WrapsFailure(t *testing.T) {
	boom := errors.New("boom")
	svc := NewPipelineService(&fakeRunner{err: boom})

	err := svc.Serve(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Serve() = %v, want wrapped boom", err)
	}
	if got := err.Error(); got != "traffic-pipeline: boom" {
		t.Errorf("error = %q", got)
	}
}

func TestRunnerService_RestartedBySupervisor(t *testing.T) {
	runner := &fakeRunner{err: errors.New("transient")}
	sup := suture.New("core-test", suture.Spec{
		FailureThreshold: 100,
		FailureBackoff:   time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(NewRunnerService("flaky", runner))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for runner.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	if runner.calls.Load() < 3 {
		t.Errorf("expected at least 3 restarts, got %d", runner.calls.Load())
	}
}

func TestWebSocketHubService_RealHub(t *testing.T) {
	hub := websocket.NewHub()
	svc := NewWebSocketHubService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub service did not stop")
	}
}
