// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trafficpulse/internal/models"
)

// ErrNoURL is returned when a webhook exporter is built without a target.
var ErrNoURL = errors.New("export: webhook url is required")

// DefaultTimeout bounds one webhook delivery.
const DefaultTimeout = 10 * time.Second

// WebhookConfig configures WebhookExporter.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
	Breaker BreakerSettings
}

// WebhookPayload is the body POSTed to the provider.
type WebhookPayload struct {
	EventType string                  `json:"event_type"`
	Source    string                  `json:"source"`
	Timestamp time.Time               `json:"timestamp"`
	Summary   models.AnalyticsSummary `json:"summary"`
}

// WebhookExporter POSTs each summary as JSON.
type WebhookExporter struct {
	url     string
	headers map[string]string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[struct{}]
	name    string
}

// NewWebhookExporter validates cfg and builds the exporter.
func NewWebhookExporter(cfg WebhookConfig) (*WebhookExporter, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Breaker == (BreakerSettings{}) {
		cfg.Breaker = DefaultBreakerSettings()
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	name := "analytics-export"
	return &WebhookExporter{
		url:     cfg.URL,
		headers: headers,
		client:  &http.Client{Timeout: cfg.Timeout},
		cb:      newBreaker(name, cfg.Breaker),
		name:    name,
	}, nil
}

// State returns the breaker state.
func (w *WebhookExporter) State() gobreaker.State {
	return w.cb.State()
}

// Export implements Exporter.
func (w *WebhookExporter) Export(ctx context.Context, summary models.AnalyticsSummary) error {
	_, err := w.cb.Execute(func() (struct{}, error) {
		return struct{}{}, w.post(ctx, summary)
	})
	recordResult(w.name, err)
	return err
}

func (w *WebhookExporter) post(ctx context.Context, summary models.AnalyticsSummary) error {
	body, err := json.Marshal(WebhookPayload{
		EventType: "analytics_update",
		Source:    "trafficpulse",
		Timestamp: summary.LastUpdate,
		Summary:   summary,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal export payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send export: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("export endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
