// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - Request ID: UUID-based request tracking, propagated into the logging
    context as request_id and correlation_id
  - Prometheus Metrics: request count, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality

Both are written as func(http.HandlerFunc) http.HandlerFunc and adapted to
chi's r.Use by the api package:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

Thread Safety:

All middleware is stateless apart from the global prometheus collectors and
is safe for concurrent use.
*/
package middleware
