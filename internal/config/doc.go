// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

/*
Package config loads application configuration with Koanf v2.

Sources are layered, later ones overriding earlier ones:

 1. Struct defaults (defaultConfig)
 2. A YAML file, located via CONFIG_PATH or the default search paths
 3. Environment variables listed in the explicit mapping table

Only mapped environment variables are read, so unrelated variables in the
process environment never leak into the configuration.

Example config.yaml:

	server:
	  port: 8080
	alerts:
	  ttl: 1h
	  low_speed_threshold: 15
	simulation:
	  enabled: true
	  seed: 42

Common environment variables:

	HTTP_PORT, HTTP_HOST            server.port, server.host
	LOG_LEVEL, LOG_FORMAT           logging.level, logging.format
	ALERT_TTL                       alerts.ttl
	ALERT_DISABLED                  alerts.disabled (comma separated)
	SIMULATION_ENABLED              simulation.enabled
	CORS_ORIGINS                    security.cors_origins (comma separated)
	EXPORT_ENABLED, EXPORT_URL      export.enabled, export.url
*/
package config
