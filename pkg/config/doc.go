// Package config loads the job board server configuration.
//
// Values come from three layers, later ones winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file named by JOBBOARD_CONFIG_FILE
//  3. JOBBOARD_* environment variables
//
// # Required Settings
//
//	JOBBOARD_DATABASE_URL   PostgreSQL connection string
//	JOBBOARD_JWT_SECRET     HMAC secret for bearer tokens, at least 32 bytes
//
// # Optional Settings
//
//	JOBBOARD_PORT                   HTTP port (default 8080)
//	JOBBOARD_REDIS_ADDR             Redis address; enables the notification bus and shared rate limits
//	JOBBOARD_WEBHOOK_URL            Notification webhook, requires JOBBOARD_WEBHOOK_SECRET
//	JOBBOARD_LOG_LEVEL              debug, info, warn or error
//	JOBBOARD_OTEL_ENABLED           Export traces and metrics over OTLP gRPC
//
// LoadConfig validates the result and reports every problem at once.
package config
