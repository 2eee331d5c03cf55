// Package config provides configuration management for devicehub.
//
// Settings are layered: built-in defaults, then the YAML file at
// $DEVICEHUB_CONFIG_PATH/devicehub.yml (default /etc/devicehub), then
// DEVICEHUB_* environment variables. The origin of each value is kept so
// "devicehubctl configuration show" can report it.
//
// # Key Configuration Options
//
//   - DEVICEHUB_ENABLED_SOURCES: Comma separated source tags (intune,kandji)
//   - DEVICEHUB_SYNC_CONCURRENCY: Companies reconciled at once
//   - DEVICEHUB_SYNC_INTERVAL_SECONDS: Background sync schedule for the server
//   - DEVICEHUB_FETCH_MAX_RETRIES: Retries of failed source requests
//
// Secrets are not part of this package:
//
//   - DATABASE_URL: Database connection
//   - DEVICEHUB_DATA_KEY: Credential encryption key
//   - DEVICEHUB_API_SIGNING_KEY: Bearer token signing key
package config
