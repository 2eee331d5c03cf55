// Command devicehubctl runs the devicehub server and its operational tools.
//
// devicehub keeps one normalized device inventory per company. Sync runs
// pull device records from the configured sources, resolve device owners,
// detect field changes and record them in a per-device change log.
//
// # Quick Start
//
// The server is run via the devicehubctl CLI:
//
//	# Generate a data key for credential encryption
//	export DEVICEHUB_DATA_KEY="$(devicehubctl data-key generate)"
//	export DATABASE_URL=postgres://devicehub@localhost/devicehub?sslmode=disable
//
//	# Create the schema
//	devicehubctl db migrate
//
//	# Register a company and reconcile it once
//	devicehubctl company save --name Acme --kandji-api-key "$KANDJI_KEY" --kandji-api-url https://acme.api.kandji.io
//	devicehubctl sync
//
//	# Serve the API with an hourly background sync
//	export DEVICEHUB_API_SIGNING_KEY="$(devicehubctl data-key generate)"
//	devicehubctl server --sync-every 1h
//	devicehubctl token issue --subject ops
package main
