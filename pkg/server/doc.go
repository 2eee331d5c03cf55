// Package server provides the HTTP server for the devicehub API.
//
// The server reads the reconciled inventory, administers companies and
// triggers sync runs. It uses gorilla/mux for routing and gorilla/handlers
// for access logging and proxy header handling.
//
// # Server Setup
//
//	srv := server.NewServer(stores, cipher, cfg, "0.0.0.0", "8080")
//	srv.Syncer = driver
//	srv.JWTMiddleware = middleware.NewJWTAuthenticator(signingKey, "/", "/metrics")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// These are registered via the endpoints subpackage:
//
//   - GET / - Status and database connectivity
//   - GET /devices, GET /devices/{id}/changelog - Device inventory
//   - GET /users - Users per company
//   - GET /companies, POST /companies - Company administration
//   - POST /sync - Trigger a reconciliation run
//   - /data/GetDevices, /data/GetCompany, /data/SaveCompany - Legacy gateway routes
//   - GET /metrics - Prometheus metrics
package server
