package endpoints

import (
	"github.com/doodlesbykumbi/devicehub/pkg/server"
)

// PublicPaths are served without a bearer token.
var PublicPaths = []string{"/", "/metrics"}

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	// mux runs middleware after route matching, so the metrics middleware
	// sees the route template
	if srv.Metrics != nil {
		srv.Router.Use(srv.Metrics.Middleware)
	}
	if srv.JWTMiddleware != nil {
		srv.Router.Use(srv.JWTMiddleware.Middleware)
	}

	RegisterStatusEndpoints(srv)
	RegisterDevicesEndpoints(srv)
	RegisterCompaniesEndpoints(srv)
	RegisterSyncEndpoints(srv)
	RegisterLegacyEndpoints(srv)
	RegisterMetricsEndpoint(srv)
}
