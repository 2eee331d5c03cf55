package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/devicehub/pkg/server"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// StatusResponse represents the response from /
type StatusResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Syncing bool   `json:"syncing"`
}

// RegisterStatusEndpoints registers the status endpoint
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus(s.Stores.Health, s.Syncing)).Methods("GET")
}

func handleStatus(health store.HealthStore, syncing func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := health.CheckConnectivity(r.Context()); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, StatusResponse{
				Status: "error",
				Error:  "database connectivity check failed",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok", Syncing: syncing()})
	}
}
